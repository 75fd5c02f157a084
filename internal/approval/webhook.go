package approval

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"portfolio/internal/content"
	"portfolio/pkg/logging"
	"portfolio/pkg/middleware"
	"portfolio/pkg/ratelimit"
)

// SecretHeader carries the secret token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	WebhookPath     = "/webhooks/telegram"
	handlerTimeout  = 20 * time.Second
	maxPendingShown = 20
	maxUpdateBytes  = 1 << 20
)

const helpText = `Commands:
/pending - list drafts awaiting approval
/publish <id> - publish a draft
/delete <id> - delete a draft
/help - show this message`

// Responder is the chat side of the webhook: satisfied by *notify.Telegram.
type Responder interface {
	AnswerCallback(ctx context.Context, callbackID, text string) error
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	Reply(ctx context.Context, chatID int64, text string) error
}

type WebhookConfig struct {
	Machine   *Machine
	Store     content.Store
	Responder Responder
	// Secret must match SecretHeader when non-empty.
	Secret string
	// ChatID restricts updates to the moderator chat. Zero accepts any chat.
	ChatID  int64
	Limiter *ratelimit.Limiter
	Logger  logging.Logger
	Now     func() time.Time
}

// WebhookHandler turns Telegram updates into approval transitions.
type WebhookHandler struct {
	machine   *Machine
	store     content.Store
	responder Responder
	secret    string
	chatID    int64
	limiter   *ratelimit.Limiter
	logger    logging.Logger
	now       func() time.Time
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &WebhookHandler{
		machine:   cfg.Machine,
		store:     cfg.Store,
		responder: cfg.Responder,
		secret:    cfg.Secret,
		chatID:    cfg.ChatID,
		limiter:   cfg.Limiter,
		logger:    logger,
		now:       now,
	}
}

// Register mounts the webhook on r. Telegram updates are small, so bodies
// are capped at maxUpdateBytes.
func (h *WebhookHandler) Register(r gin.IRoutes) {
	r.POST(WebhookPath, middleware.BodyLimit(maxUpdateBytes), h.Handle)
}

// Handle answers 200 for every well-formed, authenticated update, including
// ignored ones, so Telegram does not redeliver them.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			webhookUpdatesTotal.WithLabelValues("unknown", "unauthorized").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid secret token"})
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			webhookUpdatesTotal.WithLabelValues("unknown", "too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "update too large"})
			return
		}
		webhookUpdatesTotal.WithLabelValues("unknown", "bad_request").Inc()
		middleware.ContextLogger(c, h.logger).WithError(err).Warn("Approval webhook: malformed update")
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid update"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	default:
		webhookUpdatesTotal.WithLabelValues("other", "ignored").Inc()
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *WebhookHandler) allowedChat(chatID int64) bool {
	return h.chatID == 0 || chatID == h.chatID
}

func (h *WebhookHandler) allow(ctx context.Context, chatID int64) bool {
	decision, err := h.limiter.Allow(ctx, strconv.FormatInt(chatID, 10))
	if err != nil {
		h.logger.WithError(err).Warn("Approval webhook: rate limiter unavailable, allowing")
		return true
	}
	return decision.Allowed
}

func (h *WebhookHandler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	var chatID int64
	var messageID int
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
		messageID = cb.Message.MessageID
	}
	if !h.allowedChat(chatID) {
		webhookUpdatesTotal.WithLabelValues("callback", "foreign_chat").Inc()
		h.logger.WithField("chat_id", chatID).Warn("Approval webhook: callback from unexpected chat ignored")
		h.answer(ctx, cb.ID, "Not allowed here")
		return
	}
	if !h.allow(ctx, chatID) {
		webhookUpdatesTotal.WithLabelValues("callback", "rate_limited").Inc()
		h.answer(ctx, cb.ID, "Too many requests, try again shortly")
		return
	}

	action, id, err := ParseCallback(cb.Data)
	if err != nil {
		webhookUpdatesTotal.WithLabelValues("callback", "bad_payload").Inc()
		h.answer(ctx, cb.ID, "Unknown action")
		return
	}

	draft, err := h.machine.Transition(ctx, id, action, actorOf(cb.From))
	toast, text := outcomeText(action, draft, err)
	h.answer(ctx, cb.ID, toast)
	if messageID != 0 && text != "" {
		if err := h.responder.EditMessage(ctx, chatID, messageID, text); err != nil {
			h.logger.WithError(err).Warn("Approval webhook: failed to edit approval message")
		}
	}
	webhookUpdatesTotal.WithLabelValues("callback", resultLabel(err)).Inc()
}

func (h *WebhookHandler) answer(ctx context.Context, callbackID, text string) {
	if err := h.responder.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.WithError(err).Warn("Approval webhook: failed to answer callback")
	}
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !strings.HasPrefix(msg.Text, "/") {
		webhookUpdatesTotal.WithLabelValues("message", "ignored").Inc()
		return
	}
	if !h.allowedChat(msg.Chat.ID) {
		webhookUpdatesTotal.WithLabelValues("message", "foreign_chat").Inc()
		return
	}
	if !h.allow(ctx, msg.Chat.ID) {
		webhookUpdatesTotal.WithLabelValues("message", "rate_limited").Inc()
		h.reply(ctx, msg.Chat.ID, "Too many requests, try again shortly.")
		return
	}

	fields := strings.Fields(msg.Text)
	command, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	args := fields[1:]

	switch strings.ToLower(command) {
	case "pending":
		h.reply(ctx, msg.Chat.ID, h.pendingText(ctx))
		webhookUpdatesTotal.WithLabelValues("command", "ok").Inc()
	case "publish", "delete":
		if len(args) != 1 {
			h.reply(ctx, msg.Chat.ID, fmt.Sprintf("Usage: /%s <id>", command))
			webhookUpdatesTotal.WithLabelValues("command", "bad_payload").Inc()
			return
		}
		action := Action(strings.ToLower(command))
		draft, err := h.machine.Transition(ctx, args[0], action, actorOf(msg.From))
		_, text := outcomeText(action, draft, err)
		h.reply(ctx, msg.Chat.ID, text)
		webhookUpdatesTotal.WithLabelValues("command", resultLabel(err)).Inc()
	default:
		h.reply(ctx, msg.Chat.ID, helpText)
		webhookUpdatesTotal.WithLabelValues("command", "help").Inc()
	}
}

func (h *WebhookHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.responder.Reply(ctx, chatID, text); err != nil {
		h.logger.WithError(err).Warn("Approval webhook: failed to reply")
	}
}

func (h *WebhookHandler) pendingText(ctx context.Context) string {
	drafts, err := h.store.ListPending(ctx, content.AutomatedAuthor, h.now())
	if err != nil {
		h.logger.WithError(err).Warn("Approval webhook: failed to list pending drafts")
		return "Could not load pending drafts."
	}
	if len(drafts) == 0 {
		return "No drafts awaiting approval."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d draft(s) awaiting approval:", len(drafts))
	for i, d := range drafts {
		if i == maxPendingShown {
			fmt.Fprintf(&b, "\n…and %d more", len(drafts)-maxPendingShown)
			break
		}
		age := h.now().Sub(d.CreatedAt).Round(time.Minute)
		fmt.Fprintf(&b, "\n• %s (%s ago)\n  %s", d.Title, age, d.ID)
	}
	return b.String()
}

func actorOf(u *tgbotapi.User) string {
	if u == nil {
		return "telegram:unknown"
	}
	if u.UserName != "" {
		return "telegram:" + u.UserName
	}
	return "telegram:" + strconv.FormatInt(u.ID, 10)
}

// outcomeText returns the callback toast and the message text for a
// transition result.
func outcomeText(action Action, d content.Draft, err error) (toast, text string) {
	switch {
	case err == nil && action == ActionPublish:
		return "Published", "✅ Published: " + d.Title
	case err == nil:
		return "Deleted", "🗑 Deleted: " + d.Title
	case errors.Is(err, content.ErrNotFound):
		return "Draft not found", "Draft not found. It may already have been deleted."
	case errors.Is(err, ErrNotPending) && StateOf(d) == StatePending:
		return "Already handled", "Already handled: " + d.Title
	case errors.Is(err, ErrNotPending):
		return "Already handled", "Already handled: " + d.Title + " is " + StateOf(d).String()
	default:
		return "Something went wrong", "Could not " + string(action) + " the draft, please retry."
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, content.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	default:
		return "error"
	}
}

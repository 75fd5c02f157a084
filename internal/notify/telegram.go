package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"portfolio/pkg/logging"
)

const maxExcerptChars = 600

// BotAPI is the subset of *tgbotapi.BotAPI the notifier uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewBotAPI connects to the Bot API with token. It performs a getMe call.
func NewBotAPI(token string, client *http.Client) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return bot, nil
}

type TelegramConfig struct {
	Bot    BotAPI
	ChatID int64
	Logger logging.Logger
}

// Telegram posts to one moderator chat.
type Telegram struct {
	bot    BotAPI
	chatID int64
	logger logging.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Telegram{bot: cfg.Bot, chatID: cfg.ChatID, logger: logger}
}

// ChatID is the moderator chat this notifier writes to.
func (t *Telegram) ChatID() int64 {
	return t.chatID
}

func (t *Telegram) RequestApproval(_ context.Context, a Approval) error {
	msg := tgbotapi.NewMessage(t.chatID, approvalText(a))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = ApprovalKeyboard(a.DraftID)

	sent, err := t.bot.Send(msg)
	if err != nil {
		notificationsTotal.WithLabelValues("telegram", "approval", "error").Inc()
		return fmt.Errorf("send approval request: %w", err)
	}
	notificationsTotal.WithLabelValues("telegram", "approval", "ok").Inc()
	t.logger.WithFields(logging.Fields{
		"draft_id":   a.DraftID,
		"message_id": sent.MessageID,
	}).Info("Telegram notifier: approval request sent")
	return nil
}

func (t *Telegram) Announce(_ context.Context, text string, silent bool) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableNotification = silent
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		notificationsTotal.WithLabelValues("telegram", "announce", "error").Inc()
		return fmt.Errorf("send announcement: %w", err)
	}
	notificationsTotal.WithLabelValues("telegram", "announce", "ok").Inc()
	return nil
}

// Reply answers a command in chatID.
func (t *Telegram) Reply(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press with a short toast.
func (t *Telegram) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// EditMessage replaces the text of a sent message. The inline keyboard is
// dropped because the edit carries none.
func (t *Telegram) EditMessage(_ context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.DisableWebPagePreview = true
	if _, err := t.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// ApprovalKeyboard returns the publish/delete buttons for a draft.
func ApprovalKeyboard(draftID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Publish", CallbackPublish+":"+draftID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", CallbackDelete+":"+draftID),
		),
	)
}

func approvalText(a Approval) string {
	var b strings.Builder
	if a.Pipeline != "" {
		fmt.Fprintf(&b, "📝 New %s draft\n\n", html.EscapeString(a.Pipeline))
	}
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(a.Title))
	if a.Excerpt != "" {
		excerpt := []rune(a.Excerpt)
		if len(excerpt) > maxExcerptChars {
			excerpt = append(excerpt[:maxExcerptChars], '…')
		}
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(string(excerpt)))
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(&b, "\n<i>%s</i>\n", html.EscapeString(strings.Join(a.Tags, ", ")))
	}
	var links []string
	if a.PreviewURL != "" {
		links = append(links, fmt.Sprintf(`<a href="%s">Preview</a>`, html.EscapeString(a.PreviewURL)))
	}
	if a.SourceLink != "" {
		links = append(links, fmt.Sprintf(`<a href="%s">Source</a>`, html.EscapeString(a.SourceLink)))
	}
	if len(links) > 0 {
		fmt.Fprintf(&b, "\n%s\n", strings.Join(links, " · "))
	}
	fmt.Fprintf(&b, "\nID: <code>%s</code>", html.EscapeString(a.DraftID))
	return b.String()
}

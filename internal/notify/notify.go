// Package notify tells a moderator about new drafts and sweep results over
// Telegram, email or the log.
package notify

import (
	"context"
	"strings"

	"portfolio/internal/content"
	"portfolio/pkg/logging"
)

// Callback payload prefixes carried by the approval buttons. The payload is
// "<prefix>:<draft id>".
const (
	CallbackPublish = "publish"
	CallbackDelete  = "delete"
)

// Approval is the moderator-facing summary of one pending draft.
type Approval struct {
	DraftID    string
	Pipeline   string
	Title      string
	Excerpt    string
	Tags       []string
	SourceLink string
	PreviewURL string
	AdminURL   string
}

// NewApproval builds the approval summary for d. Links are omitted when
// siteURL is empty.
func NewApproval(d content.Draft, pipeline, siteURL string) Approval {
	a := Approval{
		DraftID:    d.ID,
		Pipeline:   pipeline,
		Title:      d.Title,
		Excerpt:    d.Excerpt,
		Tags:       d.Tags,
		SourceLink: d.SourceLink,
	}
	if base := strings.TrimRight(siteURL, "/"); base != "" {
		a.PreviewURL = base + "/blog/" + d.Slug + "?preview=1"
		a.AdminURL = base + "/admin/posts/" + d.ID
	}
	return a
}

// Notifier delivers approval requests and informational messages.
type Notifier interface {
	RequestApproval(ctx context.Context, a Approval) error
	// Announce sends free text. Silent asks the channel not to alert.
	Announce(ctx context.Context, text string, silent bool) error
}

// LogNotifier is used when no channel is configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RequestApproval(_ context.Context, a Approval) error {
	n.logger.WithFields(logging.Fields{
		"draft_id": a.DraftID,
		"pipeline": a.Pipeline,
		"title":    a.Title,
		"preview":  a.PreviewURL,
	}).Info("Notifier: draft awaiting approval (no channel configured)")
	notificationsTotal.WithLabelValues("log", "approval", "ok").Inc()
	return nil
}

func (n *LogNotifier) Announce(_ context.Context, text string, silent bool) error {
	n.logger.WithField("silent", silent).Info("Notifier: " + text)
	notificationsTotal.WithLabelValues("log", "announce", "ok").Inc()
	return nil
}

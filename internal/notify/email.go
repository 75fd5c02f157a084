package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"portfolio/pkg/email"
	"portfolio/pkg/logging"
)

// MailSender is satisfied by *email.Sender.
type MailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type EmailConfig struct {
	Sender MailSender
	To     string
	Logger logging.Logger
}

// Email sends approval requests without buttons: the moderator follows the
// admin link or uses the chat commands.
type Email struct {
	sender MailSender
	to     string
	logger logging.Logger
}

func NewEmail(cfg EmailConfig) *Email {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Email{sender: cfg.Sender, to: cfg.To, logger: logger}
}

func (e *Email) RequestApproval(ctx context.Context, a Approval) error {
	body, err := renderApprovalEmail(a)
	if err != nil {
		return fmt.Errorf("render approval email: %w", err)
	}
	err = e.sender.Send(ctx, email.Message{
		To:      e.to,
		Subject: approvalSubject(a),
		HTML:    body,
		Text:    approvalPlainText(a),
	})
	if err != nil {
		notificationsTotal.WithLabelValues("email", "approval", "error").Inc()
		return fmt.Errorf("send approval email: %w", err)
	}
	notificationsTotal.WithLabelValues("email", "approval", "ok").Inc()
	e.logger.WithField("draft_id", a.DraftID).Info("Email notifier: approval request sent")
	return nil
}

// Announce mails the text. Email has no silent delivery, so silent
// announcements are only logged.
func (e *Email) Announce(ctx context.Context, text string, silent bool) error {
	if silent {
		e.logger.Info("Email notifier: " + text)
		return nil
	}
	err := e.sender.Send(ctx, email.Message{
		To:      e.to,
		Subject: "[Autopost] " + firstLine(text),
		HTML:    "<p>" + template.HTMLEscapeString(text) + "</p>",
		Text:    text,
	})
	if err != nil {
		notificationsTotal.WithLabelValues("email", "announce", "error").Inc()
		return fmt.Errorf("send announcement email: %w", err)
	}
	notificationsTotal.WithLabelValues("email", "announce", "ok").Inc()
	return nil
}

func approvalSubject(a Approval) string {
	preview := a.Title
	if r := []rune(preview); len(r) > 60 {
		preview = string(r[:57]) + "..."
	}
	pipeline := "Blog"
	if a.Pipeline != "" {
		pipeline = cases.Title(language.English).String(a.Pipeline)
	}
	return fmt.Sprintf("[Autopost] %s draft: %s", pipeline, preview)
}

func approvalPlainText(a Approval) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.Title)
	if a.Excerpt != "" {
		fmt.Fprintf(&b, "%s\n\n", a.Excerpt)
	}
	if a.PreviewURL != "" {
		fmt.Fprintf(&b, "Preview: %s\n", a.PreviewURL)
	}
	if a.AdminURL != "" {
		fmt.Fprintf(&b, "Review: %s\n", a.AdminURL)
	}
	fmt.Fprintf(&b, "Draft ID: %s\n", a.DraftID)
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func renderApprovalEmail(a Approval) (string, error) {
	tpl, err := template.New("approval").Parse(approvalEmailTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

const approvalEmailTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Draft awaiting approval</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
<div style="max-width: 640px; margin: 0 auto; padding: 24px;">

<div style="background-color: #2c3e50; color: white; padding: 14px 20px; border-radius: 6px; margin-bottom: 20px;">
    <strong>New draft awaiting approval</strong>
</div>

<h2 style="color: #2c3e50;">{{.Title}}</h2>
{{if .Excerpt}}<p>{{.Excerpt}}</p>{{end}}

{{if .Tags}}
<p style="color: #6c757d; font-size: 13px;">{{range $i, $t := .Tags}}{{if $i}}, {{end}}{{$t}}{{end}}</p>
{{end}}

<p>
{{if .PreviewURL}}<a href="{{.PreviewURL}}">Preview</a>{{end}}
{{if .AdminURL}} &middot; <a href="{{.AdminURL}}">Review in admin</a>{{end}}
{{if .SourceLink}} &middot; <a href="{{.SourceLink}}">Source</a>{{end}}
</p>

<p style="color: #6c757d; font-size: 12px; margin-top: 30px;">
    Unreviewed drafts are published automatically after the grace period.<br>
    Draft ID: {{.DraftID}}
</p>

</div>
</body>
</html>`

package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuildHTMLOnly(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Port: "25", From: "bot@example.com", FromName: "Autopost"})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	raw := string(s.build(Message{To: "me@example.com\r\nBcc: evil@example.com", Subject: "Draft\nready", HTML: "<p>hi</p>"}))
	for _, want := range []string{
		"From: Autopost <bot@example.com>\r\n",
		"To: me@example.comBcc: evil@example.com\r\n",
		"Subject: Draftready\r\n",
		"Date: Sun, 01 Mar 2026 09:00:00 +0000\r\n",
		"@example.com>\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestBuildMultipart(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", From: "bot@example.com"})
	raw := string(s.build(Message{To: "me@example.com", Subject: "s", HTML: "<p>hi</p>", Text: "hi"}))
	if !strings.Contains(raw, "multipart/alternative") {
		t.Fatalf("expected multipart body:\n%s", raw)
	}
	if strings.Index(raw, "text/plain") > strings.Index(raw, "text/html") {
		t.Fatalf("plain part must precede html part")
	}
}

func TestSendRequiresConfig(t *testing.T) {
	if err := NewSender(Config{}).Send(context.Background(), Message{To: "x"}); err == nil {
		t.Fatalf("expected error without configuration")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.local")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_FROM", "bot@local")
	cfg := LoadConfig()
	if cfg.Port != "587" || !cfg.Enabled() {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

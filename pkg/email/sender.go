package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio/pkg/config"
)

const dialTimeout = 15 * time.Second

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	// From is the SMTP envelope sender (MAIL FROM). This should be a raw mailbox address.
	From string
	// FromName is an optional display name used only for the message header.
	FromName string
}

// LoadConfig reads SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM
// and SMTP_FROM_NAME.
func LoadConfig() Config {
	return Config{
		Host:     config.GetEnv("SMTP_HOST", ""),
		Port:     config.GetEnv("SMTP_PORT", "587"),
		User:     config.GetEnv("SMTP_USER", ""),
		Password: config.GetEnv("SMTP_PASSWORD", ""),
		From:     config.GetEnv("SMTP_FROM", ""),
		FromName: config.GetEnv("SMTP_FROM_NAME", "Autopost"),
	}
}

// Enabled reports whether enough is configured to attempt delivery.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// Message is one HTML mail with an optional plain-text alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Sender struct {
	config Config
	auth   smtp.Auth
	now    func() time.Time
}

func NewSender(config Config) *Sender {
	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}
	return &Sender{config: config, auth: auth, now: time.Now}
}

// Send delivers msg, upgrading to TLS when the server offers STARTTLS.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if !s.config.Enabled() {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(s.config.Host, s.config.Port)

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(nil); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	to := sanitizeHeader(msg.To)
	if errMail := c.Mail(s.config.From); errMail != nil {
		return fmt.Errorf("mail from: %w", errMail)
	}
	if errRcpt := c.Rcpt(to); errRcpt != nil {
		return fmt.Errorf("rcpt to: %w", errRcpt)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(s.build(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return c.Quit()
}

func (s *Sender) build(msg Message) []byte {
	fromHeader := s.config.From
	if strings.TrimSpace(s.config.FromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	domain := "localhost"
	if at := strings.LastIndex(s.config.From, "@"); at >= 0 {
		domain = s.config.From[at+1:]
	}

	headers := []string{
		"From: " + sanitizeHeader(fromHeader),
		"To: " + sanitizeHeader(msg.To),
		"Subject: " + sanitizeHeader(msg.Subject),
		"Date: " + s.now().UTC().Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%s@%s>", uuid.NewString(), domain),
		"MIME-Version: 1.0",
	}

	if msg.Text == "" {
		lines := append(headers, "Content-Type: text/html; charset=UTF-8", "", msg.HTML)
		return []byte(strings.Join(lines, "\r\n"))
	}

	boundary := "alt-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	lines := append(headers,
		fmt.Sprintf(`Content-Type: multipart/alternative; boundary="%s"`, boundary),
		"",
		"--"+boundary,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		msg.Text,
		"--"+boundary,
		"Content-Type: text/html; charset=UTF-8",
		"",
		msg.HTML,
		"--"+boundary+"--",
		"",
	)
	return []byte(strings.Join(lines, "\r\n"))
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

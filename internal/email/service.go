// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

// NewService creates a new email service
func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// Message is a single outgoing email.
type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	Text     string
	HTMLBody string
}

// Send delivers msg as multipart/alternative when it has an HTML body, plain text otherwise.
func (s *Service) Send(msg Message) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", headerValue(s.config.FromName), s.config.From)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", headerValue(strings.Join(msg.To, ", ")))
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", headerValue(msg.ReplyTo))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", headerValue(msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		fmt.Fprintf(&buf, "%s\r\n", msg.Text)
		return s.send(s.server, s.auth, s.config.From, msg.To, buf.Bytes())
	}

	boundary := "boundary-portfolio"
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&buf, "\r\n")

	// Plain text part (fallback)
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.Text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.HTMLBody)
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, msg.To, buf.Bytes())
}

// ContactNotificationData holds data for the contact form notification
type ContactNotificationData struct {
	SiteName   string
	Name       string
	Email      string
	Message    string
	ReceivedAt time.Time
}

// SendContactNotification forwards a contact form submission to the site owner.
// Replies go straight to the visitor.
func (s *Service) SendContactNotification(to string, data ContactNotificationData) error {
	if data.SiteName == "" {
		data.SiteName = "Portfolio"
	}
	html, err := renderTemplate(contactNotificationTemplate, data)
	if err != nil {
		return fmt.Errorf("render contact template: %w", err)
	}
	text := fmt.Sprintf("New message from %s <%s>\r\n\r\n%s", data.Name, data.Email, data.Message)

	return s.Send(Message{
		To:       []string{to},
		ReplyTo:  data.Email,
		Subject:  fmt.Sprintf("[%s] New message from %s", data.SiteName, data.Name),
		Text:     text,
		HTMLBody: html,
	})
}

func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const contactNotificationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New message on {{.SiteName}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .message { background: #f5f7fa; padding: 16px; border-radius: 4px; white-space: pre-wrap; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.SiteName}}</h1>
    </div>

    <h2>New message from {{.Name}}</h2>
    <p><a href="mailto:{{.Email}}">{{.Email}}</a></p>

    <div class="message">{{.Message}}</div>

    <div class="footer">
        <p>Received {{.ReceivedAt.Format "Jan 2, 2006 15:04 MST"}} via the contact form. Reply to this email to answer.</p>
    </div>
</body>
</html>`

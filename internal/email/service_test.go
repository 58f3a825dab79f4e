package email

import (
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func captureService(t *testing.T) (*Service, *[]sentMail) {
	t.Helper()
	svc := NewService(Config{Host: "smtp.example.com", Port: "2525", From: "site@example.com", FromName: "Portfolio"})
	var sent []sentMail
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return svc, &sent
}

func TestSendRequiresConfiguration(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.Send(Message{To: []string{"a@example.com"}}); err == nil {
		t.Fatal("expected error when not configured")
	}
}

func TestSendPlainText(t *testing.T) {
	svc, sent := captureService(t)
	if err := svc.Send(Message{To: []string{"owner@example.com"}, Subject: "Hi", Text: "body"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(*sent))
	}
	mail := (*sent)[0]
	if mail.addr != "smtp.example.com:2525" || mail.from != "site@example.com" {
		t.Errorf("unexpected envelope %+v", mail)
	}
	if !strings.Contains(mail.msg, "Content-Type: text/plain") || strings.Contains(mail.msg, "multipart") {
		t.Error("expected single-part plain text message")
	}
}

func TestSendContactNotification(t *testing.T) {
	svc, sent := captureService(t)
	err := svc.SendContactNotification("owner@example.com", ContactNotificationData{
		Name:       "Jane\r\nBcc: evil@example.com",
		Email:      "jane@example.com",
		Message:    "Hello <b>there</b>",
		ReceivedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SendContactNotification: %v", err)
	}
	msg := (*sent)[0].msg

	if !strings.Contains(msg, "Reply-To: jane@example.com") {
		t.Error("missing Reply-To header")
	}
	headers := strings.SplitN(msg, "\r\n\r\n", 2)[0]
	if strings.Contains(headers, "\r\nBcc:") {
		t.Error("header injection not neutralised")
	}
	if !strings.Contains(msg, "[Portfolio] New message from Jane") {
		t.Error("unexpected subject")
	}
	if !strings.Contains(msg, "Hello &lt;b&gt;there&lt;/b&gt;") {
		t.Error("html part should escape the message")
	}
	if !strings.Contains(msg, "multipart/alternative") {
		t.Error("expected multipart message")
	}
}

func TestRenderContactTemplate(t *testing.T) {
	html, err := renderTemplate(contactNotificationTemplate, ContactNotificationData{
		SiteName:   "Portfolio",
		Name:       "Test User",
		Email:      "test@example.com",
		Message:    "Let's talk",
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if !strings.Contains(html, "Test User") {
		t.Error("template should contain sender name")
	}
	if !strings.Contains(html, "mailto:test@example.com") {
		t.Error("template should link the sender email")
	}
}

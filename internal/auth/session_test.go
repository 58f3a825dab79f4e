package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGate() *Gate {
	g := NewGate(StaticCredentials{Username: "admin", Password: "pw"}, GateOptions{})
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return g
}

func TestLoginSetsSessionCookie(t *testing.T) {
	g := newTestGate()

	cookie, err := g.Login("admin", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if cookie.Name != CookieName {
		t.Errorf("cookie name = %q", cookie.Name)
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Secure {
		t.Errorf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != 604800 {
		t.Errorf("MaxAge = %d, want 604800", cookie.MaxAge)
	}
	if cookie.Value != "YWRtaW46MTcwMDAwMDAwMDAwMA==" {
		t.Errorf("token = %q", cookie.Value)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	g := newTestGate()
	if _, err := g.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := NewGate(nil, GateOptions{}).Login("admin", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("nil verifier should reject, got %v", err)
	}
}

func TestSecureCookieOption(t *testing.T) {
	g := NewGate(StaticCredentials{Username: "admin", Password: "pw"}, GateOptions{Secure: true, TTL: time.Hour})
	cookie, err := g.Login("admin", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !cookie.Secure || cookie.MaxAge != 3600 {
		t.Errorf("unexpected cookie %+v", cookie)
	}
}

func TestCheckSession(t *testing.T) {
	g := newTestGate()

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   bool
	}{
		{"no cookie", nil, false},
		{"empty cookie", &http.Cookie{Name: CookieName, Value: ""}, false},
		{"any value", &http.Cookie{Name: CookieName, Value: "anything"}, true},
		{"other cookie", &http.Cookie{Name: "other", Value: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := g.CheckSession(req); got != tt.want {
				t.Errorf("CheckSession() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	cookie := newTestGate().Logout()
	if cookie.Name != CookieName || cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("unexpected logout cookie %+v", cookie)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issued := time.UnixMilli(1700000000123)
	username, at, ok := ParseToken(IssueToken("ad:min", issued))
	if !ok {
		t.Fatal("ParseToken failed")
	}
	if username != "ad:min" || !at.Equal(issued) {
		t.Errorf("got %q %v", username, at)
	}
	if _, _, ok := ParseToken("%%%"); ok {
		t.Error("garbage should not parse")
	}
}

func TestSessionUser(t *testing.T) {
	g := newTestGate()
	cookie, _ := g.Login("admin", "pw")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if got := g.SessionUser(req); got != "admin" {
		t.Errorf("SessionUser() = %q", got)
	}
}

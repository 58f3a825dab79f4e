package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieName is the session cookie set on successful login.
const CookieName = "admin_session"

// DefaultSessionTTL is the cookie lifetime when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

// Gate issues and checks the admin session cookie. It keeps no server-side
// state: a session exists while the browser holds a non-empty cookie.
type Gate struct {
	verifier CredentialVerifier
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

type GateOptions struct {
	TTL    time.Duration
	Secure bool
}

func NewGate(verifier CredentialVerifier, opts GateOptions) *Gate {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Gate{
		verifier: verifier,
		ttl:      ttl,
		secure:   opts.Secure,
		now:      time.Now,
	}
}

// Login verifies the credentials and returns the session cookie to set.
func (g *Gate) Login(username, password string) (*http.Cookie, error) {
	if g.verifier == nil || !g.verifier.Verify(username, password) {
		return nil, ErrInvalidCredentials
	}
	return g.cookie(IssueToken(username, g.now()), int(g.ttl/time.Second)), nil
}

// CheckSession reports whether the request carries a non-empty session cookie.
// The token content is not verified.
func (g *Gate) CheckSession(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	return err == nil && cookie.Value != ""
}

// Logout returns a cookie that clears the session in the browser.
func (g *Gate) Logout() *http.Cookie {
	return g.cookie("", -1)
}

// SessionUser returns the username encoded in the request's token, if any.
// Only used for attribution in logs.
func (g *Gate) SessionUser(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	username, _, ok := ParseToken(cookie.Value)
	if !ok {
		return ""
	}
	return username
}

func (g *Gate) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// IssueToken encodes "username:unixMillis" in standard base64.
func IssueToken(username string, issuedAt time.Time) string {
	raw := username + ":" + strconv.FormatInt(issuedAt.UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// ParseToken decodes a token produced by IssueToken.
func ParseToken(token string) (string, time.Time, bool) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", time.Time{}, false
	}
	idx := strings.LastIndex(string(decoded), ":")
	if idx <= 0 {
		return "", time.Time{}, false
	}
	millis, err := strconv.ParseInt(string(decoded[idx+1:]), 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return string(decoded[:idx]), time.UnixMilli(millis), true
}

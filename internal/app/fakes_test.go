package app

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"portfolio/api/internal/auth"
	"portfolio/api/internal/config"
	"portfolio/api/internal/email"
	"portfolio/api/internal/kv"
	"portfolio/api/internal/media"
	"portfolio/api/internal/portfolio"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
)

const (
	testKey      = "portfolio:data"
	testUser     = "admin"
	testPassword = "s3cret"
)

func testDefaults() portfolio.Document {
	return portfolio.Document{
		Hero: portfolio.Hero{Name: "Default Person", Title: "Engineer"},
		About: portfolio.About{
			Bio:            "Default bio",
			Achievements:   []portfolio.Achievement{},
			Timeline:       []portfolio.TimelineEntry{},
			Certifications: []portfolio.Certification{},
		},
		Projects: []portfolio.Project{
			{ID: "alpha", Title: "Alpha Tracker", Description: "Tracks alphas", Technologies: []string{"Go", "Redis"}, Featured: true},
			{ID: "beta", Title: "Beta Board", Description: "A kanban board", Technologies: []string{"TypeScript"}},
		},
		Skills: portfolio.Skills{Categories: []portfolio.SkillCategory{
			{ID: "backend", Title: "Backend", Skills: []portfolio.Skill{{Name: "Go", Level: 90}}},
		}},
		Contact: portfolio.Contact{Email: "default@example.com"},
	}
}

func newTestKV(t *testing.T) (*kv.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return kv.NewRedisStoreWithClient(client), mr
}

func newTestService(t *testing.T, deps Dependencies) *Service {
	t.Helper()
	return New(config.Config{KVKey: testKey, ContactToEmail: "owner@example.com"}, testDefaults(), deps)
}

func newTestGate() *auth.Gate {
	return auth.NewGate(auth.StaticCredentials{Username: testUser, Password: testPassword}, auth.GateOptions{})
}

func newTestHTTPServer(t *testing.T, svc *Service) *HTTPServer {
	t.Helper()
	return NewHTTPServer(svc, newTestGate(), "*", nil)
}

// racingDocuments runs afterGet once a read has returned, simulating a write
// that lands between the read and whatever the caller does next.
type racingDocuments struct {
	*kv.RedisStore
	afterGet func()
}

func (r *racingDocuments) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.RedisStore.Get(ctx, key)
	if r.afterGet != nil {
		r.afterGet()
	}
	return raw, err
}

type fakeMessages struct {
	insertFn   func(context.Context, store.ContactMessage) error
	listFn     func(context.Context, bool, int) ([]store.ContactMessage, error)
	markReadFn func(context.Context, string) error
	pingFn     func(context.Context) error

	mu       sync.Mutex
	inserted []store.ContactMessage
}

func (f *fakeMessages) InsertContactMessage(ctx context.Context, msg store.ContactMessage) error {
	if f.insertFn != nil {
		if err := f.insertFn(ctx, msg); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeMessages) ListContactMessages(ctx context.Context, unreadOnly bool, limit int) ([]store.ContactMessage, error) {
	if f.listFn != nil {
		return f.listFn(ctx, unreadOnly, limit)
	}
	return nil, nil
}

func (f *fakeMessages) MarkContactMessageRead(ctx context.Context, id string) error {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, id)
	}
	return nil
}

func (f *fakeMessages) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeMailer struct {
	configured bool
	sendFn     func(string, email.ContactNotificationData) error

	sent []email.ContactNotificationData
	to   []string
}

func (f *fakeMailer) IsConfigured() bool {
	return f.configured
}

func (f *fakeMailer) SendContactNotification(to string, data email.ContactNotificationData) error {
	if f.sendFn != nil {
		if err := f.sendFn(to, data); err != nil {
			return err
		}
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, data)
	return nil
}

type fakeSearch struct {
	mu        sync.Mutex
	reindexed [][]portfolio.Project
}

func (f *fakeSearch) Search(projects []portfolio.Project, q search.Query) search.Response {
	results, total := search.MatchProjects(search.Records(projects), q)
	return search.Response{Results: results, Total: total, Query: q.Text, Backend: "fake"}
}

func (f *fakeSearch) Reindex(projects []portfolio.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reindexed = append(f.reindexed, projects)
}

func (f *fakeSearch) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reindexed)
}

type fakeMedia struct {
	putFn func(context.Context, io.Reader) (media.Upload, error)
}

func (f *fakeMedia) Put(ctx context.Context, r io.Reader) (media.Upload, error) {
	return f.putFn(ctx, r)
}

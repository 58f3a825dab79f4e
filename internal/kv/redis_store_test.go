package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	if !store.Configured() {
		t.Fatal("expected configured store")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore("http://not-redis"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSetAndGet(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Set(ctx, "portfolio:data", []byte(`{"hero":{}}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get(ctx, "portfolio:data")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"hero":{}}` {
		t.Errorf("unexpected value %q", got)
	}
	if ttl := s.TTL("portfolio:data"); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}
}

func TestSetOverwrites(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("first"))
	_ = store.Set(ctx, "k", []byte("second"))

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected last write to win, got %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	store, _ := setupTestRedis(t)
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnconfiguredStore(t *testing.T) {
	store, err := NewRedisStore("")
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	ctx := context.Background()

	if store.Configured() {
		t.Fatal("expected unconfigured store")
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Get: expected ErrNotConfigured, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v")); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Set: expected ErrNotConfigured, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping: expected ErrNotConfigured, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBackendFailure(t *testing.T) {
	store, s := setupTestRedis(t)
	s.SetError("LOADING dataset in memory")

	_, err := store.Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if err := store.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Fatal("expected set to fail")
	}
}

func TestNewRedisStoreWithClient(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	store := NewRedisStoreWithClient(client)
	defer store.Close()

	if err := store.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := s.Get("k"); got != "v" {
		t.Errorf("expected value in miniredis, got %q", got)
	}
}

func TestSetIfAbsent(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := store.SetIfAbsent(ctx, "portfolio:data", []byte(`"first"`))
	if err != nil || !ok {
		t.Fatalf("first SetIfAbsent = %v, %v", ok, err)
	}
	ok, err = store.SetIfAbsent(ctx, "portfolio:data", []byte(`"second"`))
	if err != nil || ok {
		t.Fatalf("second SetIfAbsent = %v, %v", ok, err)
	}
	got, _ := store.Get(ctx, "portfolio:data")
	if string(got) != `"first"` {
		t.Errorf("value = %s, want first write kept", got)
	}
}

func TestCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		initial string
		old     string
		swapped bool
		want    string
	}{
		{name: "matching value", initial: "null", old: "null", swapped: true, want: "new"},
		{name: "changed value", initial: "other", old: "null", swapped: false, want: "other"},
		{name: "missing key", old: "null", swapped: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, s := setupTestRedis(t)
			if tt.initial != "" {
				if err := s.Set("portfolio:data", tt.initial); err != nil {
					t.Fatal(err)
				}
			}
			swapped, err := store.CompareAndSwap(ctx, "portfolio:data", []byte(tt.old), []byte("new"))
			if err != nil {
				t.Fatalf("CompareAndSwap: %v", err)
			}
			if swapped != tt.swapped {
				t.Errorf("swapped = %v, want %v", swapped, tt.swapped)
			}
			got, _ := s.Get("portfolio:data")
			if got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConditionalWritesRequireConfiguration(t *testing.T) {
	store, _ := NewRedisStore("")
	ctx := context.Background()
	if _, err := store.SetIfAbsent(ctx, "k", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SetIfAbsent err = %v", err)
	}
	if _, err := store.CompareAndSwap(ctx, "k", nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CompareAndSwap err = %v", err)
	}
}

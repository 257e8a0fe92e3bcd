package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/graphlayout/pkg/config"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = %q, %v, want miss", data, hit)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "layout:x"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "layout:x", []byte(`{"a":1}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:x")
	if err != nil || !hit {
		t.Fatalf("Get() hit = %v, err = %v", hit, err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Get() = %s", data)
	}

	if err := c.Delete(ctx, "layout:x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:x"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "layout:x"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry reported a hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() hit = %v, err = %v, want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone
	c, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(none): %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open(none) = %T, want NullCache", c)
	}

	cfg.Cache.Backend = config.BackendFile
	cfg.Cache.Dir = t.TempDir()
	c, err = Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != cfg.Cache.Dir {
		t.Errorf("Open(file) = %#v", c)
	}

	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisURL = "http://not-redis"
	if c, err := Open(ctx, cfg); err == nil || c != nil {
		t.Errorf("Open(redis, bad url) = %v, %v, want error", c, err)
	}

	cfg.Cache.Backend = config.BackendMongo
	cfg.Cache.MongoURI = "not-a-uri"
	if c, err := Open(ctx, cfg); err == nil || c != nil {
		t.Errorf("Open(mongo, bad uri) = %v, %v, want error", c, err)
	}

	cfg.Cache.Backend = "memcached"
	if _, err := Open(ctx, cfg); err == nil {
		t.Error("Open(memcached) should fail")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := LayoutKeyOpts{Algorithm: "spring", Rigidity: 2, Timeout: 2 * time.Second, Seed: 42}
	variants := []LayoutKeyOpts{
		{Algorithm: "forest", Rigidity: 2, Timeout: 2 * time.Second, Seed: 42},
		{Algorithm: "spring", Rigidity: 3, Timeout: 2 * time.Second, Seed: 42},
		{Algorithm: "spring", Rigidity: 2, Timeout: time.Second, Seed: 42},
		{Algorithm: "spring", Rigidity: 2, Timeout: 2 * time.Second, Seed: 7},
		{Algorithm: "spring", Rigidity: 2, Timeout: 2 * time.Second, Seed: 42, Roots: []string{"a"}},
		{Algorithm: "spring", Rigidity: 2, Timeout: 2 * time.Second, Seed: 42, RecordShift: true},
		{Algorithm: "spring", Rigidity: 2, Timeout: 2 * time.Second, Seed: 42, Incremental: true},
	}
	baseKey := k.LayoutKey("h", base)
	if !strings.HasPrefix(baseKey, "layout:") {
		t.Errorf("LayoutKey() = %q, want layout: prefix", baseKey)
	}
	for _, v := range variants {
		if k.LayoutKey("h", v) == baseKey {
			t.Errorf("LayoutKey(%+v) collides with base", v)
		}
	}
	if k.LayoutKey("other", base) == baseKey {
		t.Error("different graph hashes should produce different keys")
	}

	withEmpty := base
	withEmpty.Roots = []string{}
	if k.LayoutKey("h", withEmpty) != baseKey {
		t.Error("nil and empty roots should produce the same key")
	}

	if k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) == k.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"}) {
		t.Error("different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "staging:")
	key := scoped.LayoutKey("abc", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "staging:layout:") {
		t.Errorf("LayoutKey() = %q, want staging:layout: prefix", key)
	}
	if !strings.HasPrefix(scoped.ArtifactKey("abc", ArtifactKeyOpts{}), "staging:artifact:") {
		t.Error("ArtifactKey() not prefixed")
	}
}

func TestKeyerFor(t *testing.T) {
	opts := ArtifactKeyOpts{Format: "svg"}
	plain := KeyerFor(config.Cache{}).ArtifactKey("abc", opts)
	if plain != NewDefaultKeyer().ArtifactKey("abc", opts) {
		t.Errorf("KeyerFor(no prefix) = %q, want the default key", plain)
	}
	if got := KeyerFor(config.Cache{KeyPrefix: "ci:"}).ArtifactKey("abc", opts); got != "ci:"+plain {
		t.Errorf("KeyerFor(ci:) = %q, want %q", got, "ci:"+plain)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should match ErrUnavailable")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		fail      int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"Success", 0, nil, 1, nil},
		{"Permanent", 5, permanent, 1, permanent},
		{"RecoversOnRetry", 1, Retryable(ErrUnavailable), 2, nil},
		{"GivesUp", 5, Retryable(ErrUnavailable), 3, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.fail {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	c := NewRedisCacheFromClient(client)
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "layout:abc")
	if err == nil || ok {
		t.Fatalf("Get() = %v, %v, want connection error", ok, err)
	}
	if !IsRetryable(err) {
		t.Errorf("Get() error %v should be retryable", err)
	}
}

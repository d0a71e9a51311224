package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginMessage = "Too many login attempts. Please try again in 15 minutes."

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string) (Window, error) {
	return Window{}, errors.New("redis unavailable")
}

func newLoginLimiter(store WindowStore, clock *fakeClock) *FixedWindowLimiter {
	l := NewFixedWindowLimiter(FixedWindowConfig{
		Name:    "login",
		Limit:   5,
		Window:  15 * time.Minute,
		Message: loginMessage,
	}, store, nil)
	if clock != nil {
		l.now = clock.Now
	}
	return l
}

func doLogin(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestFixedWindowLimiter_SixthAttemptRejected(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newMemoryStore(15*time.Minute, clock.Now)

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	h := newLoginLimiter(store, clock).Middleware(next)

	for i := 1; i <= 5; i++ {
		rr := doLogin(t, h, "10.0.0.1:5555")
		require.Equal(t, http.StatusOK, rr.Code, "попытка %d", i)
		assert.Equal(t, "5", rr.Header().Get("RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(5-i), rr.Header().Get("RateLimit-Remaining"))
		assert.Equal(t, "900", rr.Header().Get("RateLimit-Reset"))
	}

	rr := doLogin(t, h, "10.0.0.1:6666")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 5, calls, "обработчик входа не должен вызываться на шестой попытке")
	assert.Equal(t, "0", rr.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, "900", rr.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, loginMessage, body["error"])

	// Другой адрес считается отдельно
	assert.Equal(t, http.StatusOK, doLogin(t, h, "10.0.0.2:1234").Code)

	// После закрытия окна счетчик начинается заново
	clock.Advance(15 * time.Minute)
	assert.Equal(t, http.StatusOK, doLogin(t, h, "10.0.0.1:5555").Code)
	assert.Equal(t, 7, calls)
}

func TestFixedWindowLimiter_StoreFailureFailsOpen(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rr := doLogin(t, newLoginLimiter(failingStore{}, nil).Middleware(next), "10.0.0.1:1")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

func TestMemoryStore_ConcurrentHits(t *testing.T) {
	store := newMemoryStore(time.Minute, time.Now)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Hit(ctx, "1.2.3.4")
		}()
	}
	wg.Wait()

	w, err := store.Hit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(101), w.Count)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newMemoryStore(time.Minute, clock.Now)
	ctx := context.Background()

	_, _ = store.Hit(ctx, "a")
	clock.Advance(30 * time.Second)
	_, _ = store.Hit(ctx, "b")
	clock.Advance(31 * time.Second)

	store.cleanup()
	assert.Equal(t, 1, store.Len(), "окно 'a' истекло, окно 'b' еще открыто")
}

func TestMemoryStore_StopIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Millisecond)
	store.Stop()
	store.Stop()
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStore_Hit(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 15*time.Minute, "ratelimit:login:")
	ctx := context.Background()

	for i := int64(1); i <= 6; i++ {
		w, err := store.Hit(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, i, w.Count)
	}

	// Срок жизни ставится только при создании ключа и не продлевается последующими попаданиями
	ttl := mr.TTL("ratelimit:login:10.0.0.1")
	assert.Equal(t, 15*time.Minute, ttl)

	mr.FastForward(15 * time.Minute)
	w, err := store.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Count)
}

func TestRedisStore_KeyWithoutTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 15*time.Minute, "rl:")

	// Ключ остался без срока жизни (например, после ручной правки)
	require.NoError(t, mr.Set("rl:10.0.0.2", "3"))

	w, err := store.Hit(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, int64(4), w.Count)
	assert.Equal(t, 15*time.Minute, mr.TTL("rl:10.0.0.2"))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), w.ResetAt, time.Minute)
}

func TestRedisStore_SharedBetweenLimiters(t *testing.T) {
	client, _ := setupTestRedis(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	// Два экземпляра сервера с общим Redis
	first := newLoginLimiter(NewRedisStore(client, 15*time.Minute, "rl:"), nil).Middleware(next)
	second := newLoginLimiter(NewRedisStore(client, 15*time.Minute, "rl:"), nil).Middleware(next)

	for i := range 5 {
		h := first
		if i%2 == 1 {
			h = second
		}
		require.Equal(t, http.StatusOK, doLogin(t, h, "10.0.0.9:1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doLogin(t, second, "10.0.0.9:1").Code)
}

func TestRedisStore_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedisStore(client, time.Minute, "rl:").Hit(context.Background(), "x")
	require.Error(t, err)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:4000"
	assert.Equal(t, "192.168.1.1", ClientIP(req))

	req.RemoteAddr = "192.168.1.2"
	assert.Equal(t, "192.168.1.2", ClientIP(req))
}

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/maynagashev/autojob/internal/metrics"
)

// Window - состояние окна ограничителя для одного ключа.
type Window struct {
	Count   int64     // Число попаданий в текущем окне, включая текущее
	ResetAt time.Time // Момент закрытия окна
}

// WindowStore атомарно учитывает попадание в окно для ключа.
type WindowStore interface {
	Hit(ctx context.Context, key string) (Window, error)
}

// FixedWindowConfig содержит параметры ограничителя с фиксированным окном.
type FixedWindowConfig struct {
	Name    string        // Имя для логов и метрик
	Limit   int64         // Сколько запросов пропускается за окно
	Window  time.Duration // Длина окна
	Message string        // Текст ответа 429
}

// FixedWindowLimiter ограничивает число запросов с одного адреса за фиксированное окно.
type FixedWindowLimiter struct {
	config  FixedWindowConfig
	store   WindowStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewFixedWindowLimiter создает ограничитель поверх хранилища окон.
func NewFixedWindowLimiter(config FixedWindowConfig, store WindowStore, rec metrics.Recorder) *FixedWindowLimiter {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &FixedWindowLimiter{config: config, store: store, metrics: rec, now: time.Now}
}

// Middleware пропускает первые Limit запросов окна и отвечает 429 на остальные.
// Ошибка хранилища не блокирует запрос.
func (l *FixedWindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIP(r)

		win, err := l.store.Hit(r.Context(), key)
		if err != nil {
			slog.Error("[RateLimit] Ошибка хранилища окон, запрос пропущен",
				slog.String("limiter", l.config.Name),
				slog.Any("error", err),
			)
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.config.Limit - win.Count
		if remaining < 0 {
			remaining = 0
		}
		resetSec := secondsUntil(l.now(), win.ResetAt)

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.FormatInt(l.config.Limit, 10))
		h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		h.Set("RateLimit-Reset", strconv.Itoa(resetSec))

		if win.Count > l.config.Limit {
			h.Set("Retry-After", strconv.Itoa(resetSec))
			slog.Warn("[RateLimit] Превышен лимит",
				slog.String("limiter", l.config.Name),
				slog.String("ip", key),
				slog.Int64("count", win.Count),
			)
			l.metrics.RecordRateLimited(l.config.Name)
			writeError(w, http.StatusTooManyRequests, l.config.Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP возвращает адрес клиента из RemoteAddr. За доверенным прокси его заранее подставляет middleware.RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func secondsUntil(now, t time.Time) int {
	sec := int(math.Ceil(t.Sub(now).Seconds()))
	if sec < 1 {
		sec = 1
	}
	return sec
}

var _ WindowStore = (*MemoryStore)(nil)

// MemoryStore хранит окна в памяти процесса.
// Подходит для одного экземпляра сервера; для нескольких нужен RedisStore.
type MemoryStore struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*Window

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore создает хранилище и запускает фоновую очистку истекших окон.
// cleanupInterval <= 0 отключает очистку.
func NewMemoryStore(window, cleanupInterval time.Duration) *MemoryStore {
	s := newMemoryStore(window, time.Now)
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func newMemoryStore(window time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		window:  window,
		now:     now,
		windows: make(map[string]*Window),
		stopCh:  make(chan struct{}),
	}
}

// Hit учитывает попадание. Истекшее окно заменяется новым, начинающимся сейчас.
func (s *MemoryStore) Hit(_ context.Context, key string) (Window, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.ResetAt) {
		w = &Window{ResetAt: now.Add(s.window)}
		s.windows[key] = w
	}
	w.Count++
	return *w, nil
}

// Len возвращает число хранимых окон.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup удаляет окна, которые уже закрылись.
func (s *MemoryStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.windows {
		if !now.Before(w.ResetAt) {
			delete(s.windows, key)
		}
	}
}

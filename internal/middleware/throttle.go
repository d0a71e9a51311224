package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/maynagashev/autojob/internal/metrics"
	"golang.org/x/time/rate"
)

const msgTooManyRequests = "Too many requests."

// ipLimiter хранит token bucket адреса и время последнего обращения.
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle - общий ограничитель частоты запросов к API по адресу клиента (token bucket).
type Throttle struct {
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	metrics metrics.Recorder

	mu       sync.RWMutex
	limiters map[string]*ipLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewThrottle создает ограничитель и запускает очистку давно неактивных адресов.
func NewThrottle(perSec float64, burst int, cleanupInterval time.Duration, rec metrics.Recorder) *Throttle {
	if rec == nil {
		rec = metrics.Nop{}
	}
	t := &Throttle{
		rate:     rate.Limit(perSec),
		burst:    burst,
		ttl:      cleanupInterval * 2,
		metrics:  rec,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go t.cleanupLoop(cleanupInterval)
	}
	return t
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (t *Throttle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// Middleware отвечает 429, когда у адреса закончились токены.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !t.limiterFor(ip).Allow() {
			retryAfter := int(math.Ceil(1.0 / float64(t.rate)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			slog.Warn("[Throttle] Превышена частота запросов", slog.String("ip", ip))
			t.metrics.RecordRateLimited("api")
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len возвращает число отслеживаемых адресов.
func (t *Throttle) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.limiters)
}

func (t *Throttle) limiterFor(ip string) *rate.Limiter {
	t.mu.RLock()
	l, exists := t.limiters[ip]
	t.mu.RUnlock()

	if exists {
		t.mu.Lock()
		l.lastAccess = time.Now()
		t.mu.Unlock()
		return l.limiter
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Двойная проверка
	if l, exists = t.limiters[ip]; exists {
		l.lastAccess = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(t.rate, t.burst)
	t.limiters[ip] = &ipLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (t *Throttle) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stopCh:
			return
		}
	}
}

func (t *Throttle) cleanup() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	for ip, l := range t.limiters {
		if now.Sub(l.lastAccess) > t.ttl {
			delete(t.limiters, ip)
		}
	}
}

// Package metrics собирает метрики Prometheus и отдает их по /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы операций для меток.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Recorder - интерфейс записи метрик для сервисов и middleware.
type Recorder interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordUpload(outcome string)
	RecordStaleFileCleanupFailure()
	RecordRateLimited(limiter string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

var _ Recorder = (*Collector)(nil)

// Collector реализует Recorder на счетчиках Prometheus.
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	cleanupFails  prometheus.Counter
	rateLimited   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector создает Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autojob_registrations_total",
			Help: "Попытки регистрации по исходу",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autojob_logins_total",
			Help: "Попытки входа по исходу",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autojob_cv_uploads_total",
			Help: "Загрузки резюме по исходу",
		}, []string{"outcome"}),
		cleanupFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autojob_cv_cleanup_failures_total",
			Help: "Неудачные удаления вытесненных файлов резюме",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autojob_rate_limited_total",
			Help: "Запросы, отклоненные ограничителем частоты",
		}, []string{"limiter"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autojob_http_requests_total",
			Help: "HTTP-запросы по методу, маршруту и статусу",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autojob_http_request_duration_seconds",
			Help:    "Длительность обработки HTTP-запросов",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.uploads,
		c.cleanupFails,
		c.rateLimited,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStaleFileCleanupFailure() {
	c.cleanupFails.Inc()
}

func (c *Collector) RecordRateLimited(limiter string) {
	c.rateLimited.WithLabelValues(limiter).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler возвращает HTTP-обработчик для скрейпа Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop - Recorder, который ничего не делает.
type Nop struct{}

func (Nop) RecordRegistration(string)                            {}
func (Nop) RecordLogin(string)                                   {}
func (Nop) RecordUpload(string)                                  {}
func (Nop) RecordStaleFileCleanupFailure()                       {}
func (Nop) RecordRateLimited(string)                             {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

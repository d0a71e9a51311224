package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// Pinger проверяет доступность базы данных.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse - ответ GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime,omitempty"` // Секунды с момента запуска
	Error     string    `json:"error,omitempty"`
}

// HealthHandler сообщает о состоянии сервера и БД.
type HealthHandler struct {
	db         Pinger
	production bool
	startedAt  time.Time
	now        func() time.Time
}

// NewHealthHandler создает новый экземпляр HealthHandler.
func NewHealthHandler(db Pinger, production bool) *HealthHandler {
	return &HealthHandler{db: db, production: production, startedAt: time.Now(), now: time.Now}
}

// Check отвечает 200, если БД доступна, иначе 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	now := h.now()
	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("[HealthHandler] База данных недоступна", slog.Any("error", err))
		resp := HealthResponse{Status: "unavailable", Timestamp: now}
		if !h.production {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  "connected",
		Timestamp: now,
		Uptime:    now.Sub(h.startedAt).Seconds(),
	})
}

// Ping - проверка живости процесса без обращения к БД.
func Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

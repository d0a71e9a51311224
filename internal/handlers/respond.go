package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/maynagashev/autojob/internal/apperrors"
)

const msgServerError = "Server error"

// errorBody - тело ответа с ошибкой.
type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
	Message string            `json:"message,omitempty"` // Только вне production
	Stack   string            `json:"stack,omitempty"`   // Только вне production
}

// writeJSON сериализует v в ответ с заданным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("[Handler] Ошибка кодирования ответа", slog.Any("error", err))
	}
}

// Funnel - единая точка превращения ошибок в HTTP-ответы.
// Известные клиентские ошибки отдаются со своим статусом и сообщением.
// Остальные логируются и отдаются как 500; подробности видны только вне production.
type Funnel struct {
	production bool
}

// NewFunnel создает Funnel. В production клиент получает только общее сообщение.
func NewFunnel(production bool) *Funnel {
	return &Funnel{production: production}
}

// Error пишет ответ для err.
func (f *Funnel) Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Kind != apperrors.KindInternal {
		writeJSON(w, appErr.HTTPStatus(), errorBody{Error: appErr.Message, Details: appErr.Details})
		return
	}
	f.internal(w, r, err, debug.Stack())
}

// Recoverer перехватывает panic в обработчиках и отдает его через Funnel.
func (f *Funnel) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = panicError{value: rec}
			}
			f.internal(w, r, err, debug.Stack())
		}()
		next.ServeHTTP(w, r)
	})
}

func (f *Funnel) internal(w http.ResponseWriter, r *http.Request, err error, stack []byte) {
	slog.Error("[Handler] Необработанная ошибка",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("message", err.Error()),
		slog.String("stack", string(stack)),
	)

	body := errorBody{Error: msgServerError}
	if !f.production {
		body.Message = err.Error()
		body.Stack = string(stack)
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

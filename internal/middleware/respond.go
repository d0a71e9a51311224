package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError пишет тело ошибки в формате {"error": "..."}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("[Middleware] Ошибка записи ответа", slog.Any("error", err))
	}
}

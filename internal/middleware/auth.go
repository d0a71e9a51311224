package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maynagashev/autojob/internal/services"
)

// Тип для ключа контекста.
type contextKey string

// Ключи контекста.
const (
	claimsKey     contextKey = "claims"
	userHolderKey contextKey = "user_holder"
)

// userHolder передает ID пользователя из Authenticator наверх, в RequestLogger.
type userHolder struct {
	userID int64
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

// Тексты ответов при отказе в доступе.
const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token."
)

// TokenVerifier проверяет сессионный токен.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// Authenticator проверяет заголовок Authorization: Bearer <token>.
// Нет заголовка или неверный формат - 401, токен не прошел проверку - 403.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				slog.Debug("[AuthMiddleware] Токен не передан", slog.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				slog.Info("[AuthMiddleware] Невалидный токен",
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				writeError(w, http.StatusForbidden, msgInvalidToken)
				return
			}

			if h, ok := r.Context().Value(userHolderKey).(*userHolder); ok {
				h.userID = claims.UserID
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken разбирает заголовок вида "Bearer <token>". Схема регистронезависима.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ClaimsFromContext извлекает claims проверенного токена из контекста запроса.
func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext извлекает ID пользователя из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе 0 и false.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// WithClaims кладет claims в контекст. Используется в тестах обработчиков.
func WithClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

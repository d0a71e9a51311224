package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maynagashev/autojob/internal/middleware"
	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/services"
)

// Тексты успешных ответов.
const (
	msgRegistered    = "Account successfully created"
	msgLoggedIn      = "Login successful"
	msgProfileLoaded = "User profile loaded"
)

// maxJSONBody ограничивает размер JSON-тела запросов аутентификации.
const maxJSONBody = 1 << 20

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service services.AuthService
	funnel  *Funnel
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService, funnel *Funnel) *AuthHandler {
	return &AuthHandler{service: s, funnel: funnel}
}

// Register обрабатывает запрос на регистрацию нового пользователя.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("[AuthHandler] Ошибка декодирования запроса регистрации", slog.Any("error", err))
		h.funnel.Error(w, r, services.ErrInvalidInput)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.RegisterResponse{Message: msgRegistered, User: user.Public()})
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("[AuthHandler] Ошибка декодирования запроса входа", slog.Any("error", err))
		h.funnel.Error(w, r, services.ErrMissingCredentials)
		return
	}

	token, user, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Message: msgLoggedIn, Token: token, User: user.Public()})
}

// Me возвращает профиль владельца токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.funnel.Error(w, r, errNoUserInContext)
		return
	}

	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ProfileResponse{Message: msgProfileLoaded, User: user.Public()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// errNoUserInContext означает, что маршрут подключен без Authenticator.
var errNoUserInContext = errors.New("в контексте запроса нет пользователя")

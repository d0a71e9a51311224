package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/maynagashev/autojob/internal/middleware"
	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/services"
	"github.com/maynagashev/autojob/internal/upload"
)

const (
	msgUploaded      = "CV uploaded successfully"
	msgInvalidUpload = "Invalid file type. Only PDF allowed."
	msgBrokenUpload  = "Malformed upload request."
)

// ResumeHandler обрабатывает загрузку и скачивание резюме.
type ResumeHandler struct {
	service  services.ResumeService
	receiver *upload.Receiver
	funnel   *Funnel
}

// NewResumeHandler создает новый экземпляр ResumeHandler.
func NewResumeHandler(s services.ResumeService, receiver *upload.Receiver, funnel *Funnel) *ResumeHandler {
	return &ResumeHandler{service: s, receiver: receiver, funnel: funnel}
}

// Upload принимает поле cv из multipart-формы и заменяет текущее резюме пользователя.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.funnel.Error(w, r, errNoUserInContext)
		return
	}

	staged, err := h.receiver.Receive(w, r)
	if err != nil {
		if upload.IsRejected(err) {
			slog.Info("[ResumeHandler] Файл отклонен при приеме",
				slog.Int64("user_id", userID),
				slog.Any("error", err),
			)
			msg := msgInvalidUpload
			if errors.Is(err, upload.ErrMalformedBody) {
				msg = msgBrokenUpload
			}
			writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
			return
		}
		h.funnel.Error(w, r, err)
		return
	}

	filename, err := h.service.Upload(r.Context(), userID, staged)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UploadResponse{Message: msgUploaded, Filename: filename})
}

// Download отдает текущее резюме пользователя.
func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.funnel.Error(w, r, errNoUserInContext)
		return
	}

	body, resume, err := h.service.Open(r.Context(), userID)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			slog.Warn("[ResumeHandler] Ошибка закрытия файла", slog.Any("error", closeErr))
		}
	}()

	w.Header().Set("Content-Type", upload.PDFContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, resume.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, body); err != nil {
		slog.Warn("[ResumeHandler] Ошибка отправки файла",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
	}
}

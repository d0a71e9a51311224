package services

import "github.com/maynagashev/autojob/internal/apperrors"

// Ошибки слоя сервисов. Сообщения показываются клиенту как есть.
var (
	ErrInvalidInput       = apperrors.New(apperrors.KindInvalidInput, "Invalid input.")
	ErrMissingCredentials = apperrors.New(apperrors.KindInvalidInput, "Email and password are required.")
	ErrEmailTaken         = apperrors.New(apperrors.KindConflict, "Email already in use.")
	ErrInvalidCredentials = apperrors.New(apperrors.KindInvalidCredentials, "Invalid email or password.")
	ErrUserNotFound       = apperrors.New(apperrors.KindNotFound, "User not found.")
	ErrNoFile             = apperrors.New(apperrors.KindNoFile, "No file uploaded")
	ErrInvalidFormat      = apperrors.New(apperrors.KindInvalidFormat, "File is not a valid PDF")
	ErrResumeNotFound     = apperrors.New(apperrors.KindNotFound, "CV not found.")
)

// Package apperrors описывает классификацию ошибок приложения
// и их отображение в HTTP-статусы.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind - класс ошибки, видимый клиенту.
type Kind int

const (
	KindInternal           Kind = iota // Непредвиденная ошибка (500)
	KindInvalidInput                   // Клиент не передал обязательные данные (400)
	KindConflict                       // Email уже занят (400)
	KindInvalidCredentials             // Неверный email или пароль (400)
	KindUnauthenticated                // Нет токена (401)
	KindForbidden                      // Невалидный или истекший токен (403)
	KindRateLimited                    // Превышен лимит попыток (429)
	KindNoFile                         // Файл не передан (400)
	KindInvalidFormat                  // Содержимое файла не прошло проверку сигнатуры (400)
	KindUploadRejected                 // Файл отклонен на границе транспорта: тип или размер (400)
	KindNotFound                       // Запись не найдена (404)
)

// String возвращает имя класса для логов.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindNoFile:
		return "no_file"
	case KindInvalidFormat:
		return "invalid_format"
	case KindUploadRejected:
		return "upload_rejected"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Status возвращает HTTP-статус по умолчанию для класса.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindConflict, KindInvalidCredentials,
		KindNoFile, KindInvalidFormat, KindUploadRejected:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error - ошибка приложения с классом и сообщением для клиента.
// Status задается явно только когда нужен статус, отличный от статуса класса.
type Error struct {
	Kind    Kind
	Status  int
	Message string            // Сообщение, которое можно показать клиенту
	Details map[string]string // Необязательные подробности (например, ошибки валидации полей)
	Err     error             // Внутренняя причина, клиенту не показывается
}

// New создает ошибку заданного класса.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap создает ошибку заданного класса с внутренней причиной.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails возвращает копию ошибки с подробностями.
// Копия сохраняет исходную ошибку как причину, поэтому errors.Is продолжает работать.
func (e *Error) WithDetails(details map[string]string) *Error {
	return &Error{Kind: e.Kind, Status: e.Status, Message: e.Message, Details: details, Err: e}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus возвращает явно заданный статус или статус класса.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.Status()
}

// KindOf возвращает класс ошибки. Для ошибок вне таксономии - KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

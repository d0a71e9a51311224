package services

import (
	"html"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/maynagashev/autojob/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// Ограничения полей регистрации.
const (
	minNameLength     = 2
	maxNameLength     = 100
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt игнорирует байты после 72-го
)

var namePolicy = bluemonday.StrictPolicy()

// NormalizeEmail приводит email к виду, в котором он хранится: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sanitizeName убирает из имени любую разметку и лишние пробелы.
func sanitizeName(name string) string {
	stripped := namePolicy.Sanitize(strings.TrimSpace(name))
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// validateRegistration нормализует запрос и возвращает ошибки по полям.
// Пустая карта означает, что запрос корректен.
func validateRegistration(req *models.RegisterRequest) map[string]string {
	fields := make(map[string]string)

	req.Name = sanitizeName(req.Name)
	switch n := utf8.RuneCountInString(req.Name); {
	case n < minNameLength:
		fields["name"] = "must be at least 2 characters"
	case n > maxNameLength:
		fields["name"] = "must be at most 100 characters"
	}

	req.Email = NormalizeEmail(req.Email)
	if len(req.Email) > maxEmailLength {
		fields["email"] = "is too long"
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		fields["email"] = "must be a valid email address"
	}

	switch n := len(req.Password); {
	case n < minPasswordLength:
		fields["password"] = "must be at least 8 characters"
	case n > maxPasswordBytes:
		fields["password"] = "must be at most 72 bytes"
	}

	return fields
}

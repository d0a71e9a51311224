package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher - односторонний хеш пароля с солью.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// BcryptHasher реализует PasswordHasher на bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает хешер. Стоимость приводится к допустимому для bcrypt диапазону.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.DefaultCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash возвращает bcrypt-хеш. Соль встроена в результат, поэтому два хеша одного пароля различаются.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// Verify сравнивает пароль с хешем за постоянное время.
// Любая ошибка (несовпадение, испорченный хеш) дает false.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

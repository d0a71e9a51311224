// Package storage хранит загруженные файлы резюме.
package storage

import (
	"context"
	"errors"
	"io"
)

// FileStorage определяет интерфейс долговременного хранилища файлов.
type FileStorage interface {
	// Save записывает объект целиком. После успешного возврата объект переживает перезапуск процесса.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open возвращает содержимое объекта. Вызывающий обязан закрыть reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete удаляет объект. Отсутствующий объект дает ErrObjectNotFound.
	Delete(ctx context.Context, name string) error
}

// Ошибки хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
	ErrInvalidName    = errors.New("недопустимое имя объекта")
)

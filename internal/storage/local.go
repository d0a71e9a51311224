package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var _ FileStorage = (*LocalStorage)(nil)

// LocalStorage хранит файлы в каталоге на диске.
type LocalStorage struct {
	dir string
}

// NewLocalStorage создает каталог (если его нет) и возвращает хранилище поверх него.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога загрузок '%s': %w", dir, err)
	}
	slog.Info("[Storage] Локальное хранилище готово", slog.String("dir", dir))
	return &LocalStorage{dir: dir}, nil
}

// Save пишет во временный файл, делает fsync и атомарно переименовывает его в целевое имя.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader, _ int64, _ string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка записи файла '%s': %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка fsync файла '%s': %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия файла '%s': %w", name, err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("ошибка переименования файла '%s': %w", name, err)
	}

	syncDir(s.dir)
	slog.Debug("[Storage] Файл сохранен", slog.String("name", name))
	return nil
}

// Open открывает сохраненный файл на чтение.
func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка открытия файла '%s': %w", name, err)
	}
	return f, nil
}

// Delete удаляет файл.
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}
	if err = os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("ошибка удаления файла '%s': %w", name, err)
	}
	return nil
}

// path не допускает выход за пределы каталога хранилища.
func (s *LocalStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// syncDir сбрасывает на диск запись каталога после переименования.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err = d.Sync(); err != nil {
		slog.Debug("[Storage] fsync каталога не выполнен", slog.Any("error", err))
	}
}

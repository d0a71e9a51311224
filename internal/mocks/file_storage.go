package mocks

import (
	"context"
	"io"

	"github.com/maynagashev/autojob/internal/storage"
	"github.com/stretchr/testify/mock"
)

var _ storage.FileStorage = (*FileStorage)(nil)

// FileStorage - мок storage.FileStorage.
// Save вычитывает reader целиком и сохраняет содержимое в Saved, чтобы тесты могли его проверить.
type FileStorage struct {
	mock.Mock

	Saved map[string][]byte
}

func (m *FileStorage) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	args := m.Called(ctx, name, size, contentType)
	if args.Error(0) == nil {
		if m.Saved == nil {
			m.Saved = make(map[string][]byte)
		}
		m.Saved[name] = data
	}
	return args.Error(0)
}

func (m *FileStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *FileStorage) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

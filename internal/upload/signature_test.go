package upload_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maynagashev/autojob/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestHasPDFSignature(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "Настоящий PDF", content: "%PDF-1.4\n%âãÏÓ\n", want: true},
		{name: "Ровно сигнатура", content: "%PDF", want: true},
		{name: "Текст с расширением pdf", content: "hello world", want: false},
		{name: "Сигнатура не в начале", content: " %PDF-1.4", want: false},
		{name: "Нижний регистр", content: "%pdf-1.4", want: false},
		{name: "Короткий файл", content: "%PD", want: false},
		{name: "Пустой файл", content: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upload.HasPDFSignature(strings.NewReader(tt.content)))
		})
	}
}

func TestHasPDFSignature_ReadError(t *testing.T) {
	assert.False(t, upload.HasPDFSignature(failingReader{}))
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	pdf := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7 body"), 0o600))
	ok, err := upload.ValidateFile(pdf)
	require.NoError(t, err)
	assert.True(t, ok, "имя файла не должно влиять на проверку")

	fake := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("hello world"), 0o600))
	ok, err = upload.ValidateFile(fake)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = upload.ValidateFile(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
}

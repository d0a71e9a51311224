package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
)

const (
	// FieldName - имя поля multipart-формы с файлом резюме.
	FieldName = "cv"
	// PDFContentType - единственный допустимый заявленный тип.
	PDFContentType = "application/pdf"

	// Запас на заголовки multipart сверх лимита на сам файл.
	multipartOverhead = 64 << 10
)

// Ошибки приема файла. Все считаются отказом на границе транспорта.
var (
	ErrUnsupportedType = errors.New("недопустимый тип файла")
	ErrFileTooLarge    = errors.New("файл превышает допустимый размер")
	ErrMalformedBody   = errors.New("поврежденное тело multipart-запроса")
)

// IsRejected сообщает, отклонен ли файл на границе транспорта (тип, размер или поврежденное тело).
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrMalformedBody)
}

// StagedFile - принятый файл во временном каталоге.
type StagedFile struct {
	Path         string
	Size         int64
	OriginalName string
	ContentType  string
}

// Open открывает временный файл на чтение.
func (f *StagedFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Remove удаляет временный файл. Повторный вызов безопасен.
func (f *StagedFile) Remove() {
	if f == nil || f.Path == "" {
		return
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("[Upload] Не удалось удалить временный файл",
			slog.String("path", f.Path),
			slog.Any("error", err),
		)
	}
}

// Receiver потоково принимает поле cv из multipart-запроса во временный файл.
type Receiver struct {
	maxBytes   int64
	stagingDir string
}

// NewReceiver создает приемник с лимитом размера файла. Пустой stagingDir означает os.TempDir().
func NewReceiver(maxBytes int64, stagingDir string) *Receiver {
	return &Receiver{maxBytes: maxBytes, stagingDir: stagingDir}
}

// MaxBytes возвращает лимит размера файла.
func (rc *Receiver) MaxBytes() int64 {
	return rc.maxBytes
}

// Receive возвращает (nil, nil), если файл не передан.
// При ошибке временный файл уже удален.
func (rc *Receiver) Receive(w http.ResponseWriter, r *http.Request) (*StagedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rc.maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения multipart: %w", err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, classifyReadError(err)
		}
		if part.FormName() != FieldName || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		staged, err := rc.stage(part)
		_ = part.Close()
		return staged, err
	}
}

func (rc *Receiver) stage(part *multipart.Part) (*StagedFile, error) {
	declared := part.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType != PDFContentType {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}

	tmp, err := os.CreateTemp(rc.stagingDir, "cv-*.part")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	staged := &StagedFile{Path: tmp.Name(), OriginalName: part.FileName(), ContentType: mediaType}

	src := &readTracker{r: part}
	n, err := io.CopyN(tmp, src, rc.maxBytes+1)
	closeErr := tmp.Close()
	switch {
	case err != nil && !errors.Is(err, io.EOF):
		staged.Remove()
		if src.err == nil {
			// Ошибка записи во временный файл, а не чтения запроса
			return nil, fmt.Errorf("ошибка записи временного файла: %w", err)
		}
		return nil, classifyReadError(err)
	case n > rc.maxBytes:
		staged.Remove()
		return nil, ErrFileTooLarge
	case closeErr != nil:
		staged.Remove()
		return nil, fmt.Errorf("ошибка закрытия временного файла: %w", closeErr)
	}

	staged.Size = n
	return staged, nil
}

// classifyReadError относит ошибку чтения тела запроса к отказам: тело приходит от клиента,
// поэтому обрыв и нарушенная разметка multipart - ошибки клиента.
func classifyReadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrFileTooLarge
	}
	return fmt.Errorf("%w: %w", ErrMalformedBody, err)
}

// readTracker запоминает ошибку чтения, чтобы отличить ее от ошибки записи при копировании.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

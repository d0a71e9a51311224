// Package upload принимает файлы резюме на границе транспорта и проверяет их содержимое.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// pdfMagic - первые байты любого PDF-документа.
var pdfMagic = []byte("%PDF")

// HasPDFSignature читает не больше четырех байт и сравнивает их с сигнатурой PDF.
// Короткое или нечитаемое содержимое считается невалидным.
func HasPDFSignature(r io.Reader) bool {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfMagic)
}

// ValidateFile проверяет сигнатуру файла на диске.
// Имя файла и заявленный клиентом тип не учитываются.
func ValidateFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("ошибка открытия файла для проверки: %w", err)
	}
	defer f.Close()
	return HasPDFSignature(f), nil
}

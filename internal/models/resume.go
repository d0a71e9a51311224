package models

import "time"

// Resume описывает текущее резюме пользователя.
type Resume struct {
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadResponse - ответ на успешную загрузку резюме.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

package models

import "time"

// Application - отклик пользователя на вакансию.
type Application struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	Location  *string   `db:"location" json:"location,omitempty"`
	Status    string    `db:"status" json:"status"`
	AppliedAt time.Time `db:"applied_at" json:"applied_at"`
}

// Dashboard - данные для главной страницы пользователя.
type Dashboard struct {
	CV           *Resume       `json:"cv"`
	Applications []Application `json:"applications"`
}

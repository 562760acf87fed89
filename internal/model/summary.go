package model

import "time"

const (
	SummaryTypeWebsite = "website"
	SummaryTypeVideo   = "video"
)

type Summary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

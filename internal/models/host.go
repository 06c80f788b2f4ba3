package models

import "time"

// Host is a certificate common name tracked for renewal
type Host struct {
	ID         int64     `json:"id"`
	CommonName string    `json:"common_name"`
	Duration   int       `json:"duration"` // validity window in days
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

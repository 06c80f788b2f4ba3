package models

import "time"

// NotificationLog is one delivery attempt of a NotificationReport
type NotificationLog struct {
	ID           int64     `json:"id"`
	SentAt       time.Time `json:"sent_at"`
	Sink         string    `json:"sink"`
	ExpiredCount int       `json:"expired_count"`
	DueCount     int       `json:"due_count"`
	Hosts        string    `json:"hosts"` // JSON encoded report
	Success      bool      `json:"success"`
	ErrorMsg     string    `json:"error_msg,omitempty"`
}

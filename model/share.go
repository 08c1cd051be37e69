package model

import "time"

// Share is an email-addressed share record granting access to one
// recording through an unguessable token.
type Share struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RecordingID string    `json:"recordingId" gorm:"size:36;index;not null"`
	Email       string    `json:"email" gorm:"size:255;not null"`
	Token       string    `json:"token" gorm:"size:36;uniqueIndex;not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName keeps the table name stable regardless of pluralization rules.
func (Share) TableName() string {
	return "shares"
}

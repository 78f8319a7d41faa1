package models

import "time"

// User mirrors the identity provider's subject. It is upserted on each
// authenticated request; no credentials are stored here.
type User struct {
	ID          string    `gorm:"primaryKey;size:128" json:"id"`
	Email       string    `gorm:"size:255" json:"email"`
	DisplayName string    `gorm:"size:64" json:"display_name"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package models

import "time"

// Conversation is the mail thread held with one correspondent.
type Conversation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	EmailAddress string    `gorm:"size:255;not null;uniqueIndex"`
	UserName     string    `gorm:"size:255"`
	Messages     []Message `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one stored turn. IsUser distinguishes the correspondent's mail
// from the assistant's replies.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	ConversationID uint      `gorm:"not null;index"`
	IsUser         bool      `gorm:"not null"`
	Content        string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"not null;index"`
}

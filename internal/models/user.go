package models

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:text;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// AuthToken is an opaque bearer token issued at login.
type AuthToken struct {
	Token     string    `gorm:"primaryKey;type:text"`
	UserID    uint64    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;index;not null"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

package models

import "time"

// Identity lives only on the remote mirror and is never pulled or exported.
type Identity struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

func (Identity) TableName() string { return "auth_identities" }

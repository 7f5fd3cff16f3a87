package models

import "github.com/angelmondragon/roastery-backend/pkg/enums"

// UserProfile mirrors an identity with its role and activation flag. ID is the identity id.
type UserProfile struct {
	ID       string         `gorm:"column:id;primaryKey" json:"id"`
	Email    string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Role     enums.UserRole `gorm:"column:role;not null" json:"role"`
	IsActive bool           `gorm:"column:is_active;not null" json:"is_active"`
	Timestamps
}

func (UserProfile) TableName() string { return "user_profiles" }

func (u UserProfile) RecordID() string { return u.ID }

package model

import "time"

// User is a session-authenticated account. Password holds a bcrypt hash and
// is never serialized.
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  *string   `json:"fullName"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string { return "users" }

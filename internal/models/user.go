package models

import (
	"time"
)

// User is the owner of bank sessions. Identity and profile management live in
// the auth service; the ledger only needs the owning row for scoping.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

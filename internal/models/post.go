package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post belongs to the social module; the ledger only knows about its weak
// back-reference to a bet. AttachedBetID is display-only and must be cleared
// by the deletion workflows when the bet goes away, since the posts module has
// no way to learn that on its own.
type Post struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Text          string     `gorm:"size:2000" json:"text"`
	AttachedBetID *uuid.UUID `gorm:"type:uuid;index" json:"attached_bet_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

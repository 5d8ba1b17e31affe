package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// BankSession is a capital pool owned by one user. CurrentBank is mutated only
// by settlement deltas and their reversals, always inside the same transaction
// as the bet write.
type BankSession struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Title       string          `gorm:"size:80;not null" json:"title"`
	InitialBank decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"initial_bank"`
	CurrentBank decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_bank"`
	Status      SessionStatus   `gorm:"size:10;not null;default:OPEN;index" json:"status"`
	ClosedAt    *time.Time      `json:"closed_at"`
	Bets        []Bet           `gorm:"foreignKey:SessionID" json:"bets,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (BankSession) TableName() string {
	return "bank_sessions"
}

func (s *BankSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Profit is the session's realized result so far.
func (s *BankSession) Profit() decimal.Decimal {
	return s.CurrentBank.Sub(s.InitialBank)
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Title       string          `json:"title" binding:"required"`
	InitialBank decimal.Decimal `json:"initialBank" binding:"required"`
}

// SessionListItem is one row of GET /sessions.
type SessionListItem struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Status      SessionStatus   `json:"status"`
	InitialBank decimal.Decimal `json:"initial_bank"`
	CurrentBank decimal.Decimal `json:"current_bank"`
	Profit      decimal.Decimal `json:"profit"`
	CreatedAt   time.Time       `json:"created_at"`
	ClosedAt    *time.Time      `json:"closed_at"`
}

// SessionListResult is the response of GET /sessions.
type SessionListResult struct {
	Items []SessionListItem `json:"items"`
	Page  Page              `json:"page"`
}

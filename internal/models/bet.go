package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BetStatus string

const (
	BetStatusPending BetStatus = "PENDING"
	BetStatusWin     BetStatus = "WIN"
	BetStatusLose    BetStatus = "LOSE"
)

type Game string

const (
	GameDota2 Game = "DOTA2"
	GameCS2   Game = "CS2"
)

type BetType string

const (
	BetTypeHandicap BetType = "HANDICAP"
	BetTypeMapWin   BetType = "MAP_WIN"
	BetTypeMatchWin BetType = "MATCH_WIN"
)

// Bet is a single wager drawn against a session's capital. Status transitions
// PENDING -> WIN|LOSE exactly once; profit, settled_at and status are frozen
// after that. RecommendedPct/RecommendedStake are snapshots computed at
// placement time and are never recomputed.
type Bet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_bets_session_status" json:"session_id"`

	Game       Game    `gorm:"size:20;not null" json:"game"`
	Tournament string  `gorm:"size:120;not null" json:"tournament"`
	Team1      string  `gorm:"size:80;not null" json:"team1"`
	Team2      string  `gorm:"size:80;not null" json:"team2"`
	PickTeam   *string `gorm:"size:80" json:"pick_team"`

	BetType BetType         `gorm:"size:20;not null" json:"bet_type"`
	Bo      int             `gorm:"not null" json:"bo"`
	Tier    int             `gorm:"not null" json:"tier"`
	Risk    int             `gorm:"not null" json:"risk"`
	Odds    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"odds"`

	RecommendedPct   decimal.Decimal `gorm:"type:decimal(8,5);not null" json:"recommended_pct"`
	RecommendedStake decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"recommended_stake"`
	StakingModel     string          `gorm:"size:40;not null" json:"staking_model"`

	Stake     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"stake"`
	Status    BetStatus       `gorm:"size:10;not null;default:PENDING;index:idx_bets_session_status" json:"status"`
	Profit    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"profit"`
	SettledAt *time.Time      `json:"settled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Bet) TableName() string {
	return "bets"
}

func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func ValidGame(g Game) bool {
	return g == GameDota2 || g == GameCS2
}

func ValidBetType(t BetType) bool {
	return t == BetTypeHandicap || t == BetTypeMapWin || t == BetTypeMatchWin
}

func ValidBo(bo int) bool {
	return bo == 1 || bo == 2 || bo == 3 || bo == 5
}

func ValidTier(tier int) bool {
	return tier >= 1 && tier <= 3
}

func ValidRisk(risk int) bool {
	return risk >= 1 && risk <= 5
}

// PlaceBetRequest is the body of POST /sessions/:id/bets.
type PlaceBetRequest struct {
	Game       Game            `json:"game" binding:"required"`
	Tournament string          `json:"tournament" binding:"required"`
	Team1      string          `json:"team1" binding:"required"`
	Team2      string          `json:"team2" binding:"required"`
	PickTeam   *string         `json:"pickTeam"`
	BetType    BetType         `json:"betType" binding:"required"`
	Bo         int             `json:"bo" binding:"required"`
	Tier       int             `json:"tier" binding:"required"`
	Risk       int             `json:"risk" binding:"required"`
	Odds       decimal.Decimal `json:"odds" binding:"required"`
	Stake      decimal.Decimal `json:"stake" binding:"required"`
}

// RecommendRequest is the body of POST /sessions/:id/recommend.
type RecommendRequest struct {
	Odds decimal.Decimal `json:"odds" binding:"required"`
	Bo   int             `json:"bo" binding:"required"`
	Tier int             `json:"tier" binding:"required"`
	Risk int             `json:"risk" binding:"required"`
}

// SettleBetRequest is the body of POST /bets/:id/settle.
type SettleBetRequest struct {
	Result BetStatus `json:"result" binding:"required"`
}

// Recommendation is the staking engine output echoed to clients and snapshotted
// on the bet row.
type Recommendation struct {
	RecommendedPct   decimal.Decimal `json:"recommendedPct"`
	RecommendedStake decimal.Decimal `json:"recommendedStake"`
	StakingModel     string          `json:"stakingModel"`
}

// PlaceBetResult is the response of the placement workflow.
type PlaceBetResult struct {
	Bet            *Bet            `json:"bet"`
	Recommendation Recommendation  `json:"recommendation"`
	SessionBank    decimal.Decimal `json:"sessionBank"`
}

// SettleBetResult is the response of the settlement workflow.
type SettleBetResult struct {
	Bet     *Bet            `json:"bet"`
	Session SessionBankView `json:"session"`
}

type SessionBankView struct {
	ID          uuid.UUID       `json:"id"`
	CurrentBank decimal.Decimal `json:"currentBank"`
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bankroll-terminal/internal/events"
	"bankroll-terminal/internal/metrics"
	"bankroll-terminal/internal/models"
	"bankroll-terminal/internal/staking"
)

type BetService struct {
	db      *gorm.DB
	log     *zap.Logger
	staking staking.Config
	events  events.Publisher
}

func NewBetService(db *gorm.DB, log *zap.Logger, cfg staking.Config, pub events.Publisher) *BetService {
	return &BetService{db: db, log: log, staking: cfg, events: pub}
}

func validateBetFields(req *models.PlaceBetRequest) error {
	if !models.ValidGame(req.Game) {
		return invalid("invalid game")
	}
	if strings.TrimSpace(req.Tournament) == "" {
		return invalid("invalid tournament")
	}
	if strings.TrimSpace(req.Team1) == "" || strings.TrimSpace(req.Team2) == "" {
		return invalid("invalid teams")
	}
	if !models.ValidBetType(req.BetType) {
		return invalid("invalid betType")
	}
	if !models.ValidBo(req.Bo) {
		return invalid("invalid bo")
	}
	if !models.ValidTier(req.Tier) {
		return invalid("invalid tier")
	}
	if !models.ValidRisk(req.Risk) {
		return invalid("invalid risk")
	}
	if !req.Odds.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("invalid odds")
	}
	if !req.Stake.IsPositive() {
		return invalid("invalid stake")
	}
	return nil
}

// pendingExposure sums the stakes of this session's PENDING bets. Must run
// inside the same transaction as the session lock so the admission decision
// never reads stale state.
func pendingExposure(tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.Model(&models.Bet{}).
		Where("session_id = ? AND status = ?", sessionID, models.BetStatusPending).
		Select("COALESCE(SUM(stake), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending stakes: %w", err)
	}
	return sum, nil
}

// Place runs the placement workflow: lock the session, recheck capacity
// against current bank minus pending exposure, compute the recommendation from
// the available bank, and insert the PENDING bet. Any failure aborts the whole
// transaction.
func (s *BetService) Place(ctx context.Context, userID uint, sessionID uuid.UUID, req *models.PlaceBetRequest) (*models.PlaceBetResult, error) {
	// Field validation never opens a transaction.
	if err := validateBetFields(req); err != nil {
		return nil, err
	}

	var (
		bet     models.Bet
		session models.BankSession
		rec     staking.Recommendation
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
			return storageErr(err, "session not found")
		}
		if session.Status != models.SessionStatusOpen {
			return conflict("session closed")
		}

		pending, err := pendingExposure(tx, session.ID)
		if err != nil {
			return err
		}
		available := session.CurrentBank.Sub(pending)
		if !available.IsPositive() {
			return conflict("insufficient bank")
		}
		if req.Stake.GreaterThan(available) {
			return conflict("insufficient bank")
		}

		rec, err = staking.Recommend(s.staking, staking.Input{
			Bank: available.InexactFloat64(),
			Odds: req.Odds.InexactFloat64(),
			BO:   req.Bo,
			Tier: req.Tier,
			Risk: req.Risk,
		})
		if err != nil {
			return invalid(err.Error())
		}

		bet = models.Bet{
			SessionID:        session.ID,
			Game:             req.Game,
			Tournament:       strings.TrimSpace(req.Tournament),
			Team1:            strings.TrimSpace(req.Team1),
			Team2:            strings.TrimSpace(req.Team2),
			PickTeam:         req.PickTeam,
			BetType:          req.BetType,
			Bo:               req.Bo,
			Tier:             req.Tier,
			Risk:             req.Risk,
			Odds:             req.Odds,
			RecommendedPct:   rec.Pct,
			RecommendedStake: rec.Stake,
			StakingModel:     rec.Model,
			Stake:            req.Stake,
			Status:           models.BetStatusPending,
			Profit:           decimal.Zero,
		}
		if err := tx.Create(&bet).Error; err != nil {
			return fmt.Errorf("failed to create bet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BetsPlaced.Inc()
	betID := bet.ID
	s.events.Publish(ctx, events.Event{Type: events.BetPlaced, UserID: userID, SessionID: session.ID, BetID: &betID})

	return &models.PlaceBetResult{
		Bet: &bet,
		Recommendation: models.Recommendation{
			RecommendedPct:   rec.Pct,
			RecommendedStake: rec.Stake,
			StakingModel:     rec.Model,
		},
		SessionBank: session.CurrentBank,
	}, nil
}

// Settle resolves a PENDING bet to WIN or LOSE and applies the profit delta to
// the session bank in the same transaction. A second settle of the same bet is
// a Conflict and never re-applies profit.
func (s *BetService) Settle(ctx context.Context, userID uint, betID uuid.UUID, result models.BetStatus) (*models.SettleBetResult, error) {
	if result != models.BetStatusWin && result != models.BetStatusLose {
		return nil, invalid("invalid result")
	}

	var (
		bet     models.Bet
		session models.BankSession
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve the owning session first; locks are always taken in
		// session -> bet order across all workflows.
		if err := tx.First(&bet, "id = ?", betID).Error; err != nil {
			return storageErr(err, "bet not found")
		}
		if err := forUpdate(tx).First(&session, "id = ? AND user_id = ?", bet.SessionID, userID).Error; err != nil {
			return storageErr(err, "bet not found")
		}
		if session.Status != models.SessionStatusOpen {
			return conflict("session closed")
		}

		// Re-read under lock: the first read pre-dated the session lock.
		if err := forUpdate(tx).First(&bet, "id = ?", betID).Error; err != nil {
			return storageErr(err, "bet not found")
		}
		if bet.Status != models.BetStatusPending {
			return conflict("bet already settled")
		}

		var profit decimal.Decimal
		if result == models.BetStatusWin {
			profit = bet.Stake.Mul(bet.Odds.Sub(decimal.NewFromInt(1))).Round(2)
		} else {
			profit = bet.Stake.Neg()
		}

		now := time.Now().UTC()
		bet.Status = result
		bet.Profit = profit
		bet.SettledAt = &now
		if err := tx.Model(&bet).Updates(map[string]interface{}{
			"status":     bet.Status,
			"profit":     bet.Profit,
			"settled_at": bet.SettledAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to settle bet: %w", err)
		}

		session.CurrentBank = session.CurrentBank.Add(profit)
		if err := tx.Model(&session).Update("current_bank", session.CurrentBank).Error; err != nil {
			return fmt.Errorf("failed to apply profit to session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BetsSettled.WithLabelValues(string(result)).Inc()
	id := bet.ID
	s.events.Publish(ctx, events.Event{Type: events.BetSettled, UserID: userID, SessionID: session.ID, BetID: &id})

	return &models.SettleBetResult{
		Bet: &bet,
		Session: models.SessionBankView{
			ID:          session.ID,
			CurrentBank: session.CurrentBank,
		},
	}, nil
}

// Delete removes a bet. A settled bet first has its profit reversed out of the
// session bank; a pending bet has no capital effect to reverse. Weak post
// references to the bet are cleared either way.
func (s *BetService) Delete(ctx context.Context, userID uint, betID uuid.UUID) error {
	var sessionID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bet models.Bet
		if err := tx.First(&bet, "id = ?", betID).Error; err != nil {
			return storageErr(err, "bet not found")
		}

		var session models.BankSession
		if err := forUpdate(tx).First(&session, "id = ? AND user_id = ?", bet.SessionID, userID).Error; err != nil {
			return storageErr(err, "bet not found")
		}
		sessionID = session.ID

		if err := forUpdate(tx).First(&bet, "id = ?", betID).Error; err != nil {
			return storageErr(err, "bet not found")
		}

		if bet.Status != models.BetStatusPending {
			reversed := session.CurrentBank.Sub(bet.Profit)
			if err := tx.Model(&session).Update("current_bank", reversed).Error; err != nil {
				return fmt.Errorf("failed to reverse bet profit: %w", err)
			}
		}

		if err := tx.Model(&models.Post{}).
			Where("attached_bet_id = ?", bet.ID).
			Update("attached_bet_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach posts: %w", err)
		}

		if err := tx.Delete(&bet).Error; err != nil {
			return fmt.Errorf("failed to delete bet: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.BetsDeleted.Inc()
	id := betID
	s.events.Publish(ctx, events.Event{Type: events.BetDeleted, UserID: userID, SessionID: sessionID, BetID: &id})
	return nil
}

// Recommend is the dry-run recommendation: same validation and available-bank
// math as placement, no lock and no insert.
func (s *BetService) Recommend(ctx context.Context, userID uint, sessionID uuid.UUID, req *models.RecommendRequest) (decimal.Decimal, *models.Recommendation, error) {
	var session models.BankSession
	if err := s.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
		return decimal.Zero, nil, storageErr(err, "session not found")
	}

	pending, err := pendingExposure(s.db.WithContext(ctx), session.ID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	available := session.CurrentBank.Sub(pending)
	if !available.IsPositive() {
		return decimal.Zero, nil, conflict("session bank must be > 0")
	}

	if !req.Odds.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, nil, invalid("invalid odds")
	}
	if !models.ValidBo(req.Bo) {
		return decimal.Zero, nil, invalid("invalid bo")
	}
	if !models.ValidTier(req.Tier) {
		return decimal.Zero, nil, invalid("invalid tier")
	}
	if !models.ValidRisk(req.Risk) {
		return decimal.Zero, nil, invalid("invalid risk")
	}

	rec, err := staking.Recommend(s.staking, staking.Input{
		Bank: available.InexactFloat64(),
		Odds: req.Odds.InexactFloat64(),
		BO:   req.Bo,
		Tier: req.Tier,
		Risk: req.Risk,
	})
	if err != nil {
		return decimal.Zero, nil, invalid(err.Error())
	}

	return available, &models.Recommendation{
		RecommendedPct:   rec.Pct,
		RecommendedStake: rec.Stake,
		StakingModel:     rec.Model,
	}, nil
}

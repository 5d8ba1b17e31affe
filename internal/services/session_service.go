package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bankroll-terminal/internal/events"
	"bankroll-terminal/internal/metrics"
	"bankroll-terminal/internal/models"
)

type SessionService struct {
	db     *gorm.DB
	log    *zap.Logger
	events events.Publisher
}

func NewSessionService(db *gorm.DB, log *zap.Logger, pub events.Publisher) *SessionService {
	return &SessionService{db: db, log: log, events: pub}
}

// Create opens a new session with current bank equal to the initial bank.
func (s *SessionService) Create(ctx context.Context, userID uint, req *models.CreateSessionRequest) (*models.BankSession, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > 80 {
		return nil, invalid("invalid title")
	}
	if !req.InitialBank.IsPositive() {
		return nil, invalid("invalid initialBank")
	}

	session := &models.BankSession{
		UserID:      userID,
		Title:       title,
		InitialBank: req.InitialBank,
		CurrentBank: req.InitialBank,
		Status:      models.SessionStatusOpen,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SessionListQuery carries the GET /sessions filters.
type SessionListQuery struct {
	Status string // OPEN | CLOSED
	Q      string // title substring, min 2 chars
	Profit string // plus | minus
	Sort   string // createdAt | currentBank | profit
	Order  string // asc | desc
	Limit  int
	Offset int
}

var sessionSortColumns = map[string]string{
	"createdAt":   "created_at",
	"currentBank": "current_bank",
	"profit":      "(current_bank - initial_bank)",
}

// List returns the caller's sessions, filtered and sorted. The echoed page
// carries the clamped limit/offset actually applied, not the raw request.
func (s *SessionService) List(ctx context.Context, userID uint, q SessionListQuery) (*models.SessionListResult, error) {
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.BankSession{}).Where("user_id = ?", userID)

	switch models.SessionStatus(q.Status) {
	case models.SessionStatusOpen, models.SessionStatusClosed:
		tx = tx.Where("status = ?", q.Status)
	}
	if needle := strings.TrimSpace(q.Q); len(needle) >= 2 {
		tx = tx.Where("lower(title) LIKE ?", "%"+strings.ToLower(needle)+"%")
	}
	switch q.Profit {
	case "plus":
		tx = tx.Where("current_bank - initial_bank > 0")
	case "minus":
		tx = tx.Where("current_bank - initial_bank < 0")
	}

	col, ok := sessionSortColumns[q.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		dir = "ASC"
	}

	var sessions []models.BankSession
	if err := tx.Order(col + " " + dir).Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	items := make([]models.SessionListItem, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		items = append(items, models.SessionListItem{
			ID:          sess.ID,
			Title:       sess.Title,
			Status:      sess.Status,
			InitialBank: sess.InitialBank,
			CurrentBank: sess.CurrentBank,
			Profit:      sess.Profit(),
			CreatedAt:   sess.CreatedAt,
			ClosedAt:    sess.ClosedAt,
		})
	}
	return &models.SessionListResult{
		Items: items,
		Page:  models.Page{Limit: limit, Offset: offset},
	}, nil
}

// Get returns one owned session with its bets, newest first. Non-owners get
// NotFound so existence is not leaked.
func (s *SessionService) Get(ctx context.Context, userID uint, id uuid.UUID) (*models.BankSession, error) {
	var session models.BankSession
	err := s.db.WithContext(ctx).
		Preload("Bets", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&session, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, storageErr(err, "session not found")
	}
	return &session, nil
}

// Close transitions a session OPEN -> CLOSED. The transition is terminal:
// placement and settlement are refused afterwards, deletion stays allowed.
func (s *SessionService) Close(ctx context.Context, userID uint, id uuid.UUID) (*models.BankSession, error) {
	var session models.BankSession

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&session, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return storageErr(err, "session not found")
		}
		if session.Status == models.SessionStatusClosed {
			return conflict("session already closed")
		}

		now := time.Now().UTC()
		session.Status = models.SessionStatusClosed
		session.ClosedAt = &now
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"status":    session.Status,
			"closed_at": session.ClosedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsClosed.Inc()
	s.events.Publish(ctx, events.Event{Type: events.SessionClosed, UserID: userID, SessionID: session.ID})
	return &session, nil
}

// Delete removes a session and all of its bets in one transaction. No capital
// reversal is applied since the whole pool is being discarded; weak post
// references to the removed bets are cleared.
func (s *SessionService) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.BankSession
		if err := forUpdate(tx).First(&session, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return storageErr(err, "session not found")
		}

		var betIDs []uuid.UUID
		if err := tx.Model(&models.Bet{}).Where("session_id = ?", session.ID).Pluck("id", &betIDs).Error; err != nil {
			return fmt.Errorf("failed to collect session bets: %w", err)
		}

		if len(betIDs) > 0 {
			if err := tx.Model(&models.Post{}).
				Where("attached_bet_id IN ?", betIDs).
				Update("attached_bet_id", nil).Error; err != nil {
				return fmt.Errorf("failed to detach posts: %w", err)
			}
		}

		if err := tx.Where("session_id = ?", session.ID).Delete(&models.Bet{}).Error; err != nil {
			return fmt.Errorf("failed to delete session bets: %w", err)
		}
		if err := tx.Delete(&session).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("session deleted", zap.String("session_id", id.String()), zap.Uint("user_id", userID))
	s.events.Publish(ctx, events.Event{Type: events.SessionDeleted, UserID: userID, SessionID: id})
	return nil
}

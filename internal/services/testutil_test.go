package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bankroll-terminal/internal/events"
	"bankroll-terminal/internal/models"
	"bankroll-terminal/internal/staking"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory DB per test so parallel tests don't share state.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.BankSession{},
		&models.Bet{},
		&models.Post{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	if err := db.Create(&models.User{ID: 1, Username: "owner"}).Error; err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}
	if err := db.Create(&models.User{ID: 2, Username: "stranger"}).Error; err != nil {
		t.Fatalf("failed to create stranger: %v", err)
	}

	return db
}

func newServices(t *testing.T) (*gorm.DB, *SessionService, *BetService) {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()
	return db,
		NewSessionService(db, log, events.Nop{}),
		NewBetService(db, log, staking.DefaultConfig(), events.Nop{})
}

func mustCreateSession(t *testing.T, s *SessionService, userID uint, title string, bank string) *models.BankSession {
	t.Helper()
	session, err := s.Create(context.Background(), userID, &models.CreateSessionRequest{
		Title:       title,
		InitialBank: decimal.RequireFromString(bank),
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func placeRequest(stake, odds string) *models.PlaceBetRequest {
	return &models.PlaceBetRequest{
		Game:       models.GameDota2,
		Tournament: "The International",
		Team1:      "Spirit",
		Team2:      "Liquid",
		BetType:    models.BetTypeMatchWin,
		Bo:         3,
		Tier:       1,
		Risk:       3,
		Odds:       decimal.RequireFromString(odds),
		Stake:      decimal.RequireFromString(stake),
	}
}

// assertBankInvariant checks that currentBank equals initialBank plus the sum
// of profits of all settled bets.
func assertBankInvariant(t *testing.T, db *gorm.DB, sessionID uuid.UUID) {
	t.Helper()

	var session models.BankSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("failed to load session: %v", err)
	}

	var bets []models.Bet
	if err := db.Find(&bets, "session_id = ?", sessionID).Error; err != nil {
		t.Fatalf("failed to load bets: %v", err)
	}

	sum := decimal.Zero
	for i := range bets {
		if bets[i].Status != models.BetStatusPending {
			sum = sum.Add(bets[i].Profit)
		}
	}

	want := session.InitialBank.Add(sum)
	if !session.CurrentBank.Equal(want) {
		t.Fatalf("bank invariant violated: currentBank=%s, initialBank+settled profits=%s",
			session.CurrentBank, want)
	}
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected error kind %d, got %d (%v)", kind, got, err)
	}
}

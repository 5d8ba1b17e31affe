package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankroll-terminal/internal/models"
)

// seedTerminal places three bets for user 1 in one session and settles two:
// a DOTA2 win (+10), a CS2 loss (-20), and a pending DOTA2 longshot.
func seedTerminal(t *testing.T, sessions *SessionService, bets *BetService) (win, loss, pending *models.Bet, sessionID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	session := mustCreateSession(t, sessions, 1, "Terminal", "1000")
	sessionID = session.ID

	placedWin, err := bets.Place(ctx, 1, session.ID, placeRequest("10", "2.0"))
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	csReq := placeRequest("20", "1.5")
	csReq.Game = models.GameCS2
	csReq.Tournament = "ESL Pro League"
	csReq.Team1 = "NAVI"
	csReq.Team2 = "FaZe"
	csReq.Tier = 2
	csReq.Risk = 2
	placedLoss, err := bets.Place(ctx, 1, session.ID, csReq)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	longReq := placeRequest("30", "3.0")
	longReq.Risk = 5
	placedPending, err := bets.Place(ctx, 1, session.ID, longReq)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	settledWin, err := bets.Settle(ctx, 1, placedWin.Bet.ID, models.BetStatusWin)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	settledLoss, err := bets.Settle(ctx, 1, placedLoss.Bet.ID, models.BetStatusLose)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	return settledWin.Bet, settledLoss.Bet, placedPending.Bet, sessionID
}

func TestListBetsFilters(t *testing.T) {
	_, sessions, bets := newServices(t)
	ctx := context.Background()

	win, loss, pending, sessionID := seedTerminal(t, sessions, bets)

	// A second user's bet must never leak into the results.
	other := mustCreateSession(t, sessions, 2, "Other", "500")
	if _, err := bets.Place(ctx, 2, other.ID, placeRequest("5", "1.8")); err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	all, err := bets.ListBets(ctx, 1, BetListQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("expected 3 bets, got %d", len(all.Items))
	}

	bySession, err := bets.ListBets(ctx, 1, BetListQuery{SessionID: &sessionID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bySession.Items) != 3 {
		t.Fatalf("expected 3 bets in session, got %d", len(bySession.Items))
	}

	pendingOnly, err := bets.ListBets(ctx, 1, BetListQuery{Status: "PENDING"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pendingOnly.Items) != 1 || pendingOnly.Items[0].ID != pending.ID {
		t.Fatalf("expected only the pending bet, got %d items", len(pendingOnly.Items))
	}

	wins, err := bets.ListBets(ctx, 1, BetListQuery{Status: "WIN"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(wins.Items) != 1 || wins.Items[0].ID != win.ID {
		t.Fatalf("expected only the settled win, got %d items", len(wins.Items))
	}

	cs, err := bets.ListBets(ctx, 1, BetListQuery{Game: "CS2"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cs.Items) != 1 || cs.Items[0].ID != loss.ID {
		t.Fatalf("expected only the CS2 bet, got %d items", len(cs.Items))
	}

	tier2, err := bets.ListBets(ctx, 1, BetListQuery{Tier: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tier2.Items) != 1 || tier2.Items[0].ID != loss.ID {
		t.Fatalf("expected only the tier 2 bet, got %d items", len(tier2.Items))
	}

	byTeam, err := bets.ListBets(ctx, 1, BetListQuery{Q: "navi"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byTeam.Items) != 1 || byTeam.Items[0].ID != loss.ID {
		t.Fatalf("expected only the NAVI bet, got %d items", len(byTeam.Items))
	}

	// A one-character needle is too short to filter on.
	tooShort, err := bets.ListBets(ctx, 1, BetListQuery{Q: "n"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tooShort.Items) != 3 {
		t.Fatalf("expected short needle to be ignored, got %d items", len(tooShort.Items))
	}

	byOdds, err := bets.ListBets(ctx, 1, BetListQuery{Sort: "odds", Order: "asc"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if byOdds.Items[0].ID != loss.ID || byOdds.Items[2].ID != pending.ID {
		t.Fatal("expected bets ordered by ascending odds")
	}
}

func TestListBetsPageSummary(t *testing.T) {
	_, sessions, bets := newServices(t)
	ctx := context.Background()

	seedTerminal(t, sessions, bets)

	res, err := bets.ListBets(ctx, 1, BetListQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	sum := res.Summary
	if sum.Wins != 1 || sum.Losses != 1 || sum.Pending != 1 {
		t.Fatalf("unexpected counts: wins=%d losses=%d pending=%d", sum.Wins, sum.Losses, sum.Pending)
	}
	if !sum.StakeSum.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected stake sum 60, got %s", sum.StakeSum)
	}
	if !sum.ProfitSum.Equal(decimal.RequireFromString("-10")) {
		t.Fatalf("expected profit sum -10, got %s", sum.ProfitSum)
	}
	if sum.Winrate != 0.5 {
		t.Fatalf("expected winrate 0.5, got %v", sum.Winrate)
	}
	wantROI, _ := decimal.RequireFromString("-10").Div(decimal.RequireFromString("60")).Float64()
	if sum.ROI != wantROI {
		t.Fatalf("expected roi %v, got %v", wantROI, sum.ROI)
	}
}

func TestListBetsPagination(t *testing.T) {
	_, sessions, bets := newServices(t)
	ctx := context.Background()

	seedTerminal(t, sessions, bets)

	page, err := bets.ListBets(ctx, 1, BetListQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 2 || page.Page.Limit != 2 || page.Page.Offset != 0 {
		t.Fatalf("unexpected first page: %d items, limit=%d offset=%d",
			len(page.Items), page.Page.Limit, page.Page.Offset)
	}

	rest, err := bets.ListBets(ctx, 1, BetListQuery{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rest.Items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(rest.Items))
	}
}

func TestSummaryAggregations(t *testing.T) {
	_, sessions, bets := newServices(t)
	ctx := context.Background()

	win, loss, pending, _ := seedTerminal(t, sessions, bets)

	sum, err := bets.Summary(ctx, 1, BetListQuery{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if sum.Totals.BetsTotal != 3 || sum.Totals.Wins != 1 || sum.Totals.Losses != 1 || sum.Totals.Pending != 1 {
		t.Fatalf("unexpected totals: %+v", sum.Totals)
	}
	if !sum.Totals.ProfitSum.Equal(decimal.RequireFromString("-10")) {
		t.Fatalf("expected profit sum -10, got %s", sum.Totals.ProfitSum)
	}

	if sum.Highlights.BiggestWinBet == nil || sum.Highlights.BiggestWinBet.ID != win.ID {
		t.Fatal("expected the winning bet as biggest win")
	}
	if sum.Highlights.BiggestLossBet == nil || sum.Highlights.BiggestLossBet.ID != loss.ID {
		t.Fatal("expected the losing bet as biggest loss")
	}
	if sum.Highlights.BestOddsBet == nil || sum.Highlights.BestOddsBet.ID != pending.ID {
		t.Fatal("expected the 3.0 longshot as best odds")
	}

	// Spirit carries +10 from the win and -0 elsewhere; NAVI carries -20.
	if sum.Highlights.BestTeam == nil || sum.Highlights.BestTeam.Team != "Spirit" {
		t.Fatalf("unexpected best team: %+v", sum.Highlights.BestTeam)
	}
	if !sum.Highlights.BestTeam.Profit.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected best team profit 10, got %s", sum.Highlights.BestTeam.Profit)
	}

	// Every stake deviated from its recommendation, so the tracker has data.
	if sum.Discipline.AvgDeviationPct < 0 {
		t.Fatalf("unexpected deviation: %v", sum.Discipline.AvgDeviationPct)
	}
}

func TestSummaryRespectsFilters(t *testing.T) {
	_, sessions, bets := newServices(t)
	ctx := context.Background()

	_, loss, _, _ := seedTerminal(t, sessions, bets)

	sum, err := bets.Summary(ctx, 1, BetListQuery{Game: "CS2"})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if sum.Totals.BetsTotal != 1 || sum.Totals.Losses != 1 {
		t.Fatalf("expected only the CS2 loss, got %+v", sum.Totals)
	}
	if sum.Highlights.BiggestLossBet == nil || sum.Highlights.BiggestLossBet.ID != loss.ID {
		t.Fatal("expected the CS2 bet as biggest loss")
	}
	if sum.Highlights.BestTeam == nil || sum.Highlights.BestTeam.Team != "NAVI" {
		t.Fatalf("unexpected best team: %+v", sum.Highlights.BestTeam)
	}
}

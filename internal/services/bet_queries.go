package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bankroll-terminal/internal/models"
)

// BetListQuery carries the shared filters of GET /bets and GET /summary.
// Zero values mean "not filtered".
type BetListQuery struct {
	SessionID *uuid.UUID
	Status    string
	Game      string
	Tier      int
	Risk      int
	From      string // YYYY-MM-DD, inclusive
	To        string // YYYY-MM-DD, inclusive
	Q         string // team1/team2/tournament substring, min 2 chars
	Sort      string
	Order     string
	Limit     int
	Offset    int
}

var betSortColumns = map[string]string{
	"createdAt": "bets.created_at",
	"odds":      "bets.odds",
	"profit":    "bets.profit",
	"stake":     "bets.stake",
	"risk":      "bets.risk",
	"tier":      "bets.tier",
}

func parseDateOnly(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// betFilter applies q's filters scoped to the caller's sessions.
func (s *BetService) betFilter(ctx context.Context, userID uint, q BetListQuery) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Bet{}).
		Joins("JOIN bank_sessions ON bank_sessions.id = bets.session_id").
		Where("bank_sessions.user_id = ?", userID)

	if q.SessionID != nil {
		tx = tx.Where("bets.session_id = ?", *q.SessionID)
	}
	switch models.BetStatus(q.Status) {
	case models.BetStatusPending, models.BetStatusWin, models.BetStatusLose:
		tx = tx.Where("bets.status = ?", q.Status)
	}
	if models.ValidGame(models.Game(q.Game)) {
		tx = tx.Where("bets.game = ?", q.Game)
	}
	if models.ValidTier(q.Tier) {
		tx = tx.Where("bets.tier = ?", q.Tier)
	}
	if models.ValidRisk(q.Risk) {
		tx = tx.Where("bets.risk = ?", q.Risk)
	}

	if from, ok := parseDateOnly(q.From); ok {
		tx = tx.Where("bets.created_at >= ?", from)
	}
	if to, ok := parseDateOnly(q.To); ok {
		tx = tx.Where("bets.created_at < ?", to.AddDate(0, 0, 1))
	}

	if needle := strings.TrimSpace(q.Q); len(needle) >= 2 {
		like := "%" + strings.ToLower(needle) + "%"
		tx = tx.Where("lower(bets.team1) LIKE ? OR lower(bets.team2) LIKE ? OR lower(bets.tournament) LIKE ?", like, like, like)
	}

	return tx
}

func pageSummary(bets []models.Bet) models.BetPageSummary {
	var sum models.BetPageSummary
	sum.StakeSum = decimal.Zero
	sum.ProfitSum = decimal.Zero

	for i := range bets {
		switch bets[i].Status {
		case models.BetStatusWin:
			sum.Wins++
		case models.BetStatusLose:
			sum.Losses++
		default:
			sum.Pending++
		}
		sum.StakeSum = sum.StakeSum.Add(bets[i].Stake)
		sum.ProfitSum = sum.ProfitSum.Add(bets[i].Profit)
	}

	if settled := sum.Wins + sum.Losses; settled > 0 {
		sum.Winrate = float64(sum.Wins) / float64(settled)
	}
	if sum.StakeSum.IsPositive() {
		sum.ROI, _ = sum.ProfitSum.Div(sum.StakeSum).Float64()
	}
	return sum
}

// ListBets returns a filtered, sorted page of the caller's bets across all
// sessions, with a per-page summary block for the UI.
func (s *BetService) ListBets(ctx context.Context, userID uint, q BetListQuery) (*models.BetListResult, error) {
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	col, ok := betSortColumns[q.Sort]
	if !ok {
		col = "bets.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		dir = "ASC"
	}

	var bets []models.Bet
	err := s.betFilter(ctx, userID, q).
		Order(fmt.Sprintf("%s %s, bets.id DESC", col, dir)).
		Limit(limit).
		Offset(offset).
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	return &models.BetListResult{
		Items:   bets,
		Page:    models.Page{Limit: limit, Offset: offset},
		Summary: pageSummary(bets),
	}, nil
}

// Summary aggregates the whole filtered set: totals, notable bets, and how
// disciplined the actual stakes were against the stored recommendations.
func (s *BetService) Summary(ctx context.Context, userID uint, q BetListQuery) (*models.TerminalSummary, error) {
	var bets []models.Bet
	err := s.betFilter(ctx, userID, q).
		Order("bets.created_at DESC, bets.id DESC").
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bets for summary: %w", err)
	}

	var out models.TerminalSummary
	out.Totals.StakeSum = decimal.Zero
	out.Totals.ProfitSum = decimal.Zero

	teamProfit := make(map[string]decimal.Decimal)
	var (
		deviationAbsSum float64
		deviationCount  int
		deviationOver10 int
	)

	for i := range bets {
		b := &bets[i]
		out.Totals.BetsTotal++

		switch b.Status {
		case models.BetStatusWin:
			out.Totals.Wins++
			if out.Highlights.BiggestWinBet == nil || b.Profit.GreaterThan(out.Highlights.BiggestWinBet.Profit) {
				out.Highlights.BiggestWinBet = b
			}
		case models.BetStatusLose:
			out.Totals.Losses++
			if out.Highlights.BiggestLossBet == nil || b.Profit.LessThan(out.Highlights.BiggestLossBet.Profit) {
				out.Highlights.BiggestLossBet = b
			}
		default:
			out.Totals.Pending++
		}

		out.Totals.StakeSum = out.Totals.StakeSum.Add(b.Stake)
		out.Totals.ProfitSum = out.Totals.ProfitSum.Add(b.Profit)

		if out.Highlights.BestOddsBet == nil || b.Odds.GreaterThan(out.Highlights.BestOddsBet.Odds) {
			out.Highlights.BestOddsBet = b
		}

		team := b.Team1
		if b.PickTeam != nil && *b.PickTeam != "" {
			team = *b.PickTeam
		}
		if team != "" {
			teamProfit[team] = teamProfit[team].Add(b.Profit)
		}

		if b.RecommendedStake.IsPositive() {
			dev, _ := b.Stake.Sub(b.RecommendedStake).Div(b.RecommendedStake).Float64()
			deviationAbsSum += math.Abs(dev)
			deviationCount++
			if math.Abs(dev) > 0.1 {
				deviationOver10++
			}
		}
	}

	if settled := out.Totals.Wins + out.Totals.Losses; settled > 0 {
		out.Totals.Winrate = float64(out.Totals.Wins) / float64(settled)
	}
	if out.Totals.StakeSum.IsPositive() {
		out.Totals.ROI, _ = out.Totals.ProfitSum.Div(out.Totals.StakeSum).Float64()
	}

	for team, profit := range teamProfit {
		if out.Highlights.BestTeam == nil || profit.GreaterThan(out.Highlights.BestTeam.Profit) {
			out.Highlights.BestTeam = &models.TeamProfit{Team: team, Profit: profit}
		}
	}

	if deviationCount > 0 {
		out.Discipline.AvgDeviationPct = deviationAbsSum / float64(deviationCount)
		out.Discipline.DeviationOver10Share = float64(deviationOver10) / float64(deviationCount)
	}

	return &out, nil
}

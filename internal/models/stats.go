package models

import "github.com/shopspring/decimal"

// Page echoes pagination back to the client.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// BetPageSummary aggregates one page of bets.
type BetPageSummary struct {
	Wins      int             `json:"wins"`
	Losses    int             `json:"losses"`
	Pending   int             `json:"pending"`
	Winrate   float64         `json:"winrate"`
	StakeSum  decimal.Decimal `json:"stakeSum"`
	ProfitSum decimal.Decimal `json:"profitSum"`
	ROI       float64         `json:"roi"`
}

// BetListResult is the response of GET /bets.
type BetListResult struct {
	Items   []Bet          `json:"items"`
	Page    Page           `json:"page"`
	Summary BetPageSummary `json:"summary"`
}

// TeamProfit is the most profitable pick across the filtered set.
type TeamProfit struct {
	Team   string          `json:"team"`
	Profit decimal.Decimal `json:"profit"`
}

// SummaryTotals aggregates the whole filtered data set, not just one page.
type SummaryTotals struct {
	BetsTotal int             `json:"betsTotal"`
	Wins      int             `json:"wins"`
	Losses    int             `json:"losses"`
	Pending   int             `json:"pending"`
	Winrate   float64         `json:"winrate"`
	StakeSum  decimal.Decimal `json:"stakeSum"`
	ProfitSum decimal.Decimal `json:"profitSum"`
	ROI       float64         `json:"roi"`
}

// SummaryHighlights points at notable bets of the filtered set.
type SummaryHighlights struct {
	BestOddsBet    *Bet        `json:"bestOddsBet"`
	BiggestWinBet  *Bet        `json:"biggestWinBet"`
	BiggestLossBet *Bet        `json:"biggestLossBet"`
	BestTeam       *TeamProfit `json:"bestTeam"`
}

// SummaryDiscipline measures how far actual stakes strayed from the
// recommendations snapshotted at placement time.
type SummaryDiscipline struct {
	AvgDeviationPct      float64 `json:"avgDeviationPct"`
	DeviationOver10Share float64 `json:"deviationOver10Share"`
}

// TerminalSummary is the response of GET /summary.
type TerminalSummary struct {
	Totals     SummaryTotals     `json:"totals"`
	Highlights SummaryHighlights `json:"highlights"`
	Discipline SummaryDiscipline `json:"discipline"`
}

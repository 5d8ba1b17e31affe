// Package staking computes stake recommendations for the bankroll ledger.
// The calculator is pure: all tunables live in a Config value and identical
// inputs always produce identical outputs. Formula versions are tagged so
// stakes stored under older tables stay attributable.
package staking

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// ModelKvantoniumV3 is the canonical formula.
	ModelKvantoniumV3 = "kvantonium_v3"
	// ModelRiskAdjustedV1 is the earlier formula, kept selectable by tag only
	// so historical recommendations remain reproducible.
	ModelRiskAdjustedV1 = "risk_adjusted_v1"
)

var (
	ErrBankNotPositive = errors.New("bank must be > 0")
	ErrOddsTooLow      = errors.New("odds must be > 1")
)

// Config holds the factor tables and safety clamps of one formula version.
type Config struct {
	Model string

	// Odds working range; inputs are clamped into it before the base curve.
	MinOdds float64
	MaxOdds float64

	// Final percentage rails. These are the guarantee that the engine never
	// recommends betting the bank.
	MinPct float64
	MaxPct float64

	BO   map[int]float64
	Tier map[int]float64
	Risk map[int]float64
}

// DefaultConfig returns the canonical kvantonium_v3 tables.
func DefaultConfig() Config {
	return Config{
		Model:   ModelKvantoniumV3,
		MinOdds: 1.2,
		MaxOdds: 3.0,
		MinPct:  0.001,
		MaxPct:  0.07,
		BO:      map[int]float64{1: 0.78, 2: 0.88, 3: 1.00, 5: 1.06},
		Tier:    map[int]float64{1: 1.00, 2: 0.78, 3: 0.62},
		Risk:    map[int]float64{1: 1.12, 2: 0.82, 3: 0.64, 4: 0.47, 5: 0.34},
	}
}

// LegacyConfig returns the risk_adjusted_v1 tables.
func LegacyConfig() Config {
	return Config{
		Model:   ModelRiskAdjustedV1,
		MinOdds: 1.2,
		MaxOdds: 3.0,
		MinPct:  0.0025,
		MaxPct:  0.03,
		BO:      map[int]float64{1: 0.90, 2: 0.95, 3: 1.00, 5: 1.05},
		Tier:    map[int]float64{1: 1.00, 2: 0.95, 3: 0.90},
		Risk:    map[int]float64{1: 1.10, 2: 1.00, 3: 0.90, 4: 0.80, 5: 0.70},
	}
}

// Input is one recommendation request. Bank is the capital actually free to
// risk (current bank minus pending exposure), not the raw session bank.
type Input struct {
	Bank float64
	Odds float64
	BO   int
	Tier int
	Risk int
}

// Recommendation is the engine output. Pct is the fraction of Bank to stake,
// Stake the rounded amount, Model the formula tag that produced them.
type Recommendation struct {
	Pct   decimal.Decimal
	Stake decimal.Decimal
	Model string
}

// Recommend computes the stake recommendation for in under cfg. It rejects
// degenerate inputs instead of returning a degenerate recommendation.
func Recommend(cfg Config, in Input) (Recommendation, error) {
	if !(in.Bank > 0) {
		return Recommendation{}, ErrBankNotPositive
	}
	if !(in.Odds > 1) {
		return Recommendation{}, ErrOddsTooLow
	}

	mBO, ok := cfg.BO[in.BO]
	if !ok {
		return Recommendation{}, fmt.Errorf("invalid bo %d", in.BO)
	}
	mTier, ok := cfg.Tier[in.Tier]
	if !ok {
		return Recommendation{}, fmt.Errorf("invalid tier %d", in.Tier)
	}
	mRisk, ok := cfg.Risk[in.Risk]
	if !ok {
		return Recommendation{}, fmt.Errorf("invalid risk %d", in.Risk)
	}

	pct := base(cfg, in.Odds) * mBO * mTier * mRisk
	pct = clamp(pct, cfg.MinPct, cfg.MaxPct)

	return Recommendation{
		Pct:   decimal.NewFromFloat(pct).Round(5),
		Stake: decimal.NewFromFloat(in.Bank * pct).Round(2),
		Model: cfg.Model,
	}, nil
}

// base maps odds to the pre-factor percentage of bank. Higher odds mean higher
// uncertainty, so the curve decreases over the clamped working range.
func base(cfg Config, odds float64) float64 {
	switch cfg.Model {
	case ModelRiskAdjustedV1:
		// v1 used a flat 1% base scaled by a bounded linear odds multiplier.
		return 0.01 * clamp((odds-1)/1.5, 0.85, 1.10)
	default:
		o := clamp(odds, cfg.MinOdds, cfg.MaxOdds)
		t := (o - cfg.MinOdds) / (cfg.MaxOdds - cfg.MinOdds)
		// ~2.2% at the bottom of the range down to ~1.2% at the top.
		return 0.022 - 0.010*math.Pow(t, 0.9)
	}
}

func clamp(x, min, max float64) float64 {
	return math.Max(min, math.Min(max, x))
}

package scanner

import (
	"fmt"
	"math/big"

	"github.com/solverworks/fusionscan/internal/domain"
)

// ScoreConfig holds the tunable parameters of the opportunity scoring model.
// The zero value is not usable; start from DefaultScoreConfig.
type ScoreConfig struct {
	// ProfitWeight is points per 1% of profit margin, capped at ProfitCap.
	ProfitWeight float64
	ProfitCap    float64
	// MaturityThreshold is the auction progress beyond which maturity points
	// accrue; MaturityWeight spreads over the remaining window.
	MaturityThreshold float64
	MaturityWeight    float64
	// GasBonus is added when the gas cost is known and within the ceiling;
	// GasPenalty is subtracted when it is known and above. Unknown gas
	// contributes nothing either way.
	GasBonus   float64
	GasPenalty float64
	// MajorChainBonus is added when both chains are in MajorChains.
	MajorChainBonus float64
	// Recommendation thresholds: raw score > FillNowThreshold is FILL_NOW,
	// raw score > MonitorThreshold is MONITOR, anything else SKIP.
	FillNowThreshold float64
	MonitorThreshold float64
	// MajorChains is the curated set of high-liquidity networks.
	MajorChains map[int64]bool
}

// DefaultScoreConfig returns the reference scoring parameters.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		ProfitWeight:      10,
		ProfitCap:         40,
		MaturityThreshold: 0.5,
		MaturityWeight:    60,
		GasBonus:          20,
		GasPenalty:        10,
		MajorChainBonus:   10,
		FillNowThreshold:  60,
		MonitorThreshold:  30,
		MajorChains: map[int64]bool{
			1:     true, // Ethereum
			10:    true, // Optimism
			56:    true, // BNB Chain
			137:   true, // Polygon
			8453:  true, // Base
			42161: true, // Arbitrum
			43114: true, // Avalanche
		},
	}
}

// ScoreInput carries the per-order factors the scorer combines.
type ScoreInput struct {
	ProfitMarginPercent float64
	AuctionProgress     float64 // [0,1]
	GasCost             *big.Int // nil when unknown
	MaxGasPrice         *big.Int // nil when no ceiling was given
	MajorPair           bool
}

// ScoreResult is the scored outcome. Raw keeps the unclamped sum used for
// ranking and thresholds; Score is clamped to [0,100] for display.
type ScoreResult struct {
	Raw            float64
	Score          int
	Recommendation domain.Recommendation
	Factors        []string
}

// Score applies the additive scoring model in its fixed order: profit,
// auction maturity, gas acceptability, chain-pair popularity.
func (c ScoreConfig) Score(in ScoreInput) ScoreResult {
	var raw float64
	var factors []string

	if in.ProfitMarginPercent > 0 {
		pts := in.ProfitMarginPercent * c.ProfitWeight
		if pts > c.ProfitCap {
			pts = c.ProfitCap
		}
		raw += pts
		factors = append(factors, fmt.Sprintf("profit margin %.2f%%: +%.1f", in.ProfitMarginPercent, pts))
	} else {
		factors = append(factors, fmt.Sprintf("profit margin %.2f%%: no contribution", in.ProfitMarginPercent))
	}

	if in.AuctionProgress > c.MaturityThreshold {
		pts := (in.AuctionProgress - c.MaturityThreshold) * c.MaturityWeight
		raw += pts
		factors = append(factors, fmt.Sprintf("auction %.0f%% complete: +%.1f", in.AuctionProgress*100, pts))
	}

	switch {
	case in.GasCost == nil:
		factors = append(factors, "gas cost unknown")
	case in.MaxGasPrice == nil || in.GasCost.Cmp(in.MaxGasPrice) <= 0:
		raw += c.GasBonus
		factors = append(factors, fmt.Sprintf("gas cost acceptable: +%.0f", c.GasBonus))
	default:
		raw -= c.GasPenalty
		factors = append(factors, fmt.Sprintf("gas cost above ceiling: -%.0f", c.GasPenalty))
	}

	if in.MajorPair {
		raw += c.MajorChainBonus
		factors = append(factors, fmt.Sprintf("major chain pair: +%.0f", c.MajorChainBonus))
	}

	var rec domain.Recommendation
	switch {
	case raw > c.FillNowThreshold:
		rec = domain.RecommendFillNow
	case raw > c.MonitorThreshold:
		rec = domain.RecommendMonitor
	default:
		rec = domain.RecommendSkip
	}

	return ScoreResult{
		Raw:            raw,
		Score:          clampScore(raw),
		Recommendation: rec,
		Factors:        factors,
	}
}

// IsMajorPair reports whether both chains are in the major set.
func (c ScoreConfig) IsMajorPair(srcChainID, dstChainID int64) bool {
	return c.MajorChains[srcChainID] && c.MajorChains[dstChainID]
}

// clampScore saturates the raw score into the displayable [0,100] range.
func clampScore(raw float64) int {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return int(raw)
}

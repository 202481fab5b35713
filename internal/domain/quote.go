package domain

import "math/big"

// PresetTier identifies a quote preset speed tier.
type PresetTier string

const (
	PresetFast   PresetTier = "fast"
	PresetMedium PresetTier = "medium"
	PresetSlow   PresetTier = "slow"
	PresetCustom PresetTier = "custom"
)

// QuotePreset is one speed tier of a quote. CostInDstToken is the estimated
// gas cost denominated in the destination asset's smallest unit; nil means
// the API did not report one.
type QuotePreset struct {
	AuctionDuration int64 // seconds
	CostInDstToken  *big.Int
}

// Quote is a point-in-time market exchange estimate for a token pair and
// amount. Quotes are request-scoped and never persisted; every scan fetches
// fresh ones.
type Quote struct {
	QuoteID           string
	DstTokenAmount    *big.Int
	Presets           map[PresetTier]QuotePreset
	RecommendedPreset PresetTier
}

// RecommendedGasCost returns the gas cost of the recommended preset, or nil
// when the preset (or its cost) is absent. Unknown gas is represented as nil,
// never as zero, so the scorer can distinguish "free" from "unreported".
func (q Quote) RecommendedGasCost() *big.Int {
	if q.Presets == nil {
		return nil
	}
	p, ok := q.Presets[q.RecommendedPreset]
	if !ok {
		return nil
	}
	return p.CostInDstToken
}

// QuoteParams describes a quote request: swap amount of SrcToken on SrcChain
// into DstToken on DstChain, on behalf of Wallet.
type QuoteParams struct {
	SrcChainID int64
	DstChainID int64
	SrcToken   string
	DstToken   string
	Amount     *big.Int
	Wallet     string
}

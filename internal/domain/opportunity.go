package domain

import (
	"math/big"
	"time"
)

// Recommendation is the discrete action suggested for an opportunity.
type Recommendation string

const (
	RecommendFillNow Recommendation = "FILL_NOW"
	RecommendMonitor Recommendation = "MONITOR"
	RecommendSkip    Recommendation = "SKIP"
)

// OpportunityRecord is the scored evaluation of a single order. Score is the
// display score clamped to [0,100]; RawScore keeps the unclamped arithmetic
// (gas penalties can drive it negative) and is what the ranking sorts on.
type OpportunityRecord struct {
	OrderHash              string         `json:"orderHash"`
	SrcChainID             int64          `json:"srcChainId"`
	DstChainID             int64          `json:"dstChainId"`
	Score                  int            `json:"score"`
	RawScore               float64        `json:"-"`
	ProfitMarginPercent    string         `json:"profitMarginPercent"`
	RawProfit              *big.Int       `json:"-"`
	RawProfitWei           string         `json:"rawProfit"`
	AuctionProgressPercent float64        `json:"auctionProgressPercent"`
	TimeRemainingMs        int64          `json:"timeRemainingMs"`
	Recommendation         Recommendation `json:"recommendation"`
	ScoringFactors         []string       `json:"scoringFactors"`
}

// ReportSummary aggregates recommendation counts and score statistics over
// the ranked list.
type ReportSummary struct {
	FillNow      int     `json:"fillNow"`
	Monitor      int     `json:"monitor"`
	Skip         int     `json:"skip"`
	BestScore    int     `json:"bestScore"`
	AverageScore float64 `json:"averageScore"`
}

// Report is the outcome of one scan invocation. It is always well-formed,
// even when every order individually failed evaluation; absence from
// Opportunities, not a zero score, is how per-order failure is represented.
type Report struct {
	ID                      string              `json:"id"`
	ScanTimestamp           time.Time           `json:"scanTimestamp"`
	ResolverAddress         string              `json:"resolverAddress"`
	TotalOrdersScanned      int                 `json:"totalOrdersScanned"`
	ValidOpportunitiesFound int                 `json:"validOpportunitiesFound"`
	Opportunities           []OpportunityRecord `json:"opportunities"`
	Summary                 ReportSummary       `json:"summary"`
	MinProfitThreshold      float64             `json:"minProfitThreshold,omitempty"`
	Note                    string              `json:"note,omitempty"`
}

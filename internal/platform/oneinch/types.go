package oneinch

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/solverworks/fusionscan/internal/domain"
)

// flexMillis unmarshals a timestamp that the API has sent as a JSON number
// or a numeric string, in either seconds or milliseconds. Values below 1e12
// are treated as seconds.
type flexMillis int64

func (f *flexMillis) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
		if !ok {
			*f = 0
			return nil
		}
		n = parsed.Int64()
	}
	if n > 0 && n < 1_000_000_000_000 {
		n *= 1000
	}
	*f = flexMillis(n)
	return nil
}

// parseAmount converts a decimal-string amount into a big.Int. It returns
// nil for empty, malformed, or negative values; callers decide whether nil
// is fatal for the record.
func parseAmount(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil
	}
	return n
}

// --------------------------------------------------------------------------
// Order book DTOs
// --------------------------------------------------------------------------

// APIActiveOrdersResponse is the paged envelope of the active-orders listing.
type APIActiveOrdersResponse struct {
	Meta  APIPageMeta      `json:"meta"`
	Items []APIActiveOrder `json:"items"`
}

// APIPageMeta carries pagination metadata.
type APIPageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// APIActiveOrder is one open order as returned by the order book. Every
// field is treated as optional; ToDomainOrder validates the ones the scanner
// depends on.
type APIActiveOrder struct {
	OrderHash            string        `json:"orderHash"`
	SrcChainID           int64         `json:"srcChainId"`
	DstChainID           int64         `json:"dstChainId"`
	AuctionStartDate     flexMillis    `json:"auctionStartDate"`
	AuctionEndDate       flexMillis    `json:"auctionEndDate"`
	RemainingMakerAmount string        `json:"remainingMakerAmount"`
	Order                *APIOrderBody `json:"order"`
}

// APIOrderBody is the inner signed-order payload.
type APIOrderBody struct {
	Maker        string `json:"maker"`
	MakerAsset   string `json:"makerAsset"`
	TakerAsset   string `json:"takerAsset"`
	MakingAmount string `json:"makingAmount"`
	TakingAmount string `json:"takingAmount"`
}

// ToDomainOrder converts an APIActiveOrder, rejecting items that lack the
// fields the scanner cannot work without.
func (o *APIActiveOrder) ToDomainOrder() (domain.Order, error) {
	if o.OrderHash == "" {
		return domain.Order{}, fmt.Errorf("order missing orderHash")
	}
	if o.SrcChainID <= 0 || o.DstChainID <= 0 {
		return domain.Order{}, fmt.Errorf("order %s has non-positive chain ids", o.OrderHash)
	}
	if o.Order == nil {
		return domain.Order{}, fmt.Errorf("order %s missing inner order body", o.OrderHash)
	}
	if !common.IsHexAddress(o.Order.MakerAsset) || !common.IsHexAddress(o.Order.TakerAsset) {
		return domain.Order{}, fmt.Errorf("order %s has malformed asset addresses", o.OrderHash)
	}

	making := parseAmount(o.Order.MakingAmount)
	taking := parseAmount(o.Order.TakingAmount)
	if making == nil || taking == nil {
		return domain.Order{}, fmt.Errorf("order %s has malformed amounts", o.OrderHash)
	}

	return domain.Order{
		OrderHash:            o.OrderHash,
		SrcChainID:           o.SrcChainID,
		DstChainID:           o.DstChainID,
		MakerAsset:           strings.ToLower(o.Order.MakerAsset),
		TakerAsset:           strings.ToLower(o.Order.TakerAsset),
		MakingAmount:         making,
		TakingAmount:         taking,
		RemainingMakerAmount: parseAmount(o.RemainingMakerAmount),
		AuctionStartDate:     int64(o.AuctionStartDate),
		AuctionEndDate:       int64(o.AuctionEndDate),
	}, nil
}

// APIOrderStatus is the status endpoint response.
type APIOrderStatus struct {
	OrderHash   string     `json:"orderHash"`
	Status      string     `json:"status"`
	LastUpdated flexMillis `json:"lastUpdated"`
}

// ToDomainStatus maps the API status string onto the domain enumeration.
// Unrecognized values become OrderStatusUnknown so a new upstream state never
// accidentally counts as pending.
func (s *APIOrderStatus) ToDomainStatus(orderHash string) domain.OrderStatusInfo {
	hash := s.OrderHash
	if hash == "" {
		hash = orderHash
	}

	var status domain.OrderStatus
	switch strings.ToLower(s.Status) {
	case "pending":
		status = domain.OrderStatusPending
	case "executed", "filled":
		status = domain.OrderStatusFilled
	case "expired":
		status = domain.OrderStatusExpired
	case "cancelled":
		status = domain.OrderStatusCancelled
	case "refunding", "refunded":
		status = domain.OrderStatusRefunding
	default:
		status = domain.OrderStatusUnknown
	}

	return domain.OrderStatusInfo{
		OrderHash:   hash,
		Status:      status,
		LastUpdated: int64(s.LastUpdated),
	}
}

// --------------------------------------------------------------------------
// Quoter DTOs
// --------------------------------------------------------------------------

// APIQuote is the quoter response. Presets and price blocks are optional;
// absence must never panic.
type APIQuote struct {
	QuoteID           string               `json:"quoteId"`
	DstTokenAmount    string               `json:"dstTokenAmount"`
	RecommendedPreset string               `json:"recommendedPreset"`
	Presets           map[string]APIPreset `json:"presets"`
}

// APIPreset is one speed tier inside a quote.
type APIPreset struct {
	AuctionDuration int64  `json:"auctionDuration"`
	CostInDstToken  string `json:"costInDstToken"`
}

// ToDomainQuote converts an APIQuote. A missing dstTokenAmount yields a nil
// DstTokenAmount; the scanner excludes such quotes rather than defaulting.
func (q *APIQuote) ToDomainQuote() domain.Quote {
	quote := domain.Quote{
		QuoteID:           q.QuoteID,
		DstTokenAmount:    parseAmount(q.DstTokenAmount),
		RecommendedPreset: domain.PresetTier(strings.ToLower(q.RecommendedPreset)),
	}

	if len(q.Presets) > 0 {
		quote.Presets = make(map[domain.PresetTier]domain.QuotePreset, len(q.Presets))
		for tier, p := range q.Presets {
			quote.Presets[domain.PresetTier(strings.ToLower(tier))] = domain.QuotePreset{
				AuctionDuration: p.AuctionDuration,
				CostInDstToken:  parseAmount(p.CostInDstToken),
			}
		}
	}
	return quote
}

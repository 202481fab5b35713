package scanner

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/solverworks/fusionscan/internal/domain"
)

// Estimate is the profit picture for one order against a fresh market quote.
// RawProfit and GasCost are in the maker asset's smallest unit; GasCost is
// nil when the quote did not report one (unknown, not zero).
type Estimate struct {
	RawProfit           *big.Int
	ProfitMarginPercent decimal.Decimal
	GasCost             *big.Int
}

// ReverseQuoteParams builds the quote request that prices what the resolver
// must acquire to fill the order: swap takingAmount of the taker asset back
// into the maker asset. The resulting quote's DstTokenAmount is the market
// value, in maker-asset units, of the resolver's required input.
func ReverseQuoteParams(order domain.Order, wallet string) domain.QuoteParams {
	return domain.QuoteParams{
		SrcChainID: order.DstChainID,
		DstChainID: order.SrcChainID,
		SrcToken:   order.TakerAsset,
		DstToken:   order.MakerAsset,
		Amount:     order.TakingAmount,
		Wallet:     wallet,
	}
}

// EstimateProfit computes the raw profit and margin for filling order given
// the reverse-direction quote. Both operands stay arbitrary-precision
// integers:
//
//	rawProfit = makingAmount - quote.dstTokenAmount
//
// where makingAmount is what the resolver receives and dstTokenAmount is the
// market cost of what it must deliver. The margin is rawProfit*100 divided by
// the market cost, or zero when the denominator is zero.
func EstimateProfit(order domain.Order, quote domain.Quote) Estimate {
	expected := order.MakingAmount
	if expected == nil {
		expected = new(big.Int)
	}
	input := quote.DstTokenAmount
	if input == nil {
		input = new(big.Int)
	}

	raw := new(big.Int).Sub(expected, input)

	var margin decimal.Decimal
	if input.Sign() != 0 {
		// NewFromBigInt(raw, 2) is raw*10^2, so this is rawProfit*100/input.
		margin = decimal.NewFromBigInt(raw, 2).DivRound(decimal.NewFromBigInt(input, 0), 6)
	}

	return Estimate{
		RawProfit:           raw,
		ProfitMarginPercent: margin,
		GasCost:             quote.RecommendedGasCost(),
	}
}

package scanner

import (
	"math/big"
	"testing"

	"github.com/solverworks/fusionscan/internal/domain"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big.Int literal %q", s)
	}
	return n
}

func TestEstimateProfit_ExactArithmetic(t *testing.T) {
	// 100 tokens received for a market cost of 99 tokens, 18 decimals.
	order := domain.Order{
		MakingAmount: mustBig(t, "100000000000000000000"),
		TakingAmount: mustBig(t, "50000000000000000000"),
	}
	quote := domain.Quote{
		DstTokenAmount: mustBig(t, "99000000000000000000"),
	}

	est := EstimateProfit(order, quote)

	if want := mustBig(t, "1000000000000000000"); est.RawProfit.Cmp(want) != 0 {
		t.Errorf("RawProfit = %s, want %s", est.RawProfit, want)
	}
	// 1/99 * 100 rounded to 6 places.
	if got := est.ProfitMarginPercent.String(); got != "1.010101" {
		t.Errorf("ProfitMarginPercent = %s, want 1.010101", got)
	}
	if est.GasCost != nil {
		t.Errorf("GasCost = %s, want nil for quote without presets", est.GasCost)
	}
}

func TestEstimateProfit_Unprofitable(t *testing.T) {
	order := domain.Order{MakingAmount: big.NewInt(90)}
	quote := domain.Quote{DstTokenAmount: big.NewInt(100)}

	est := EstimateProfit(order, quote)

	if want := big.NewInt(-10); est.RawProfit.Cmp(want) != 0 {
		t.Errorf("RawProfit = %s, want %s", est.RawProfit, want)
	}
	if got := est.ProfitMarginPercent.String(); got != "-10" {
		t.Errorf("ProfitMarginPercent = %s, want -10", got)
	}
}

func TestEstimateProfit_ZeroDenominator(t *testing.T) {
	order := domain.Order{MakingAmount: big.NewInt(100)}
	quote := domain.Quote{DstTokenAmount: big.NewInt(0)}

	est := EstimateProfit(order, quote)

	if !est.ProfitMarginPercent.IsZero() {
		t.Errorf("ProfitMarginPercent = %s, want 0", est.ProfitMarginPercent)
	}
	if want := big.NewInt(100); est.RawProfit.Cmp(want) != 0 {
		t.Errorf("RawProfit = %s, want %s", est.RawProfit, want)
	}
}

func TestEstimateProfit_GasFromRecommendedPreset(t *testing.T) {
	order := domain.Order{MakingAmount: big.NewInt(100)}
	quote := domain.Quote{
		DstTokenAmount:    big.NewInt(80),
		RecommendedPreset: domain.PresetFast,
		Presets: map[domain.PresetTier]domain.QuotePreset{
			domain.PresetFast: {CostInDstToken: big.NewInt(7)},
			domain.PresetSlow: {CostInDstToken: big.NewInt(3)},
		},
	}

	est := EstimateProfit(order, quote)

	if want := big.NewInt(7); est.GasCost == nil || est.GasCost.Cmp(want) != 0 {
		t.Errorf("GasCost = %v, want %s", est.GasCost, want)
	}
}

func TestReverseQuoteParams(t *testing.T) {
	order := domain.Order{
		SrcChainID:   1,
		DstChainID:   137,
		MakerAsset:   "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TakerAsset:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		MakingAmount: big.NewInt(100),
		TakingAmount: big.NewInt(50),
	}

	params := ReverseQuoteParams(order, "0x1111111111111111111111111111111111111111")

	if params.SrcChainID != 137 || params.DstChainID != 1 {
		t.Errorf("chains = %d -> %d, want 137 -> 1", params.SrcChainID, params.DstChainID)
	}
	if params.SrcToken != order.TakerAsset {
		t.Errorf("SrcToken = %s, want taker asset %s", params.SrcToken, order.TakerAsset)
	}
	if params.DstToken != order.MakerAsset {
		t.Errorf("DstToken = %s, want maker asset %s", params.DstToken, order.MakerAsset)
	}
	if params.Amount.Cmp(order.TakingAmount) != 0 {
		t.Errorf("Amount = %s, want taking amount %s", params.Amount, order.TakingAmount)
	}
}

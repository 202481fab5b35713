package notify

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/solverworks/fusionscan/internal/domain"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifier_EventFilter(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier([]Sender{sender}, []string{EventFillNow}, testLogger())

	report := domain.Report{ResolverAddress: "0x1111111111111111111111111111111111111111"}
	if err := n.ScanCompleted(context.Background(), report); err != nil {
		t.Fatalf("ScanCompleted: %v", err)
	}
	if len(sender.titles) != 0 {
		t.Errorf("scan_completed delivered despite filter: %v", sender.titles)
	}

	opp := domain.OpportunityRecord{
		OrderHash:           "0xabc",
		SrcChainID:          1,
		DstChainID:          137,
		Score:               88,
		ProfitMarginPercent: "5.25",
		RawProfit:           big.NewInt(1),
	}
	if err := n.FillNow(context.Background(), opp); err != nil {
		t.Fatalf("FillNow: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatalf("fill_now not delivered, titles = %v", sender.titles)
	}
	if !strings.Contains(sender.messages[0], "0xabc") {
		t.Errorf("message = %q, want order hash included", sender.messages[0])
	}
}

func TestNotifier_EmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	if err := n.Failure(context.Background(), "scan", errors.New("boom")); err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Errorf("want delivery with empty filter, got %v", sender.titles)
	}
}

func TestNotifier_SenderFailureDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSender{err: errors.New("down")}
	working := &recordingSender{}
	n := NewNotifier([]Sender{failing, working}, nil, testLogger())

	err := n.ScanCompleted(context.Background(), domain.Report{})
	if err == nil {
		t.Fatal("want combined error when a sender fails")
	}
	if len(working.titles) != 1 {
		t.Error("second sender skipped after first sender failure")
	}
}

func TestNotifier_NoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.ScanCompleted(context.Background(), domain.Report{}); err != nil {
		t.Errorf("ScanCompleted with no senders: %v", err)
	}
}

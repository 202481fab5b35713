// Package notify pushes scan alerts to operator channels. Alerts are
// dispatched to every registered sender (Telegram, Discord) and filtered by
// event type so operators only receive the categories they asked for.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solverworks/fusionscan/internal/domain"
)

// Event types emitted by the scan pipeline.
const (
	EventScanCompleted = "scan_completed"
	EventFillNow       = "fill_now"
	EventError         = "error"
)

// Sender is a single delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a short identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier fans an alert out to all senders. Only events whose type is in the
// configured set are forwarded; an empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders, limited to
// the given event types (empty means all).
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// ScanCompleted announces a finished scan with its headline numbers.
func (n *Notifier) ScanCompleted(ctx context.Context, report domain.Report) error {
	msg := fmt.Sprintf(
		"Resolver %s\nScanned %d orders, %d valid\nFill now: %d  Monitor: %d  Skip: %d\nBest score: %d",
		report.ResolverAddress,
		report.TotalOrdersScanned, report.ValidOpportunitiesFound,
		report.Summary.FillNow, report.Summary.Monitor, report.Summary.Skip,
		report.Summary.BestScore,
	)
	return n.notify(ctx, EventScanCompleted, "Scan completed", msg)
}

// FillNow raises an alert for a single top-recommendation opportunity.
func (n *Notifier) FillNow(ctx context.Context, opp domain.OpportunityRecord) error {
	msg := fmt.Sprintf(
		"Order %s\nChains %d -> %d\nScore %d, margin %s%%\nAuction %.0f%% complete, %ds remaining",
		opp.OrderHash,
		opp.SrcChainID, opp.DstChainID,
		opp.Score, opp.ProfitMarginPercent,
		opp.AuctionProgressPercent, opp.TimeRemainingMs/1000,
	)
	return n.notify(ctx, EventFillNow, "Fill opportunity", msg)
}

// Failure reports an operational error from a named stage of the pipeline.
func (n *Notifier) Failure(ctx context.Context, stage string, err error) error {
	return n.notify(ctx, EventError, "Scanner error",
		fmt.Sprintf("%s: %v", stage, err))
}

func (n *Notifier) notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

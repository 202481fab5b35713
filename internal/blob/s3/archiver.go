package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/solverworks/fusionscan/internal/domain"
)

// Archiver exports scan reports older than a retention cutoff to object
// storage as JSONL and then prunes them from the primary store. The export
// is written and only then are rows deleted, so a failed upload never loses
// data.
type Archiver struct {
	writer domain.BlobWriter
	store  domain.ScanStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver reading from store and writing through
// writer.
func NewArchiver(writer domain.BlobWriter, store domain.ScanStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		store:  store,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveReports exports every report scanned before the cutoff, grouped into
// one JSONL object per calendar month, then deletes the exported rows.
// It returns the number of reports archived.
func (a *Archiver) ArchiveReports(ctx context.Context, before time.Time) (int64, error) {
	reports, err := a.store.ListReportsBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive reports query: %w", err)
	}
	if len(reports) == 0 {
		return 0, nil
	}

	byMonth := make(map[string][]domain.Report)
	for _, r := range reports {
		month := r.ScanTimestamp.UTC().Format("2006/01")
		byMonth[month] = append(byMonth[month], r)
	}

	for month, batch := range byMonth {
		buf, err := marshalJSONL(batch)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive reports marshal: %w", err)
		}

		key := fmt.Sprintf("reports/%s/%s.jsonl", month, before.UTC().Format("20060102T150405Z"))
		if err := a.writer.Write(ctx, key, buf, "application/x-ndjson"); err != nil {
			return 0, fmt.Errorf("s3blob: archive reports upload: %w", err)
		}

		a.logger.InfoContext(ctx, "archived reports",
			slog.String("key", key),
			slog.Int("count", len(batch)),
		)
	}

	deleted, err := a.store.DeleteReportsBefore(ctx, before)
	if err != nil {
		return int64(len(reports)), fmt.Errorf("s3blob: prune archived reports: %w", err)
	}

	a.logger.InfoContext(ctx, "pruned archived reports",
		slog.Int64("deleted", deleted),
		slog.Time("before", before),
	)
	return int64(len(reports)), nil
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// object per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

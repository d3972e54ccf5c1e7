package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/munge/pkg/db"
	"github.com/japaniel/munge/pkg/logging"
)

// Stage appends records to the source_records table after the rows already
// there, committing batchSize rows per transaction. Failed or dropped batches
// are logged to logger. It returns the number of rows committed.
func Stage(ctx context.Context, conn *sql.DB, records []SourceRecord, batchSize int, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	for i, rec := range records {
		if strings.TrimSpace(rec.Head) == "" {
			return 0, fmt.Errorf("record %d: %w", i, ErrEmptyHead)
		}
	}

	start, err := db.NextSourcePosition(conn)
	if err != nil {
		return 0, err
	}

	bw := NewBatchWriter(conn, batchSize)
	bw.OnError = func(err error) {
		logger.Error("staging batch failed", slog.Any("error", err))
	}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			bw.Abort()
			_ = bw.Close()
			return int(bw.Committed()), err
		}
		row := sourceRow(start+i, rec)
		if err := bw.Submit(func(_ context.Context, tx *sql.Tx) error {
			_, err := db.InsertSourceRow(tx, row)
			return err
		}); err != nil {
			_ = bw.Close()
			return int(bw.Committed()), err
		}
	}
	err = bw.Close()
	return int(bw.Committed()), err
}

// LoadStaged reads every staged record back in staging order.
func LoadStaged(conn *sql.DB) ([]SourceRecord, error) {
	rows, err := db.LoadSourceRows(conn)
	if err != nil {
		return nil, fmt.Errorf("load staged records: %w", err)
	}
	out := make([]SourceRecord, 0, len(rows))
	for _, r := range rows {
		rec := SourceRecord{
			Head:        r.Head,
			Paradigm:    r.Paradigm,
			Definitions: r.Definitions,
			Sources:     r.Sources,
			Lang:        r.Lang,
		}
		if r.Analysis != "" {
			rec.Analysis = json.RawMessage(r.Analysis)
		}
		out = append(out, rec)
	}
	return out, nil
}

func sourceRow(pos int, rec SourceRecord) db.SourceRow {
	row := db.SourceRow{
		Position:    pos,
		Head:        rec.Head,
		Paradigm:    rec.Paradigm,
		Definitions: rec.Definitions,
		Sources:     rec.Sources,
		Lang:        rec.Lang,
	}
	if rec.HasAnalysis() {
		row.Analysis = string(rec.Analysis)
	}
	return row
}

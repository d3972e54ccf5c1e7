package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// NextSourcePosition returns the position after the last staged record.
func NextSourcePosition(db DBExecutor) (int, error) {
	var pos sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(position) FROM source_records`).Scan(&pos); err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	if !pos.Valid {
		return 0, nil
	}
	return int(pos.Int64) + 1, nil
}

// InsertSourceRow stages one upstream record.
func InsertSourceRow(db DBExecutor, row SourceRow) (int64, error) {
	head := strings.TrimSpace(row.Head)
	if head == "" {
		return 0, fmt.Errorf("head must be non-empty")
	}
	defs, err := encodeList(row.Definitions)
	if err != nil {
		return 0, err
	}
	sources, err := encodeList(row.Sources)
	if err != nil {
		return 0, err
	}

	res, err := db.Exec(
		`INSERT INTO source_records (position, head, analysis, paradigm, definitions, sources, lang)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.Position, row.Head, nullableString(row.Analysis), nullableString(row.Paradigm), defs, sources, nullableString(row.Lang),
	)
	if err != nil {
		return 0, fmt.Errorf("insert source record %q: %w", row.Head, err)
	}
	return res.LastInsertId()
}

// LoadSourceRows returns every staged record in position order.
func LoadSourceRows(db DBExecutor) ([]SourceRow, error) {
	rows, err := db.Query(`SELECT id, position, head, analysis, paradigm, definitions, sources, lang
		FROM source_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var r SourceRow
		var analysis, paradigm, lang sql.NullString
		var defs, sources string
		if err := rows.Scan(&r.ID, &r.Position, &r.Head, &analysis, &paradigm, &defs, &sources, &lang); err != nil {
			return nil, err
		}
		r.Analysis = analysis.String
		r.Paradigm = paradigm.String
		r.Lang = lang.String
		if err := json.Unmarshal([]byte(defs), &r.Definitions); err != nil {
			return nil, fmt.Errorf("record %d definitions: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
			return nil, fmt.Errorf("record %d sources: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveExport stores an export snapshot in a single transaction and returns its id.
func SaveExport(conn *sql.DB, skipped int, records []ExportedRecordRow) (int64, error) {
	tx, err := conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin export tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	res, err := tx.Exec(`INSERT INTO exports (created_at, record_count, skipped) VALUES (?, ?, ?)`,
		time.Now().UTC(), len(records), skipped)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	exportID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO exported_records (export_id, position, kind, slug, head, form_of, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.Exec(exportID, r.Position, r.Kind, nullableString(r.Slug), r.Head, nullableString(r.FormOf), r.Body); err != nil {
			return 0, fmt.Errorf("insert exported record %q: %w", r.Head, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit export: %w", err)
	}
	return exportID, nil
}

// LatestExport returns the most recent export, or sql.ErrNoRows.
func LatestExport(db DBExecutor) (Export, error) {
	var x Export
	err := db.QueryRow(`SELECT id, created_at, record_count, skipped FROM exports ORDER BY id DESC LIMIT 1`).
		Scan(&x.ID, &x.CreatedAt, &x.RecordCount, &x.Skipped)
	return x, err
}

// GetExportedRecords returns the records of one export in position order.
func GetExportedRecords(db DBExecutor, exportID int64) ([]ExportedRecordRow, error) {
	rows, err := db.Query(`SELECT position, kind, slug, head, form_of, body
		FROM exported_records WHERE export_id = ? ORDER BY position`, exportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportedRecordRow
	for rows.Next() {
		var r ExportedRecordRow
		var slug, formOf sql.NullString
		if err := rows.Scan(&r.Position, &r.Kind, &slug, &r.Head, &formOf, &r.Body); err != nil {
			return nil, err
		}
		r.Slug = slug.String
		r.FormOf = formOf.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// FormsOf returns the heads of wordforms pointing at slug in one export.
func FormsOf(db DBExecutor, exportID int64, slug string) ([]string, error) {
	rows, err := db.Query(`SELECT head FROM exported_records
		WHERE export_id = ? AND kind = 'wordform' AND form_of = ? ORDER BY position`, exportID, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var heads []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		heads = append(heads, h)
	}
	return heads, rows.Err()
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableString returns nil for "" else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

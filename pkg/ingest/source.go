// Package ingest reads upstream dictionary sources and feeds them into a
// lexicon.Dictionary, optionally staging them in sqlite first.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrUnknownFormat is returned for files whose extension names no known reader.
	ErrUnknownFormat = errors.New("unknown source format")
	// ErrEmptyHead is returned for a source record with a blank head.
	ErrEmptyHead = errors.New("source record has empty head")
)

// SourceRecord is one upstream dictionary record. Analysis holds either a
// smushed FST string or the [prefix, lemma, suffix] tuple.
type SourceRecord struct {
	Head        string          `json:"head"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	Paradigm    string          `json:"paradigm,omitempty"`
	Definitions []string        `json:"definitions,omitempty"`
	Sources     []string        `json:"sources,omitempty"`
	Lang        string          `json:"lang,omitempty"`
}

// HasAnalysis reports whether the record carries a non-null analysis.
func (r SourceRecord) HasAnalysis() bool {
	return len(r.Analysis) > 0 && string(r.Analysis) != "null"
}

const maxLine = 1 << 20

// ReadJSONL parses one SourceRecord per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]SourceRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var out []SourceRecord
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var rec SourceRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return out, nil
}

// LoadJSONLFile reads a JSONL file of source records.
func LoadJSONLFile(path string) ([]SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ReadJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

package lexicon

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/japaniel/munge/pkg/prettyjson"
)

// ExportedWordform is a wordform shaped for export, with its lemma referenced
// by slug.
type ExportedWordform struct {
	Head     string   `json:"head"`
	Analysis Analysis `json:"analysis"`
	Senses   []Sense  `json:"senses"`
	FormOf   string   `json:"formOf"`
}

// ExportedRecord is one element of the exported array.
type ExportedRecord struct {
	Position int
	Entry    *Entry
	Wordform *ExportedWordform
}

// Role returns the role of the exported record.
func (r ExportedRecord) Role() Role {
	if r.Wordform != nil {
		return RoleWordform
	}
	return RoleEntry
}

// Head returns the exported headword.
func (r ExportedRecord) Head() string {
	if r.Wordform != nil {
		return r.Wordform.Head
	}
	return r.Entry.Head
}

// MarshalJSON encodes the record as its entry or wordform.
func (r ExportedRecord) MarshalJSON() ([]byte, error) {
	if r.Wordform != nil {
		return json.Marshal(r.Wordform)
	}
	return json.Marshal(r.Entry)
}

// ExportStats summarizes an export run.
type ExportStats struct {
	Entries   int
	Wordforms int
	Skipped   int
	Groups    int
}

// Export is the finalized, filtered collection.
type Export struct {
	Records []ExportedRecord
	Stats   ExportStats
}

// JSON renders the export as pretty-printed JSON.
func (x *Export) JSON() ([]byte, error) {
	records := x.Records
	if records == nil {
		records = []ExportedRecord{}
	}
	return prettyjson.Marshal(records)
}

// Export assigns slugs, resolves lemmas and shapes every record that has at
// least one sense. Records without senses are logged and skipped. Any broken
// invariant fails the whole export.
func (d *Dictionary) Export() (*Export, error) {
	if err := d.AssignSlugs(); err != nil {
		return nil, fmt.Errorf("assign slugs: %w", err)
	}
	groups, err := d.determineLemmas()
	if err != nil {
		return nil, fmt.Errorf("determine lemmas: %w", err)
	}

	x := &Export{Stats: ExportStats{Groups: groups}}
	for i, r := range d.records {
		if len(r.senses()) == 0 {
			d.logger.Warn("no definitions",
				slog.Int("position", i),
				slog.String("role", r.Role().String()),
				slog.String("head", r.head()),
			)
			x.Stats.Skipped++
			continue
		}

		if r.Role() == RoleEntry {
			x.Records = append(x.Records, ExportedRecord{Position: i, Entry: r.Entry})
			x.Stats.Entries++
			continue
		}

		wf, err := d.shapeWordform(r.Wordform)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		x.Records = append(x.Records, ExportedRecord{Position: i, Wordform: wf})
		x.Stats.Wordforms++
	}
	return x, nil
}

// ToJSON exports the dictionary as canonical JSON text.
func (d *Dictionary) ToJSON() ([]byte, error) {
	x, err := d.Export()
	if err != nil {
		return nil, err
	}
	return x.JSON()
}

func (d *Dictionary) shapeWordform(w *Wordform) (*ExportedWordform, error) {
	if w.Head == "" {
		return nil, fmt.Errorf("%w: wordform without headword", ErrInvariant)
	}
	if w.FormOf < 0 || w.FormOf >= len(d.records) {
		return nil, fmt.Errorf("%w: %q points at position %d", ErrDanglingFormOf, w.Head, w.FormOf)
	}
	target := d.records[w.FormOf]
	if target.Role() != RoleEntry || target.Entry.Slug == "" {
		return nil, fmt.Errorf("%w: %q points at position %d", ErrDanglingFormOf, w.Head, w.FormOf)
	}
	return &ExportedWordform{
		Head:     w.Head,
		Analysis: w.Analysis,
		Senses:   w.Senses,
		FormOf:   target.Entry.Slug,
	}, nil
}

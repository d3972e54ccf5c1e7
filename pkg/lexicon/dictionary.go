// Package lexicon normalizes a flat collection of dictionary entries: it
// assigns slugs, groups inflected forms under one elected lemma entry and
// renders the result as canonical JSON.
//
// A Dictionary is not safe for concurrent mutation. Feed it from one
// goroutine, then call ToJSON.
package lexicon

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/munge/pkg/logging"
)

// DefaultSource is the provenance tag AddDefinition attaches to new senses.
const DefaultSource = "OS"

// Sense is one definition and the sources it came from.
type Sense struct {
	Definition string   `json:"definition"`
	Sources    []string `json:"sources"`
}

// Entry is a canonical lexeme record.
type Entry struct {
	Head     string    `json:"head,omitempty"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Paradigm string    `json:"paradigm,omitempty"`
	Senses   []Sense   `json:"senses,omitempty"`
	Slug     string    `json:"slug,omitempty"`
}

// FSTLemma returns the lemma of the entry's analysis.
func (e *Entry) FSTLemma() (string, error) {
	if e.Analysis == nil {
		return "", fmt.Errorf("%w: %q", ErrNoAnalysis, e.Head)
	}
	return e.Analysis.Lemma, nil
}

// SetAnalysis attaches a copy of a.
func (e *Entry) SetAnalysis(a Analysis) {
	c := a.clone()
	e.Analysis = &c
}

func (e *Entry) hasDefinition(def string) bool {
	for _, s := range e.Senses {
		if s.Definition == def {
			return true
		}
	}
	return false
}

// Wordform is an inflected form demoted from the entry role. FormOf is the
// collection position of the elected lemma entry.
type Wordform struct {
	Head     string
	Analysis Analysis
	Senses   []Sense
	FormOf   int
}

// Role tells which variant a Record holds.
type Role int

const (
	RoleEntry Role = iota + 1
	RoleWordform
)

func (r Role) String() string {
	switch r {
	case RoleEntry:
		return "entry"
	case RoleWordform:
		return "wordform"
	default:
		return "unknown"
	}
}

// Record is one slot of the collection: exactly one of Entry or Wordform is set.
type Record struct {
	Entry    *Entry
	Wordform *Wordform
}

// Role returns the record's current role.
func (r Record) Role() Role {
	if r.Wordform != nil {
		return RoleWordform
	}
	return RoleEntry
}

func (r Record) head() string {
	if r.Wordform != nil {
		return r.Wordform.Head
	}
	return r.Entry.Head
}

func (r Record) senses() []Sense {
	if r.Wordform != nil {
		return r.Wordform.Senses
	}
	return r.Entry.Senses
}

// Dictionary is the entry/wordform store.
type Dictionary struct {
	// lexicalTags distinguish lexemes (+N, +V) as opposed to wordforms within
	// a lexeme (+Sg, +Pl).
	lexicalTags   map[string]struct{}
	records       []Record
	byText        map[string]*Entry
	logger        *slog.Logger
	workers       int
	defaultSource string
}

// Option configures a Dictionary.
type Option func(*Dictionary)

// WithLogger sets the logger used for export diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dictionary) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithWorkers runs lemma elections on n goroutines. Values below 2 keep
// election sequential.
func WithWorkers(n int) Option {
	return func(d *Dictionary) { d.workers = n }
}

// WithDefaultSource changes the provenance tag used by AddDefinition.
func WithDefaultSource(tag string) Option {
	return func(d *Dictionary) {
		if tag != "" {
			d.defaultSource = tag
		}
	}
}

// NewDictionary creates an empty store. lexicalTags are the FST tags that
// take part in lexeme identity.
func NewDictionary(lexicalTags []string, opts ...Option) *Dictionary {
	tags := make(map[string]struct{}, len(lexicalTags))
	for _, t := range lexicalTags {
		tags[t] = struct{}{}
	}
	d := &Dictionary{
		lexicalTags:   tags,
		byText:        make(map[string]*Entry),
		logger:        logging.Discard(),
		workers:       1,
		defaultSource: DefaultSource,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetOrCreate returns the entry for text, creating and appending it on first use.
func (d *Dictionary) GetOrCreate(text string) (*Entry, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if e, ok := d.byText[text]; ok {
		return e, nil
	}
	e := &Entry{Head: text}
	d.records = append(d.records, Record{Entry: e})
	d.byText[text] = e
	return e, nil
}

// Lookup returns the entry created for text, if any.
func (d *Dictionary) Lookup(text string) (*Entry, bool) {
	e, ok := d.byText[text]
	return e, ok
}

// AddDefinition appends a sense tagged with the default source. Blank and
// duplicate definitions are ignored; the return value reports whether a sense
// was added.
func (d *Dictionary) AddDefinition(e *Entry, definition string) bool {
	return d.AddDefinitionFrom(e, definition)
}

// AddDefinitionFrom is AddDefinition with explicit provenance tags.
func (d *Dictionary) AddDefinitionFrom(e *Entry, definition string, sources ...string) bool {
	if strings.TrimSpace(definition) == "" {
		return false
	}
	if e.hasDefinition(definition) {
		return false
	}
	if len(sources) == 0 {
		sources = []string{d.defaultSource}
	}
	e.Senses = append(e.Senses, Sense{
		Definition: definition,
		Sources:    append([]string(nil), sources...),
	})
	return true
}

// Len returns the number of records in the collection.
func (d *Dictionary) Len() int { return len(d.records) }

// Records returns a copy of the collection in position order. The Entry and
// Wordform values are shared with the store.
func (d *Dictionary) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

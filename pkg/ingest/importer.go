package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/munge/pkg/lexicon"
	"github.com/japaniel/munge/pkg/logging"
)

// Analyzer produces an analysis for a headword that arrived without one.
type Analyzer interface {
	Analyze(text string) (lexicon.Analysis, error)
}

// FeedStats summarizes one Feed call.
type FeedStats struct {
	Records   int // source records consumed
	Created   int // entries created
	Senses    int // senses added
	Analyzed  int // analyses supplied by an Analyzer
	Conflicts int // later analyses that disagreed with the entry's
}

// Importer feeds source records into a Dictionary.
type Importer struct {
	normalize     bool
	inferParadigm bool
	analyzers     map[string]Analyzer
	cache         *lru.Cache[string, lexicon.Analysis]
	logger        *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithNormalize toggles NFC normalization of heads and definitions.
func WithNormalize(on bool) ImporterOption {
	return func(im *Importer) { im.normalize = on }
}

// WithInferParadigm fills a missing paradigm from the analysis word class.
func WithInferParadigm(on bool) ImporterOption {
	return func(im *Importer) { im.inferParadigm = on }
}

// WithAnalyzer uses a for records of the given language that carry no analysis.
func WithAnalyzer(lang string, a Analyzer) ImporterOption {
	return func(im *Importer) {
		if a != nil {
			im.analyzers[lang] = a
		}
	}
}

// WithAnalysisCache caches up to size parsed FST strings. Zero disables the cache.
func WithAnalysisCache(size int) ImporterOption {
	return func(im *Importer) {
		if size <= 0 {
			im.cache = nil
			return
		}
		c, err := lru.New[string, lexicon.Analysis](size)
		if err == nil {
			im.cache = c
		}
	}
}

// WithImportLogger sets the importer's logger.
func WithImportLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// NewImporter returns an importer that normalizes text and caches 4096
// parsed analyses unless configured otherwise.
func NewImporter(opts ...ImporterOption) *Importer {
	im := &Importer{
		normalize: true,
		analyzers: make(map[string]Analyzer),
		logger:    logging.Discard(),
	}
	WithAnalysisCache(4096)(im)
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Feed adds records to dict in order. The first analysis and paradigm seen
// for a headword win. Feed stops at the first record with an empty head or
// malformed analysis.
func (im *Importer) Feed(dict *lexicon.Dictionary, records []SourceRecord) (FeedStats, error) {
	var stats FeedStats
	for i, rec := range records {
		if err := im.feedOne(dict, rec, &stats); err != nil {
			return stats, fmt.Errorf("record %d (%q): %w", i, rec.Head, err)
		}
		stats.Records++
	}
	return stats, nil
}

func (im *Importer) feedOne(dict *lexicon.Dictionary, rec SourceRecord, stats *FeedStats) error {
	head := im.text(strings.TrimSpace(rec.Head))
	if head == "" {
		return ErrEmptyHead
	}

	a, analyzed, err := im.analysisFor(head, rec)
	if err != nil {
		return err
	}

	_, existed := dict.Lookup(head)
	e, err := dict.GetOrCreate(head)
	if err != nil {
		return err
	}
	if !existed {
		stats.Created++
	}

	if a != nil {
		switch {
		case e.Analysis == nil:
			e.SetAnalysis(*a)
			if analyzed {
				stats.Analyzed++
			}
		case !e.Analysis.Equal(*a):
			stats.Conflicts++
			im.logger.Warn("conflicting analysis ignored",
				slog.String("head", head),
				slog.String("kept", e.Analysis.String()),
				slog.String("ignored", a.String()))
		}
	}

	if e.Paradigm == "" {
		switch {
		case rec.Paradigm != "":
			e.Paradigm = rec.Paradigm
		case im.inferParadigm && e.Analysis != nil:
			e.Paradigm = lexicon.WordClass(*e.Analysis)
		}
	}

	for _, def := range rec.Definitions {
		if dict.AddDefinitionFrom(e, im.text(strings.TrimSpace(def)), rec.Sources...) {
			stats.Senses++
		}
	}
	return nil
}

// analysisFor returns the record's analysis, falling back to the Analyzer
// registered for its language. analyzed reports the fallback was used.
func (im *Importer) analysisFor(head string, rec SourceRecord) (a *lexicon.Analysis, analyzed bool, err error) {
	if rec.HasAnalysis() {
		parsed, err := im.parseAnalysis(rec.Analysis)
		if err != nil {
			return nil, false, err
		}
		return &parsed, false, nil
	}
	an, ok := im.analyzers[rec.Lang]
	if !ok {
		return nil, false, nil
	}
	parsed, err := an.Analyze(head)
	if err != nil {
		im.logger.Debug("analyzer failed", slog.String("head", head), slog.Any("error", err))
		return nil, false, nil
	}
	return &parsed, true, nil
}

func (im *Importer) parseAnalysis(raw json.RawMessage) (lexicon.Analysis, error) {
	if raw[0] != '"' {
		var a lexicon.Analysis
		if err := json.Unmarshal(raw, &a); err != nil {
			return lexicon.Analysis{}, fmt.Errorf("%w: %v", lexicon.ErrMalformedAnalysis, err)
		}
		if im.normalize {
			a = normalizeAnalysis(a)
		}
		return a, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return lexicon.Analysis{}, fmt.Errorf("%w: %v", lexicon.ErrMalformedAnalysis, err)
	}
	if im.normalize {
		s = norm.NFC.String(s)
	}
	if im.cache != nil {
		if a, ok := im.cache.Get(s); ok {
			return a, nil
		}
	}
	a, err := lexicon.ParseAnalysis(s)
	if err != nil {
		return lexicon.Analysis{}, err
	}
	if im.cache != nil {
		im.cache.Add(s, a)
	}
	return a, nil
}

// normalizeAnalysis applies NFC to the lemma and every tag.
func normalizeAnalysis(a lexicon.Analysis) lexicon.Analysis {
	out := lexicon.Analysis{Lemma: norm.NFC.String(a.Lemma)}
	for _, p := range a.Prefix {
		out.Prefix = append(out.Prefix, norm.NFC.String(p))
	}
	for _, s := range a.Suffix {
		out.Suffix = append(out.Suffix, norm.NFC.String(s))
	}
	return out
}

func (im *Importer) text(s string) string {
	if im.normalize {
		return norm.NFC.String(s)
	}
	return s
}

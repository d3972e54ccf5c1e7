package lexicon

import "errors"

var (
	// ErrEmptyText is returned when a headword or lookup text is empty.
	ErrEmptyText = errors.New("lexicon: empty text")
	// ErrNoAnalysis is returned by FSTLemma for an entry without an analysis.
	ErrNoAnalysis = errors.New("lexicon: entry has no analysis")
	// ErrMalformedAnalysis is returned when an analysis cannot be parsed.
	ErrMalformedAnalysis = errors.New("lexicon: malformed analysis")
	// ErrDuplicateSlug means two entries carry the same pre-assigned slug.
	ErrDuplicateSlug = errors.New("lexicon: duplicate slug")
	// ErrEmptyGroup means lemma grouping produced a group with no members.
	ErrEmptyGroup = errors.New("lexicon: empty lemma group")
	// ErrDanglingFormOf means a wordform references a record that is not a slugged entry.
	ErrDanglingFormOf = errors.New("lexicon: wordform references no slugged entry")
	// ErrInvariant covers any other broken structural invariant.
	ErrInvariant = errors.New("lexicon: invariant violated")
)

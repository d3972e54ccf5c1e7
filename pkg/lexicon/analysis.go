package lexicon

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Analysis is a morphological analysis as produced by an FST analyzer:
// ordered prefix tags, the lemma, and ordered suffix tags.
//
// On the wire it is the 3-tuple [[prefix...], "lemma", [suffix...]].
type Analysis struct {
	Prefix []string
	Lemma  string
	Suffix []string
}

// MarshalJSON encodes the analysis as a 3-tuple. Nil tag lists are written as [].
func (a Analysis) MarshalJSON() ([]byte, error) {
	prefix := a.Prefix
	if prefix == nil {
		prefix = []string{}
	}
	suffix := a.Suffix
	if suffix == nil {
		suffix = []string{}
	}
	return json.Marshal([]any{prefix, a.Lemma, suffix})
}

// UnmarshalJSON accepts the 3-tuple form.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: expected 3 elements, got %d", ErrMalformedAnalysis, len(raw))
	}
	var out Analysis
	if err := json.Unmarshal(raw[0], &out.Prefix); err != nil {
		return fmt.Errorf("analysis prefix: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.Lemma); err != nil {
		return fmt.Errorf("analysis lemma: %w", err)
	}
	if err := json.Unmarshal(raw[2], &out.Suffix); err != nil {
		return fmt.Errorf("analysis suffix: %w", err)
	}
	*a = out
	return nil
}

// String returns the smushed FST form, e.g. "PV/e+nipâw+V+AI+Ind+3Sg".
func (a Analysis) String() string {
	var b strings.Builder
	for _, p := range a.Prefix {
		b.WriteString(p)
	}
	b.WriteString(a.Lemma)
	for _, s := range a.Suffix {
		b.WriteString(s)
	}
	return b.String()
}

// Equal reports whether two analyses have the same tags and lemma.
func (a Analysis) Equal(o Analysis) bool {
	return a.Lemma == o.Lemma && slices.Equal(a.Prefix, o.Prefix) && slices.Equal(a.Suffix, o.Suffix)
}

func (a Analysis) clone() Analysis {
	return Analysis{
		Prefix: append([]string(nil), a.Prefix...),
		Lemma:  a.Lemma,
		Suffix: append([]string(nil), a.Suffix...),
	}
}

// barePrefixTags are prefix tags written without a "/": initial change and
// weak/strong reduplication.
var barePrefixTags = map[string]bool{
	"IC":    true,
	"RdplW": true,
	"RdplS": true,
}

func isPrefixTag(segment string) bool {
	return strings.Contains(segment, "/") || barePrefixTags[segment]
}

// ParseAnalysis splits a smushed FST analysis string.
//
// Leading "+"-separated segments that contain a "/" or are one of IC, RdplW
// and RdplS are prefix tags (kept with their trailing "+"). The first other
// segment is the lemma, and every remaining segment is a suffix tag (kept
// with its leading "+").
func ParseAnalysis(s string) (Analysis, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Analysis{}, fmt.Errorf("%w: empty string", ErrMalformedAnalysis)
	}
	segments := strings.Split(s, "+")

	var a Analysis
	i := 0
	for ; i < len(segments); i++ {
		if !isPrefixTag(segments[i]) {
			break
		}
		a.Prefix = append(a.Prefix, segments[i]+"+")
	}
	if i == len(segments) || segments[i] == "" {
		return Analysis{}, fmt.Errorf("%w: no lemma in %q", ErrMalformedAnalysis, s)
	}
	a.Lemma = segments[i]
	for _, tag := range segments[i+1:] {
		if tag == "" {
			return Analysis{}, fmt.Errorf("%w: empty tag in %q", ErrMalformedAnalysis, s)
		}
		a.Suffix = append(a.Suffix, "+"+tag)
	}
	return a, nil
}

var wordClasses = []struct {
	tags  []string
	class string
}{
	{[]string{"+V", "+TA"}, "VTA"},
	{[]string{"+V", "+TI"}, "VTI"},
	{[]string{"+V", "+AI"}, "VAI"},
	{[]string{"+V", "+II"}, "VII"},
	{[]string{"+N", "+A", "+D"}, "NAD"},
	{[]string{"+N", "+A"}, "NA"},
	{[]string{"+N", "+I", "+D"}, "NID"},
	{[]string{"+N", "+I"}, "NI"},
	{[]string{"+Ipc"}, "IPC"},
	{[]string{"+Pron"}, "PRON"},
}

// WordClass derives a coarse inflectional class ("VTA", "NA", "IPC", ...)
// from the leading suffix tags of an analysis. It returns "" when nothing
// matches.
func WordClass(a Analysis) string {
	for _, wc := range wordClasses {
		if hasTagPrefix(a.Suffix, wc.tags) {
			return wc.class
		}
	}
	return ""
}

func hasTagPrefix(tags, want []string) bool {
	return len(tags) >= len(want) && slices.Equal(tags[:len(want)], want)
}

package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/munge/pkg/lexicon"
)

var testLexicalTags = []string{"+N", "+V", "+A", "+I", "+TA", "+AI", "+Ipc"}

func fst(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestFeedBuildsEntries(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	im := NewImporter()

	stats, err := im.Feed(dict, []SourceRecord{
		{Head: "wâpamêw", Analysis: fst("wâpamêw+V+TA+Ind+3Sg+4Sg/PlO"), Paradigm: "VTA", Definitions: []string{"s/he sees s.o."}, Sources: []string{"CW"}},
		{Head: "wâpamêw", Definitions: []string{"s/he sees s.o.", "s/he witnesses s.o."}, Sources: []string{"MD"}},
		{Head: "nipâw", Analysis: json.RawMessage(`[[],"nipâw",["+V","+AI","+Ind","+3Sg"]]`), Definitions: []string{"s/he sleeps"}},
	})
	require.NoError(t, err)
	assert.Equal(t, FeedStats{Records: 3, Created: 2, Senses: 3}, stats)

	e, ok := dict.Lookup("wâpamêw")
	require.True(t, ok)
	require.NotNil(t, e.Analysis)
	assert.Equal(t, "wâpamêw", e.Analysis.Lemma)
	assert.Equal(t, "VTA", e.Paradigm)
	assert.Equal(t, []lexicon.Sense{
		{Definition: "s/he sees s.o.", Sources: []string{"CW"}},
		{Definition: "s/he witnesses s.o.", Sources: []string{"MD"}},
	}, e.Senses)

	e, ok = dict.Lookup("nipâw")
	require.True(t, ok)
	assert.Equal(t, []string{"+V", "+AI", "+Ind", "+3Sg"}, e.Analysis.Suffix)
	assert.Equal(t, []string{lexicon.DefaultSource}, e.Senses[0].Sources)
}

func TestFeedNormalizesToNFC(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	decomposed := "nipa\u0302w"

	_, err := NewImporter().Feed(dict, []SourceRecord{
		{Head: decomposed, Definitions: []string{"s/he sle\u0301eps"}},
		{Head: "nipâw"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dict.Len())

	e, ok := dict.Lookup("nipâw")
	require.True(t, ok)
	assert.Equal(t, "s/he sl\u00e9eps", e.Senses[0].Definition)

	raw := lexicon.NewDictionary(testLexicalTags)
	_, err = NewImporter(WithNormalize(false)).Feed(raw, []SourceRecord{{Head: decomposed}, {Head: "nipâw"}})
	require.NoError(t, err)
	assert.Equal(t, 2, raw.Len())
}

func TestFeedInfersParadigm(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	_, err := NewImporter(WithInferParadigm(true)).Feed(dict, []SourceRecord{
		{Head: "atim", Analysis: fst("atim+N+A+Sg")},
		{Head: "nipâw", Analysis: fst("nipâw+V+AI+Ind+3Sg"), Paradigm: "VAI-v"},
		{Head: "kiyâm", Analysis: fst("kiyâm+Ipc")},
	})
	require.NoError(t, err)

	for head, want := range map[string]string{"atim": "NA", "nipâw": "VAI-v", "kiyâm": "IPC"} {
		e, _ := dict.Lookup(head)
		assert.Equal(t, want, e.Paradigm, head)
	}

	plain := lexicon.NewDictionary(testLexicalTags)
	_, err = NewImporter().Feed(plain, []SourceRecord{{Head: "atim", Analysis: fst("atim+N+A+Sg")}})
	require.NoError(t, err)
	e, _ := plain.Lookup("atim")
	assert.Empty(t, e.Paradigm)
}

func TestFeedKeepsFirstAnalysis(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	dict := lexicon.NewDictionary(testLexicalTags)

	stats, err := NewImporter(WithImportLogger(logger)).Feed(dict, []SourceRecord{
		{Head: "atim", Analysis: fst("atim+N+A+Sg")},
		{Head: "atim", Analysis: fst("atim+N+A+Sg")},
		{Head: "atim", Analysis: fst("atim+N+A+Obv")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Conflicts)

	e, _ := dict.Lookup("atim")
	assert.Equal(t, "atim+N+A+Sg", e.Analysis.String())
	assert.Contains(t, logs.String(), "conflicting analysis ignored")
	assert.Contains(t, logs.String(), "atim+N+A+Obv")
}

func TestFeedErrors(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	stats, err := NewImporter().Feed(dict, []SourceRecord{
		{Head: "atim"},
		{Head: "  "},
		{Head: "never"},
	})
	assert.ErrorIs(t, err, ErrEmptyHead)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 1, dict.Len())

	_, err = NewImporter().Feed(dict, []SourceRecord{{Head: "x", Analysis: fst("PV/e+")}})
	assert.ErrorIs(t, err, lexicon.ErrMalformedAnalysis)

	_, err = NewImporter().Feed(dict, []SourceRecord{{Head: "y", Analysis: json.RawMessage(`[[],"y"]`)}})
	assert.ErrorIs(t, err, lexicon.ErrMalformedAnalysis)
}

func TestFeedNullAnalysis(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	_, err := NewImporter().Feed(dict, []SourceRecord{{Head: "atim", Analysis: json.RawMessage("null")}})
	require.NoError(t, err)
	e, _ := dict.Lookup("atim")
	assert.Nil(t, e.Analysis)
}

type stubAnalyzer struct {
	calls []string
	fail  bool
}

func (s *stubAnalyzer) Analyze(text string) (lexicon.Analysis, error) {
	s.calls = append(s.calls, text)
	if s.fail {
		return lexicon.Analysis{}, errors.New("no tokens")
	}
	return lexicon.Analysis{Lemma: text, Suffix: []string{"+名詞"}}, nil
}

func TestFeedUsesAnalyzerForLanguage(t *testing.T) {
	an := &stubAnalyzer{}
	dict := lexicon.NewDictionary([]string{"+名詞"})

	stats, err := NewImporter(WithAnalyzer("ja", an)).Feed(dict, []SourceRecord{
		{Head: "犬", Lang: "ja", Definitions: []string{"dog"}},
		{Head: "atim", Definitions: []string{"dog"}},
		{Head: "猫", Lang: "ja", Analysis: json.RawMessage(`[[],"猫",["+名詞"]]`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Analyzed)
	assert.Equal(t, []string{"犬"}, an.calls)

	e, _ := dict.Lookup("犬")
	require.NotNil(t, e.Analysis)
	assert.Equal(t, "犬+名詞", e.Analysis.String())

	e, _ = dict.Lookup("atim")
	assert.Nil(t, e.Analysis)
}

func TestFeedAnalyzerFailureIsNotFatal(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	_, err := NewImporter(WithAnalyzer("ja", &stubAnalyzer{fail: true})).Feed(dict, []SourceRecord{{Head: "犬", Lang: "ja"}})
	require.NoError(t, err)
	e, _ := dict.Lookup("犬")
	assert.Nil(t, e.Analysis)
}

func TestAnalysisCache(t *testing.T) {
	im := NewImporter(WithAnalysisCache(2))
	require.NotNil(t, im.cache)

	a, err := im.parseAnalysis(fst("atim+N+A+Sg"))
	require.NoError(t, err)
	assert.Equal(t, 1, im.cache.Len())

	b, err := im.parseAnalysis(fst("atim+N+A+Sg"))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, 1, im.cache.Len())

	assert.Nil(t, NewImporter(WithAnalysisCache(0)).cache)
}

func TestFeedNormalizesTupleAnalysis(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	_, err := NewImporter().Feed(dict, []SourceRecord{
		{Head: "nipâw", Analysis: fst("nipâw+V+AI+Ind+3Sg"), Definitions: []string{"s/he sleeps"}},
		{Head: "nipâwak", Analysis: json.RawMessage(`[[],"nipa\u0302w",["+V","+AI","+Ind","+3Pl"]]`), Definitions: []string{"they sleep"}},
	})
	require.NoError(t, err)

	e, ok := dict.Lookup("nipâwak")
	require.True(t, ok)
	assert.Equal(t, "nip\u00e2w", e.Analysis.Lemma)

	x, err := dict.Export()
	require.NoError(t, err)
	assert.Equal(t, 1, x.Stats.Groups)
	assert.Equal(t, 1, x.Stats.Entries)
	assert.Equal(t, 1, x.Stats.Wordforms)
}

func TestFeedKeepsInitialChangeLemmas(t *testing.T) {
	dict := lexicon.NewDictionary(testLexicalTags)
	_, err := NewImporter().Feed(dict, []SourceRecord{
		{Head: "nêpât", Analysis: fst("IC+nipâw+V+AI+Cnj+Prs+3Sg"), Definitions: []string{"when s/he sleeps"}},
		{Head: "mêcisot", Analysis: fst("IC+mîcisow+V+AI+Cnj+Prs+3Sg"), Definitions: []string{"when s/he eats"}},
		{Head: "nipâw", Analysis: fst("nipâw+V+AI+Ind+3Sg"), Definitions: []string{"s/he sleeps"}},
		{Head: "nanipâw", Analysis: fst("RdplW+nipâw+V+AI+Ind+3Sg"), Definitions: []string{"s/he sleeps repeatedly"}},
	})
	require.NoError(t, err)

	e, ok := dict.Lookup("nêpât")
	require.True(t, ok)
	assert.Equal(t, []string{"IC+"}, e.Analysis.Prefix)
	assert.Equal(t, "nipâw", e.Analysis.Lemma)

	x, err := dict.Export()
	require.NoError(t, err)
	assert.Equal(t, 2, x.Stats.Groups)

	heads := map[string]string{}
	for _, r := range x.Records {
		if r.Wordform != nil {
			heads[r.Wordform.Head] = r.Wordform.FormOf
		} else {
			heads[r.Entry.Head] = r.Entry.Slug
		}
	}
	assert.NotContains(t, heads, "IC")
	assert.Equal(t, "nipâw", heads["nêpât"])
	assert.Equal(t, "nipâw", heads["nanipâw"])
	assert.Equal(t, "mêcisot", heads["mîcisow"])
}

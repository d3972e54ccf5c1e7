package lexicon

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONGolden(t *testing.T) {
	d := NewDictionary([]string{"+V", "+TA"})
	addEntry(t, d, "wâpamêw", "wâpamêw+V+TA+Ind+3Sg+4Sg/PlO", "s/he sees s.o.")
	addEntry(t, d, "wâpamêwak", "wâpamêw+V+TA+Ind+3Pl+4Sg/PlO", "they see s.o.")

	out, err := d.ToJSON()
	require.NoError(t, err)

	want := `[
  {
    "head": "wâpamêw",
    "analysis": [[], "wâpamêw", ["+V", "+TA", "+Ind", "+3Sg", "+4Sg/PlO"]],
    "senses": [{ "definition": "s/he sees s.o.", "sources": ["OS"] }],
    "slug": "wâpamêw"
  },
  {
    "head": "wâpamêwak",
    "analysis": [[], "wâpamêw", ["+V", "+TA", "+Ind", "+3Pl", "+4Sg/PlO"]],
    "senses": [{ "definition": "they see s.o.", "sources": ["OS"] }],
    "formOf": "wâpamêw"
  }
]
`
	assert.Equal(t, want, string(out))
}

func TestExportRoundTripScenario(t *testing.T) {
	d := NewDictionary([]string{"+V", "+TA"})
	addEntry(t, d, "wâpamêw", "wâpamêw+V+TA+Ind+3Sg+4Sg/PlO", "s/he sees s.o.")
	addEntry(t, d, "wâpamêwak", "wâpamêw+V+TA+Ind+3Pl+4Sg/PlO", "they see s.o.")
	addEntry(t, d, "niwâpamâw", "wâpamêw+V+TA+Ind+1Sg+3SgO", "I see s.o.")

	x, err := d.Export()
	require.NoError(t, err)
	assert.Equal(t, ExportStats{Entries: 1, Wordforms: 2, Skipped: 0, Groups: 1}, x.Stats)

	out, err := x.JSON()
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 3)

	assert.Equal(t, "wâpamêw", decoded[0]["head"])
	assert.Equal(t, "wâpamêw", decoded[0]["slug"])
	assert.NotContains(t, decoded[0], "formOf")

	for i, head := range []string{"wâpamêwak", "niwâpamâw"} {
		rec := decoded[i+1]
		assert.Equal(t, head, rec["head"])
		assert.Equal(t, "wâpamêw", rec["formOf"])
		assert.NotContains(t, rec, "slug")
	}
	for _, rec := range decoded {
		assert.NotEmpty(t, rec["senses"])
	}
}

func TestExportSkipsSenselessRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	d := NewDictionary(testLexicalTags, WithLogger(logger))
	addEntry(t, d, "atim", "atim+N+A+Sg", "dog")
	addEntry(t, d, "kîkway", "")
	addEntry(t, d, "tânisi", "", "hello")

	x, err := d.Export()
	require.NoError(t, err)

	require.Len(t, x.Records, d.Len()-1)
	assert.Equal(t, 1, x.Stats.Skipped)
	assert.Equal(t, "atim", x.Records[0].Head())
	assert.Equal(t, "tânisi", x.Records[1].Head())
	assert.Equal(t, 2, x.Records[1].Position)

	warnings := strings.Count(buf.String(), "level=WARN")
	assert.Equal(t, 1, warnings)
	assert.Contains(t, buf.String(), `msg="no definitions"`)
	assert.Contains(t, buf.String(), "head=kîkway")
}

func TestExportSkipsSenselessWordform(t *testing.T) {
	d := NewDictionary(testLexicalTags)
	addEntry(t, d, "nipâw", "nipâw+V+AI+Ind+3Sg", "s/he sleeps")
	addEntry(t, d, "nipâwak", "nipâw+V+AI+Ind+3Pl")

	x, err := d.Export()
	require.NoError(t, err)
	assert.Equal(t, ExportStats{Entries: 1, Wordforms: 0, Skipped: 1, Groups: 1}, x.Stats)
}

func TestToJSONIsRepeatable(t *testing.T) {
	d := NewDictionary(testLexicalTags)
	addEntry(t, d, "a/b", "", "one")
	addEntry(t, d, "a b", "", "two")
	addEntry(t, d, "nipâwak", "nipâw+V+AI+Ind+3Pl", "they sleep")
	addEntry(t, d, "nipâw", "nipâw+V+AI+Ind+3Sg", "s/he sleeps")

	first, err := d.ToJSON()
	require.NoError(t, err)
	second, err := d.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), `"slug": "a_b@1"`)
}

func TestToJSONEmptyDictionary(t *testing.T) {
	out, err := NewDictionary(testLexicalTags).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}

func TestExportDoesNotEscapeHTML(t *testing.T) {
	d := NewDictionary(testLexicalTags)
	addEntry(t, d, "ê-", "", "<prefix> & more")

	out, err := d.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"<prefix> & more"`)
}

func TestExportDanglingFormOf(t *testing.T) {
	d := NewDictionary(testLexicalTags)
	addEntry(t, d, "a", "", "x")
	d.records = append(d.records, Record{Wordform: &Wordform{
		Head:     "b",
		Analysis: Analysis{Lemma: "a"},
		Senses:   []Sense{{Definition: "y", Sources: []string{"OS"}}},
		FormOf:   7,
	}})

	out, err := d.ToJSON()
	assert.ErrorIs(t, err, ErrDanglingFormOf)
	assert.Nil(t, out)
}

func TestExportFailsOnDuplicateSlug(t *testing.T) {
	d := NewDictionary(testLexicalTags)
	addEntry(t, d, "a", "", "x").Slug = "s"
	addEntry(t, d, "b", "", "y").Slug = "s"

	_, err := d.ToJSON()
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

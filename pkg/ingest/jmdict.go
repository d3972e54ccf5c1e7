package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// JMdictSource is the provenance tag of records read from JMdict.
const JMdictSource = "JMdict"

// JMdictWord matches the structure of jmdict-simplified entries.
type JMdictWord struct {
	ID    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Head is the first kanji spelling, or the first kana one for kana-only words.
func (w JMdictWord) Head() string {
	if len(w.Kanji) > 0 && w.Kanji[0].Text != "" {
		return w.Kanji[0].Text
	}
	if len(w.Kana) > 0 {
		return w.Kana[0].Text
	}
	return ""
}

// Record converts the word into a SourceRecord with one definition per sense.
func (w JMdictWord) Record() SourceRecord {
	rec := SourceRecord{
		Head:    w.Head(),
		Sources: []string{JMdictSource},
		Lang:    "ja",
	}
	for _, s := range w.Sense {
		glosses := make([]string, 0, len(s.Gloss))
		for _, g := range s.Gloss {
			if t := strings.TrimSpace(g.Text); t != "" {
				glosses = append(glosses, t)
			}
		}
		if len(glosses) > 0 {
			rec.Definitions = append(rec.Definitions, strings.Join(glosses, "; "))
		}
	}
	return rec
}

// ReadJMdict decodes either the full jmdict-simplified document
// ({"words": [...]}) or a bare array of words.
func ReadJMdict(r io.Reader) ([]JMdictWord, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode jmdict: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode jmdict: empty document")
	}

	switch raw[0] {
	case '{':
		var doc struct {
			Words []JMdictWord `json:"words"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode jmdict document: %w", err)
		}
		return doc.Words, nil
	case '[':
		var words []JMdictWord
		if err := json.Unmarshal(raw, &words); err != nil {
			return nil, fmt.Errorf("decode jmdict array: %w", err)
		}
		return words, nil
	default:
		return nil, fmt.Errorf("decode jmdict: expected object or array")
	}
}

// LoadJMdictSimplified reads a jmdict-simplified JSON file as source records.
// Words with no spelling are dropped.
func LoadJMdictSimplified(path string) ([]SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words, err := ReadJMdict(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make([]SourceRecord, 0, len(words))
	for _, w := range words {
		if w.Head() == "" {
			continue
		}
		out = append(out, w.Record())
	}
	return out, nil
}

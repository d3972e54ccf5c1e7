// Package analyzer derives lexicon analyses for Japanese headwords with the
// kagome IPA tokenizer.
package analyzer

import (
	"errors"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/munge/pkg/lexicon"
)

// ErrNoTokens is returned when the text yields no tokens.
var ErrNoTokens = errors.New("analyzer: no tokens")

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // katakana, e.g. "イッ"
	PartsOfSpeech []string // e.g. ["動詞", "自立", "*", "*", "五段・カ行促音便", "連用タ接続"]
}

// POS returns the primary part of speech, or "".
func (t Token) POS() string {
	if len(t.PartsOfSpeech) == 0 {
		return ""
	}
	return t.PartsOfSpeech[0]
}

// Analyzer wraps a kagome tokenizer.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// New creates a new tokenizer instance.
func New() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// IPA feature layout: 0-3 part of speech, 4 conjugation type, 5 conjugation
// form, 6 base form, 7 reading, 8 pronunciation.
const (
	posFeatures = 6
	baseFeature = 6
	readFeature = 7
)

// Tokenize breaks text into tokens with readings and base forms.
func (a *Analyzer) Tokenize(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		features := token.Features()
		base := token.Surface
		if len(features) > baseFeature && features[baseFeature] != "*" {
			base = features[baseFeature]
		}
		reading := ""
		if len(features) > readFeature && features[readFeature] != "*" {
			reading = features[readFeature]
		}
		pos := features
		if len(pos) > posFeatures {
			pos = pos[:posFeatures]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: append([]string(nil), pos...),
		})
	}
	return result
}

// functional parts of speech trail the word they inflect.
var functional = map[string]bool{
	"助動詞": true,
	"助詞":  true,
	"記号":  true,
}

// Analyze returns an analysis of a headword. The lemma is the text up to the
// last content token with that token in its base form. Suffix tags are the
// content token's part of speech and conjugation features followed by the
// primary part of speech of each trailing functional token.
func (a *Analyzer) Analyze(text string) (lexicon.Analysis, error) {
	tokens := a.Tokenize(text)
	if len(tokens) == 0 {
		return lexicon.Analysis{}, ErrNoTokens
	}

	head := len(tokens) - 1
	for head > 0 && functional[tokens[head].POS()] {
		head--
	}

	var lemma strings.Builder
	for _, t := range tokens[:head] {
		lemma.WriteString(t.Surface)
	}
	lemma.WriteString(tokens[head].BaseForm)

	var suffix []string
	for _, f := range tokens[head].PartsOfSpeech {
		if f != "*" && f != "" {
			suffix = append(suffix, "+"+f)
		}
	}
	for _, t := range tokens[head+1:] {
		if p := t.POS(); p != "" {
			suffix = append(suffix, "+"+p)
		}
	}
	return lexicon.Analysis{Lemma: lemma.String(), Suffix: suffix}, nil
}

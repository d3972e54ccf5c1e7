package lexicon

import (
	"encoding/json"
	"sort"
)

// ExtractLexicalTags returns the prefix and suffix tags of a that are in
// lexicalTags, deduplicated and sorted. The result is never nil.
func ExtractLexicalTags(a Analysis, lexicalTags map[string]struct{}) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, group := range [][]string{a.Prefix, a.Suffix} {
		for _, t := range group {
			if _, ok := lexicalTags[t]; !ok {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// ExtractLexicalTags applies the dictionary's configured lexical tag set.
func (d *Dictionary) ExtractLexicalTags(a Analysis) []string {
	return ExtractLexicalTags(a, d.lexicalTags)
}

type lemmaKey struct {
	FSTLemma    string   `json:"fstLemma"`
	LexicalTags []string `json:"lexicalTags"`
}

// groupKey encodes (lemma, lexical tags) as a stable map key.
func (d *Dictionary) groupKey(a Analysis) string {
	b, err := json.Marshal(lemmaKey{FSTLemma: a.Lemma, LexicalTags: d.ExtractLexicalTags(a)})
	if err != nil {
		// Marshalling a string and a string slice cannot fail.
		panic(err)
	}
	return string(b)
}

package lexicon

import (
	"fmt"
	"regexp"
	"strconv"
)

var unsafeSlugChars = regexp.MustCompile(`[/\\ ]+`)

// SanitizeHead replaces every run of '/', '\' and ' ' with a single '_'.
func SanitizeHead(head string) string {
	return unsafeSlugChars.ReplaceAllString(head, "_")
}

// AssignSlugs gives every entry without a slug a unique one, in collection
// order. Wordforms are skipped. Slugs already present are kept and reserved
// before any new slug is chosen.
func (d *Dictionary) AssignSlugs() error {
	used := make(map[string]struct{})
	for i, r := range d.records {
		if r.Role() != RoleEntry || r.Entry.Slug == "" {
			continue
		}
		if _, dup := used[r.Entry.Slug]; dup {
			return fmt.Errorf("%w: %q at position %d", ErrDuplicateSlug, r.Entry.Slug, i)
		}
		used[r.Entry.Slug] = struct{}{}
	}

	for i, r := range d.records {
		if r.Role() != RoleEntry || r.Entry.Slug != "" {
			continue
		}
		if r.Entry.Head == "" {
			return fmt.Errorf("%w: entry at position %d has no headword", ErrEmptyText, i)
		}
		slug := nextSlug(SanitizeHead(r.Entry.Head), used)
		used[slug] = struct{}{}
		r.Entry.Slug = slug
	}
	return nil
}

// nextSlug returns base, or the first base@i (i = 1, 2, ...) not in used.
func nextSlug(base string, used map[string]struct{}) string {
	if _, taken := used[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		proposed := base + "@" + strconv.Itoa(i)
		if _, taken := used[proposed]; !taken {
			return proposed
		}
	}
}

package lexicon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agnivade/levenshtein"

	"github.com/japaniel/munge/pkg/workerpool"
)

// lemmaGroup holds the positions of entries sharing (FST lemma, lexical tags).
type lemmaGroup struct {
	lemma   string
	members []int
	elected int
}

// DetermineLemmas groups entries by FST lemma and lexical tags, elects one
// entry per group to be the lemma and replaces the others, in place, with
// wordforms pointing at it. Entries without an analysis are left alone.
func (d *Dictionary) DetermineLemmas() error {
	_, err := d.determineLemmas()
	return err
}

func (d *Dictionary) determineLemmas() (int, error) {
	groups := d.groupEntries()

	if err := d.elect(groups); err != nil {
		return 0, err
	}

	for _, g := range groups {
		d.demote(g)
	}
	return len(groups), nil
}

// groupEntries returns the groups in order of first member position.
func (d *Dictionary) groupEntries() []*lemmaGroup {
	var groups []*lemmaGroup
	byKey := make(map[string]*lemmaGroup)
	for i, r := range d.records {
		if r.Role() != RoleEntry || r.Entry.Analysis == nil {
			continue
		}
		key := d.groupKey(*r.Entry.Analysis)
		g, ok := byKey[key]
		if !ok {
			g = &lemmaGroup{lemma: r.Entry.Analysis.Lemma}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}
	return groups
}

func (d *Dictionary) elect(groups []*lemmaGroup) error {
	if d.workers < 2 || len(groups) < 2 {
		for _, g := range groups {
			if err := d.electLemma(g); err != nil {
				return err
			}
		}
		return nil
	}

	// Elections only read the collection; each job writes its own group.
	pool := workerpool.New(d.workers, d.workers*2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	for _, g := range groups {
		g := g
		if err := pool.SubmitCtx(ctx, func(context.Context) error {
			return d.electLemma(g)
		}); err != nil {
			pool.Close()
			return fmt.Errorf("submit election: %w", err)
		}
	}
	pool.Close()
	return pool.Err()
}

// electLemma picks the member whose headword is closest to the group's FST
// lemma. Ties go to the earliest position.
func (d *Dictionary) electLemma(g *lemmaGroup) error {
	if len(g.members) == 0 {
		return fmt.Errorf("%w: lemma %q", ErrEmptyGroup, g.lemma)
	}
	best := g.members[0]
	bestDist := levenshtein.ComputeDistance(g.lemma, d.records[best].Entry.Head)
	for _, pos := range g.members[1:] {
		dist := levenshtein.ComputeDistance(g.lemma, d.records[pos].Entry.Head)
		if dist < bestDist {
			best, bestDist = pos, dist
		}
	}
	g.elected = best
	return nil
}

func (d *Dictionary) demote(g *lemmaGroup) {
	lemma := d.records[g.elected].Entry

	// FIXME: the elected headword is replaced by the FST lemma; keeping both
	// needs headword != lemma support downstream.
	if lemma.Head != g.lemma {
		d.logger.Debug("headword replaced by fst lemma",
			slog.String("head", lemma.Head),
			slog.String("lemma", g.lemma),
			slog.String("slug", lemma.Slug),
		)
		lemma.Head = g.lemma
	}

	for _, pos := range g.members {
		if pos == g.elected {
			continue
		}
		e := d.records[pos].Entry
		d.records[pos] = Record{Wordform: &Wordform{
			Head:     e.Head,
			Analysis: e.Analysis.clone(),
			Senses:   append([]Sense(nil), e.Senses...),
			FormOf:   g.elected,
		}}
	}
}

package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// LoadFile picks a reader by extension: .jsonl and .ndjson are source
// records, .json is jmdict-simplified.
func LoadFile(path string) ([]SourceRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return LoadJSONLFile(path)
	case ".json":
		return LoadJMdictSimplified(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// LoadFiles reads every file concurrently and concatenates the records in
// argument order.
func LoadFiles(ctx context.Context, paths []string) ([]SourceRecord, error) {
	results := make([][]SourceRecord, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := LoadFile(p)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, r := range results {
		n += len(r)
	}
	out := make([]SourceRecord, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

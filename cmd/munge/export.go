package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/munge/pkg/analyzer"
	"github.com/japaniel/munge/pkg/db"
	"github.com/japaniel/munge/pkg/ingest"
	"github.com/japaniel/munge/pkg/lexicon"
)

func exportCmd(a *app) *cobra.Command {
	var (
		dbPath   string
		out      string
		snapshot bool
	)

	c := &cobra.Command{
		Use:   "export [FILE...]",
		Short: "Build the dictionary from files or staged records and write its JSON",
		Long: "Reads the given JSONL or JMdict files, or the records staged by \"munge load\" when\n" +
			"no files are given, groups wordforms under their lemma and writes the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.DBPath
			}
			ctx := cmd.Context()

			records, err := a.sourceRecords(ctx, dbPath, args)
			if err != nil {
				return err
			}

			dict, err := a.buildDictionary(records)
			if err != nil {
				return err
			}

			start := time.Now()
			x, err := dict.Export()
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			data, err := x.JSON()
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			a.metrics.ObserveExport(x.Stats.Entries, x.Stats.Wordforms, x.Stats.Skipped, x.Stats.Groups, time.Since(start))

			if err := writeOutput(cmd.OutOrStdout(), out, data); err != nil {
				return err
			}
			a.logger.Info("export finished",
				slog.Int("entries", x.Stats.Entries),
				slog.Int("wordforms", x.Stats.Wordforms),
				slog.Int("skipped", x.Stats.Skipped),
				slog.Int("groups", x.Stats.Groups))

			if snapshot {
				if err := a.saveSnapshot(dbPath, x); err != nil {
					return err
				}
			}
			if a.cfg.MetricsFile != "" {
				if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&dbPath, "db", "", "sqlite database with staged records (default from config)")
	c.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	c.Flags().BoolVar(&snapshot, "snapshot", false, "also save the export in the database")
	return c
}

func (a *app) sourceRecords(ctx context.Context, dbPath string, files []string) ([]ingest.SourceRecord, error) {
	if len(files) > 0 {
		return ingest.LoadFiles(ctx, files)
	}
	conn, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer conn.Close()
	return ingest.LoadStaged(conn)
}

func (a *app) buildDictionary(records []ingest.SourceRecord) (*lexicon.Dictionary, error) {
	dict := lexicon.NewDictionary(a.cfg.LexicalTags,
		lexicon.WithLogger(a.logger),
		lexicon.WithWorkers(a.cfg.Workers),
		lexicon.WithDefaultSource(a.cfg.DefaultSource),
	)

	opts := []ingest.ImporterOption{
		ingest.WithNormalize(a.cfg.Normalize),
		ingest.WithInferParadigm(a.cfg.InferParadigm),
		ingest.WithAnalysisCache(a.cfg.AnalysisCacheSize),
		ingest.WithImportLogger(a.logger),
	}
	if needsJapaneseAnalyzer(records) {
		an, err := analyzer.New()
		if err != nil {
			return nil, fmt.Errorf("start analyzer: %w", err)
		}
		opts = append(opts, ingest.WithAnalyzer("ja", an))
	}

	stats, err := ingest.NewImporter(opts...).Feed(dict, records)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	a.metrics.RecordsIngested.Add(float64(stats.Records))
	a.logger.Debug("dictionary built",
		slog.Int("records", stats.Records),
		slog.Int("entries", stats.Created),
		slog.Int("senses", stats.Senses),
		slog.Int("analyzed", stats.Analyzed),
		slog.Int("conflicts", stats.Conflicts))
	return dict, nil
}

func needsJapaneseAnalyzer(records []ingest.SourceRecord) bool {
	for _, r := range records {
		if r.Lang == "ja" && !r.HasAnalysis() {
			return true
		}
	}
	return false
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (a *app) saveSnapshot(dbPath string, x *lexicon.Export) error {
	rows := make([]db.ExportedRecordRow, 0, len(x.Records))
	for _, r := range x.Records {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("snapshot %q: %w", r.Head(), err)
		}
		row := db.ExportedRecordRow{
			Position: r.Position,
			Kind:     r.Role().String(),
			Head:     r.Head(),
			Body:     string(body),
		}
		if r.Wordform != nil {
			row.FormOf = r.Wordform.FormOf
		} else {
			row.Slug = r.Entry.Slug
		}
		rows = append(rows, row)
	}

	conn, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer conn.Close()

	id, err := db.SaveExport(conn, x.Stats.Skipped, rows)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	a.logger.Info("snapshot saved", slog.Int64("export_id", id), slog.String("db", dbPath))
	return nil
}

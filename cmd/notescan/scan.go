// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/notescan/internal/anchor"
	"github.com/pdiddy/notescan/internal/coordinator"
	"github.com/pdiddy/notescan/internal/docmap"
	"github.com/pdiddy/notescan/internal/engine"
	"github.com/pdiddy/notescan/internal/registry"
	"github.com/pdiddy/notescan/internal/spancache"
	"github.com/pdiddy/notescan/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Run a full extraction scan over note files",
	Long: `Scan flattens each note file, finds occurrences of known and seeded
entities, extracts relationships between them via the configured engine,
and stores both into the local knowledge graph. Anchored decoration
spans for the found entities are cached so realign can recover them
after the files are edited.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("model", "", "engine model identifier")
	scanCmd.Flags().String("entities", "", "comma-separated entity labels to seed (label or label:kind)")
	scanCmd.Flags().Int("concurrency", 4, "number of files scanned in parallel")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)
	log := buildLogger(cmd)

	reg, err := registry.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer reg.Close()

	cache, err := spancache.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer cache.Close()

	coord := coordinator.New(cfg.Coordinator, coordinator.Deps{
		Engine:   engine.NewOpenAI(cfg.Engine, log),
		Registry: reg,
		Cache:    cache,
		Logger:   log,
	})
	defer coord.Dispose()

	labels, err := reg.Labels(ctx)
	if err != nil {
		return err
	}
	seeded, _ := cmd.Flags().GetString("entities")
	entities := mergeSeeds(labels, seeded)
	if len(entities) == 0 {
		return fmt.Errorf("no entities to scan for: registry is empty and --entities not given")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range args {
		path := path
		g.Go(func() error {
			return scanFile(gctx, coord, path, entities)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := coord.Stats()
	fmt.Fprintf(os.Stdout, "\nscans: %d, relations: %d, errors: %d\n",
		stats.Scans, stats.Relations, stats.Errors)
	if stats.Errors > 0 {
		return fmt.Errorf("%d scan failure(s)", stats.Errors)
	}
	return nil
}

// scanFile runs one full-document scan: flatten, decorate every entity
// occurrence, extract relations, cache anchored spans.
func scanFile(ctx context.Context, coord *coordinator.Coordinator, path string, entities []types.Entity) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	text, _ := docmap.Flatten(docmap.NewNoteDocument(string(data)))
	id := docID(path)

	spans := findEntitySpans(text, entities)
	observed := make([]types.EntitySpan, 0, len(spans))
	for _, s := range spans {
		coord.EntityDecoration(ctx, id, s)
		observed = append(observed, types.EntitySpan{
			Label: s.Label, Kind: s.Kind, From: s.From, To: s.To,
		})
	}

	rels := coord.NoteOpened(ctx, id, text, observed)
	coord.SaveSpans(ctx, id, spans, text)

	fmt.Fprintf(os.Stdout, "scanned %s (%d entity spans, %d relations)\n",
		path, len(spans), len(rels))
	return nil
}

// findEntitySpans locates every literal occurrence of each entity label
// in the flattened text and builds anchored decoration spans for them.
func findEntitySpans(text string, entities []types.Entity) []types.Span {
	var spans []types.Span
	for _, e := range entities {
		for from := 0; ; {
			idx := strings.Index(text[from:], e.Label)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(e.Label)
			sel := anchor.New(text, start, end)
			spans = append(spans, types.Span{
				Type:     types.SpanEntity,
				From:     start,
				To:       end,
				Label:    e.Label,
				Kind:     e.Kind,
				Selector: &sel,
			})
			from = end
		}
	}
	return spans
}

// mergeSeeds combines registry labels with --entities seeds. A seed is
// either "label" or "label:kind".
func mergeSeeds(labels []string, seeded string) []types.Entity {
	seen := make(map[string]bool)
	var entities []types.Entity

	for _, l := range labels {
		if l != "" && !seen[l] {
			seen[l] = true
			entities = append(entities, types.Entity{Label: l})
		}
	}
	for _, seed := range strings.Split(seeded, ",") {
		seed = strings.TrimSpace(seed)
		if seed == "" {
			continue
		}
		label, kind, _ := strings.Cut(seed, ":")
		if !seen[label] {
			seen[label] = true
			entities = append(entities, types.Entity{Label: label, Kind: kind})
		}
	}
	return entities
}

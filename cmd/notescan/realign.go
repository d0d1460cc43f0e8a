// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/notescan/internal/anchor"
	"github.com/pdiddy/notescan/internal/docmap"
	"github.com/pdiddy/notescan/internal/spancache"
	"github.com/pdiddy/notescan/pkg/types"
)

var realignCmd = &cobra.Command{
	Use:   "realign [files...]",
	Short: "Recover cached annotation spans after note files were edited",
	Long: `Realign reads the cached spans for each note file and recovers their
positions against the file's current content: spans whose quote is still
found are kept (relocated if the text moved), the rest are dropped. The
refreshed spans replace the cached ones unless --dry-run is given.

No extraction engine is involved; realignment is purely local.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRealign,
}

func init() {
	realignCmd.Flags().Bool("dry-run", false, "report without rewriting the cache")
	realignCmd.Flags().Bool("segments", false, "print document-coordinate ranges for recovered spans")

	rootCmd.AddCommand(realignCmd)
}

func runRealign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)

	cache, err := spancache.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer cache.Close()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	showSegments, _ := cmd.Flags().GetBool("segments")

	for _, path := range args {
		if err := realignFile(ctx, cache, path, dryRun, showSegments); err != nil {
			return err
		}
	}
	return nil
}

func realignFile(ctx context.Context, cache *spancache.Store, path string, dryRun, showSegments bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	text, segments := docmap.Flatten(docmap.NewNoteDocument(string(data)))
	id := docID(path)

	row, ok, err := cache.GetCached(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(os.Stdout, "no cache  %s (run scan first)\n", path)
		return nil
	}

	hash := docmap.ContentHash(text)
	if row.ContentHash == hash {
		fmt.Fprintf(os.Stdout, "unchanged %s (%d spans)\n", path, len(row.Spans))
		return nil
	}

	recovered := anchor.RealignBatch(row.Spans, text)
	fmt.Fprintf(os.Stdout, "realigned %s: kept %d, dropped %d\n",
		path, len(recovered), len(row.Spans)-len(recovered))

	if showSegments {
		printDocumentRanges(recovered, segments)
	}

	if dryRun {
		return nil
	}
	return cache.SaveCached(ctx, types.CacheRow{
		DocumentID:  id,
		Spans:       recovered,
		ContentHash: hash,
	})
}

// printDocumentRanges maps each span back into document coordinates with
// the permissive policy and prints the result.
func printDocumentRanges(spans []types.Span, segments []types.Segment) {
	mapper := docmap.NewMapper(segments)
	for _, s := range spans {
		r, ok := mapper.MapToDocument(s.From, s.To, docmap.MapPermissive)
		if !ok {
			fmt.Fprintf(os.Stdout, "  %-20s flat [%d,%d) -> dropped\n", s.Label, s.From, s.To)
			continue
		}
		fmt.Fprintf(os.Stdout, "  %-20s flat [%d,%d) -> doc [%s:%d, %s:%d)\n",
			s.Label, s.From, s.To, r.From.SegmentID, r.From.Pos, r.To.SegmentID, r.To.Pos)
	}
	if mapper.Dropped > 0 || mapper.Crossed > 0 {
		fmt.Fprintf(os.Stdout, "  (%d dropped, %d crossing a segment boundary)\n",
			mapper.Dropped, mapper.Crossed)
	}
}

// docID derives the cache key for a note file from its cleaned path.
func docID(path string) string {
	return filepath.Clean(path)
}

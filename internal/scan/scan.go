// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan turns a scan request into the minimal extraction payload
// and adapts the engine's result. It is stateless; staleness and retry
// policy live with the coordinator and the engine.
package scan

import (
	"context"
	"strings"

	"github.com/pdiddy/notescan/pkg/types"
)

// ExtractFunc is the external relationship-extraction call. It may be
// slow and may fail; the caller contains both.
type ExtractFunc func(ctx context.Context, content string, entities []types.EntitySpan) ([]types.Relation, error)

// Run executes one scan request against extract. An empty sentence (the
// usual shape of an idle flush with no captured context) short-circuits
// to an empty result without calling the engine. Entity positions are
// zeroed before dispatch: they are offsets into text the engine never
// sees, and relation extraction has no use for them.
func Run(ctx context.Context, req types.ScanRequest, extract ExtractFunc) ([]types.Relation, error) {
	if strings.TrimSpace(req.SentenceText) == "" {
		return nil, nil
	}

	entities := make([]types.EntitySpan, len(req.Entities))
	for i, e := range req.Entities {
		entities[i] = types.EntitySpan{ID: e.ID, Label: e.Label, Kind: e.Kind}
	}

	return extract(ctx, req.SentenceText, entities)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coordinator composes the entity event bus and the delta
// scanner, owns the generation counter that discards stale scan results,
// and forwards extracted relations to the knowledge graph registry. No
// failure escapes the coordinator boundary: on any error the displayed
// annotations simply stay stale until the next successful scan.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/notescan/internal/anchor"
	"github.com/pdiddy/notescan/internal/bus"
	"github.com/pdiddy/notescan/internal/docmap"
	"github.com/pdiddy/notescan/internal/metrics"
	"github.com/pdiddy/notescan/internal/scan"
	"github.com/pdiddy/notescan/pkg/types"
)

// DefaultOpenDebounce is used when the config leaves OpenDebounce zero.
const DefaultOpenDebounce = time.Second

// Deps are the coordinator's collaborators, passed in explicitly; there
// is no ambient lookup.
type Deps struct {
	Engine   Engine
	Registry Registry

	// Cache is optional. Without it CachedSpans always misses and
	// SaveSpans is a no-op.
	Cache SpanCache

	// Observer, when set, is called with the relations applied from each
	// scan result.
	Observer func(documentID string, relations []types.Relation)

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Stats are the coordinator's running counters.
type Stats struct {
	// Events counts decoration events received.
	Events uint64

	// Scans counts scan dispatches, full and delta.
	Scans uint64

	// Relations counts relations applied to the registry.
	Relations uint64

	// Errors counts contained failures of any kind.
	Errors uint64
}

// Coordinator is the event-driven scan coordinator.
type Coordinator struct {
	cfg  types.CoordinatorConfig
	deps Deps
	log  *zap.Logger
	bus  *bus.Bus

	mu           sync.Mutex
	lastFullScan map[string]time.Time
	generations  map[string]uint64
	stats        Stats

	now func() time.Time // test seam
}

// New wires a Coordinator to its collaborators. The returned value owns
// the event bus; call Dispose when done.
func New(cfg types.CoordinatorConfig, deps Deps) *Coordinator {
	if cfg.OpenDebounce <= 0 {
		cfg.OpenDebounce = DefaultOpenDebounce
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	c := &Coordinator{
		cfg:          cfg,
		deps:         deps,
		log:          deps.Logger,
		lastFullScan: make(map[string]time.Time),
		generations:  make(map[string]uint64),
		now:          time.Now,
	}
	c.bus = bus.New(cfg.Bus, deps.Logger, c.handleScanRequest)
	return c
}

// EntityDecoration handles one decoration event: entity variants are
// registered in the graph immediately (fire-and-forget; a registry
// failure is counted, not propagated) and forwarded to the event bus as
// observations. Relationship and predicate fragments carry no entity to
// register; malformed spans are dropped.
func (c *Coordinator) EntityDecoration(ctx context.Context, documentID string, span types.Span) {
	c.mu.Lock()
	c.stats.Events++
	c.mu.Unlock()

	switch span.Type {
	case types.SpanEntity, types.SpanEntityRef, types.SpanCrossLink,
		types.SpanImplicitEntity, types.SpanCandidate:
	case types.SpanRelationship, types.SpanPredicate:
		return
	default:
		c.log.Debug("dropping span with unknown type",
			zap.String("type", string(span.Type)))
		return
	}

	if err := c.deps.Registry.RegisterEntity(ctx, span.Label, span.Kind, documentID, types.RegisterOptions{}); err != nil {
		c.containFailure("registry", documentID, err)
	}

	c.bus.EntityObserved(documentID, types.EntitySpan{
		ID:    span.Target,
		Label: span.Label,
		Kind:  span.Kind,
		From:  span.From,
		To:    span.To,
	})
}

// Keystroke forwards one typed character to the event bus.
func (c *Coordinator) Keystroke(documentID string, ch rune, cursor int, contextText string) {
	c.bus.Keystroke(documentID, ch, cursor, contextText)
}

// Flush forces an explicit scan of whatever the bus has accumulated.
func (c *Coordinator) Flush(documentID string, contextText string) {
	c.bus.Flush(documentID, contextText)
}

// NoteOpened runs a full-document scan and returns the relations it
// applied. A repeated open of the same document within the debounce
// window is skipped; editors tend to fire duplicate open events. The
// scan is synchronous but still generation-stamped, so a delta scan
// dispatched meanwhile supersedes it.
func (c *Coordinator) NoteOpened(ctx context.Context, documentID, content string, entities []types.EntitySpan) []types.Relation {
	c.mu.Lock()
	if last, ok := c.lastFullScan[documentID]; ok && c.now().Sub(last) < c.cfg.OpenDebounce {
		c.mu.Unlock()
		c.log.Debug("skipping duplicate open scan", zap.String("document", documentID))
		return nil
	}
	c.lastFullScan[documentID] = c.now()
	gen := c.nextGenLocked(documentID)
	c.stats.Scans++
	c.mu.Unlock()
	metrics.ScansTotal.WithLabelValues("open").Inc()

	rels, err := c.deps.Engine.ExtractRelations(ctx, content, entities)
	if err != nil {
		c.containFailure("extract", documentID, err)
		return nil
	}
	return c.applyResult(ctx, documentID, gen, rels)
}

// handleScanRequest is the bus's emit target. The generation is taken
// before dispatch; the engine call runs on its own goroutine and its
// result is applied only if no fresher dispatch happened meanwhile.
func (c *Coordinator) handleScanRequest(req types.ScanRequest) {
	c.mu.Lock()
	gen := c.nextGenLocked(req.DocumentID)
	c.stats.Scans++
	c.mu.Unlock()
	metrics.ScansTotal.WithLabelValues(string(req.Trigger)).Inc()

	go func() {
		rels, err := scan.Run(context.Background(), req, c.deps.Engine.ExtractRelations)
		if err != nil {
			c.containFailure("extract", req.DocumentID, err)
			return
		}
		if len(rels) == 0 {
			return
		}
		c.applyResult(context.Background(), req.DocumentID, gen, rels)
	}()
}

// applyResult upserts a scan's relations unless a fresher generation has
// been dispatched for the document since. There is no explicit
// cancellation of in-flight engine calls; staleness is observed here, at
// the application point, and the stale result is simply discarded.
func (c *Coordinator) applyResult(ctx context.Context, documentID string, gen uint64, rels []types.Relation) []types.Relation {
	c.mu.Lock()
	current := c.generations[documentID]
	c.mu.Unlock()
	if current != gen {
		metrics.StaleResultsTotal.Inc()
		c.log.Debug("discarding superseded scan result",
			zap.String("document", documentID),
			zap.Uint64("generation", gen),
			zap.Uint64("current", current))
		return nil
	}

	applied := make([]types.Relation, 0, len(rels))
	for _, rel := range rels {
		if rel.ID == "" {
			rel.ID = uuid.NewString()
		}
		rel.DocumentID = documentID

		if err := c.deps.Registry.UpsertRelationship(ctx, rel); err != nil {
			c.containFailure("registry", documentID, err)
			continue
		}
		applied = append(applied, rel)
	}

	c.mu.Lock()
	c.stats.Relations += uint64(len(applied))
	c.mu.Unlock()
	metrics.RelationsTotal.Add(float64(len(applied)))

	if c.deps.Observer != nil && len(applied) > 0 {
		c.deps.Observer(documentID, applied)
	}
	return applied
}

// CachedSpans recovers a document's spans from the cache. When the
// stored content hash still matches text the spans are returned as
// written; otherwise they are realigned against text, dropping the ones
// that cannot be recovered. A false return (cache miss or read failure)
// tells the caller to fall back to a fresh scan.
func (c *Coordinator) CachedSpans(ctx context.Context, documentID, text string) ([]types.Span, bool) {
	if c.deps.Cache == nil {
		return nil, false
	}

	row, ok, err := c.deps.Cache.GetCached(ctx, documentID)
	if err != nil {
		c.containFailure("cache", documentID, err)
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	if row.ContentHash == docmap.ContentHash(text) {
		metrics.CacheTotal.WithLabelValues("hit").Inc()
		return row.Spans, true
	}

	metrics.CacheTotal.WithLabelValues("stale").Inc()
	spans := anchor.RealignBatch(row.Spans, text)
	if dropped := len(row.Spans) - len(spans); dropped > 0 {
		metrics.SpansDroppedTotal.WithLabelValues("not_found").Add(float64(dropped))
		c.log.Debug("dropped spans during realignment",
			zap.String("document", documentID),
			zap.Int("dropped", dropped))
	}
	return spans, true
}

// SaveSpans replaces the cached spans for a document. Persistence
// failures are contained like every other failure.
func (c *Coordinator) SaveSpans(ctx context.Context, documentID string, spans []types.Span, text string) {
	if c.deps.Cache == nil {
		return
	}
	row := types.CacheRow{
		DocumentID:  documentID,
		Spans:       spans,
		ContentHash: docmap.ContentHash(text),
	}
	if err := c.deps.Cache.SaveCached(ctx, row); err != nil {
		c.containFailure("cache", documentID, err)
	}
}

// Stats returns a snapshot of the running counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Dispose shuts down the event bus. In-flight engine calls are not
// interrupted; their results fail the generation check if they resolve
// after a later dispatch, and otherwise apply normally.
func (c *Coordinator) Dispose() {
	c.bus.Dispose()
}

func (c *Coordinator) nextGenLocked(documentID string) uint64 {
	c.generations[documentID]++
	return c.generations[documentID]
}

func (c *Coordinator) containFailure(stage, documentID string, err error) {
	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
	metrics.ErrorsTotal.WithLabelValues(stage).Inc()
	c.log.Warn("contained failure",
		zap.String("stage", stage),
		zap.String("document", documentID),
		zap.Error(err))
}

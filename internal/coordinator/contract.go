// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"context"

	"github.com/pdiddy/notescan/pkg/types"
)

// Engine is the external relationship-extraction engine. Calls may be
// slow and may fail; the coordinator treats both as routine.
type Engine interface {
	ExtractRelations(ctx context.Context, content string, entities []types.EntitySpan) ([]types.Relation, error)
}

// Registry is the external knowledge graph. Upserts are idempotent, so
// the coordinator writes without coordination: at most one logical write
// per registration event and per relation.
type Registry interface {
	RegisterEntity(ctx context.Context, label, kind, documentID string, opts types.RegisterOptions) error
	UpsertRelationship(ctx context.Context, rel types.Relation) error
	IsRegisteredEntity(ctx context.Context, label string) (bool, error)
	FindEntityByLabel(ctx context.Context, label string) (*types.Entity, error)
}

// SpanCache is the external annotation persistence used for
// cross-session span recovery. A read failure never blocks a fresh scan.
type SpanCache interface {
	GetCached(ctx context.Context, documentID string) (types.CacheRow, bool, error)
	SaveCached(ctx context.Context, row types.CacheRow) error
}

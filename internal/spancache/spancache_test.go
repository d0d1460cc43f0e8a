// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spancache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notescan/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetCachedMiss(t *testing.T) {
	s := testStore(t)
	_, ok, err := s.GetCached(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sel := types.Anchor{Exact: "Aragorn", Prefix: "Then ", Suffix: " rode"}
	row := types.CacheRow{
		DocumentID: "notes/a.md",
		Spans: []types.Span{
			{Type: types.SpanEntity, Label: "Aragorn", Kind: "character", From: 5, To: 12, Selector: &sel},
			{Type: types.SpanCrossLink, Label: "Gondor", From: 20, To: 26, Target: "e7"},
		},
		ContentHash: "00000000deadbeef",
	}
	require.NoError(t, s.SaveCached(ctx, row))

	got, ok, err := s.GetCached(ctx, "notes/a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, row, got)
	require.NotNil(t, got.Spans[0].Selector)
	assert.Equal(t, "Aragorn", got.Spans[0].Selector.Exact)
}

func TestSaveCachedReplacesRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCached(ctx, types.CacheRow{
		DocumentID:  "doc",
		Spans:       []types.Span{{Type: types.SpanEntity, Label: "old", From: 0, To: 3}},
		ContentHash: "aaaa",
	}))
	require.NoError(t, s.SaveCached(ctx, types.CacheRow{
		DocumentID:  "doc",
		Spans:       []types.Span{{Type: types.SpanEntity, Label: "new", From: 4, To: 7}},
		ContentHash: "bbbb",
	}))

	got, ok, err := s.GetCached(ctx, "doc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Spans, 1)
	assert.Equal(t, "new", got.Spans[0].Label)
	assert.Equal(t, "bbbb", got.ContentHash)
}

func TestClear(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCached(ctx, types.CacheRow{DocumentID: "doc", ContentHash: "cccc"}))
	require.NoError(t, s.Clear(ctx, "doc"))

	_, ok, err := s.GetCached(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an absent row is not an error.
	require.NoError(t, s.Clear(ctx, "doc"))
}

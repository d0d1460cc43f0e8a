// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notescan/pkg/types"
)

// fakeDoc is a structured document with position gaps between nodes, the
// way markup-bearing documents have them.
type fakeDoc []struct {
	text string
	pos  int
}

func (d fakeDoc) Traverse(fn func(text string, pos int)) {
	for _, n := range d {
		fn(n.text, n.pos)
	}
}

func testDoc() fakeDoc {
	return fakeDoc{
		{"Hello ", 10},
		{"world", 30},
		{"!", 50},
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	text, segments := Flatten(testDoc())

	assert.Equal(t, "Hello world!", text)
	require.Len(t, segments, 3)

	// Concatenating segment texts in order reproduces the flat text.
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	assert.Equal(t, text, b.String())

	// Segments are disjoint and ordered by flat offset.
	for i, s := range segments {
		assert.Equal(t, len(s.Text), s.Length)
		if i > 0 {
			prev := segments[i-1]
			assert.Equal(t, prev.FlatOffset+prev.Length, s.FlatOffset)
		}
	}
	assert.Equal(t, 30, segments[1].DocumentPos)
}

func TestFlattenSkipsEmptyNodes(t *testing.T) {
	doc := fakeDoc{{"a", 0}, {"", 5}, {"b", 9}}
	text, segments := Flatten(doc)
	assert.Equal(t, "ab", text)
	assert.Len(t, segments, 2)
}

func TestMapToDocumentWithinSegment(t *testing.T) {
	_, segments := Flatten(testDoc())
	m := NewMapper(segments)

	r, ok := m.MapToDocument(0, 5, MapStrict)
	require.True(t, ok)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-0", Pos: 10}, r.From)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-0", Pos: 15}, r.To)

	r, ok = m.MapToDocument(6, 11, MapStrict)
	require.True(t, ok)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-1", Pos: 30}, r.From)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-1", Pos: 35}, r.To)

	// A range ending exactly at a segment boundary belongs to the segment
	// that holds its last character.
	r, ok = m.MapToDocument(5, 6, MapStrict)
	require.True(t, ok)
	assert.Equal(t, "seg-0", r.From.SegmentID)
	assert.Equal(t, "seg-0", r.To.SegmentID)
	assert.Equal(t, 16, r.To.Pos)

	assert.Zero(t, m.Dropped)
	assert.Zero(t, m.Crossed)
}

func TestMapToDocumentCrossingSegments(t *testing.T) {
	_, segments := Flatten(testDoc())

	strict := NewMapper(segments)
	_, ok := strict.MapToDocument(4, 8, MapStrict)
	assert.False(t, ok)
	assert.Equal(t, 1, strict.Dropped)
	assert.Equal(t, 1, strict.Crossed)

	permissive := NewMapper(segments)
	r, ok := permissive.MapToDocument(4, 8, MapPermissive)
	require.True(t, ok)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-0", Pos: 14}, r.From)
	assert.Equal(t, types.DocumentPoint{SegmentID: "seg-1", Pos: 32}, r.To)
	assert.Equal(t, 0, permissive.Dropped)
	assert.Equal(t, 1, permissive.Crossed)
}

func TestMapToDocumentDropsOutOfBounds(t *testing.T) {
	_, segments := Flatten(testDoc())
	m := NewMapper(segments)

	tests := []struct {
		name     string
		from, to int
	}{
		{"end beyond all segments", 0, 13},
		{"start beyond all segments", 40, 45},
		{"negative start", -1, 3},
		{"empty range", 3, 3},
		{"inverted range", 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.MapToDocument(tt.from, tt.to, MapPermissive)
			assert.False(t, ok)
		})
	}
	assert.Equal(t, len(tests), m.Dropped)
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("Aragorn walked to Gondor.")
	h2 := ContentHash("Aragorn walked to Gondor.")
	h3 := ContentHash("Aragorn walked to Mordor.")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 16)
}

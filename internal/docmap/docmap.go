// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docmap translates between the flattened text the extraction
// engine scans and the structured document's addressable text segments.
package docmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/pdiddy/notescan/pkg/types"
)

// Document is the structured-document accessor this package consumes. A
// document need only enumerate its literal-text-bearing nodes in document
// order, each with its starting position in document coordinates.
type Document interface {
	Traverse(fn func(text string, pos int))
}

// Flatten traverses doc once and returns the concatenated flat text
// together with the segment table. Concatenating the segments' Text in
// order reproduces the returned text exactly; empty nodes produce no
// segment.
func Flatten(doc Document) (string, []types.Segment) {
	var (
		b        strings.Builder
		segments []types.Segment
	)

	doc.Traverse(func(text string, pos int) {
		if text == "" {
			return
		}
		segments = append(segments, types.Segment{
			SegmentID:   fmt.Sprintf("seg-%d", len(segments)),
			DocumentPos: pos,
			FlatOffset:  b.Len(),
			Length:      len(text),
			Text:        text,
		})
		b.WriteString(text)
	})

	return b.String(), segments
}

// Policy selects how a span that straddles a segment boundary is mapped.
type Policy int

const (
	// MapStrict drops spans whose start and end land in different segments.
	MapStrict Policy = iota

	// MapPermissive maps each endpoint independently into document
	// coordinates regardless of segment crossing.
	MapPermissive
)

// Mapper maps flat-text offsets back into document coordinates against
// one flattening's segment table, counting dropped and boundary-crossing
// spans for diagnostics.
type Mapper struct {
	segments []types.Segment

	// Dropped counts spans that could not be mapped.
	Dropped int

	// Crossed counts spans whose endpoints landed in different segments,
	// whether or not the policy dropped them.
	Crossed int
}

// NewMapper builds a Mapper over segments, which must be ordered by
// FlatOffset as produced by Flatten.
func NewMapper(segments []types.Segment) *Mapper {
	return &Mapper{segments: segments}
}

// MapToDocument maps the half-open flat range [from, to) into document
// coordinates. A false return means the span was dropped: an endpoint lay
// beyond every segment (the span was computed against a stale
// flattening), or the policy is strict and the endpoints straddle a
// segment boundary. Dropping is an expected outcome, not an error.
func (m *Mapper) MapToDocument(from, to int, policy Policy) (types.DocumentRange, bool) {
	if from < 0 || to <= from {
		m.Dropped++
		return types.DocumentRange{}, false
	}

	// The end segment is looked up at to-1: the range is half-open, so the
	// last contained character decides where the span ends.
	startSeg, ok := m.segmentAt(from)
	if !ok {
		m.Dropped++
		return types.DocumentRange{}, false
	}
	endSeg, ok := m.segmentAt(to - 1)
	if !ok {
		m.Dropped++
		return types.DocumentRange{}, false
	}

	if startSeg.SegmentID != endSeg.SegmentID {
		m.Crossed++
		if policy == MapStrict {
			m.Dropped++
			return types.DocumentRange{}, false
		}
	}

	return types.DocumentRange{
		From: types.DocumentPoint{
			SegmentID: startSeg.SegmentID,
			Pos:       startSeg.DocumentPos + (from - startSeg.FlatOffset),
		},
		To: types.DocumentPoint{
			SegmentID: endSeg.SegmentID,
			Pos:       endSeg.DocumentPos + (to - endSeg.FlatOffset),
		},
	}, true
}

// segmentAt returns the segment containing flat offset off.
func (m *Mapper) segmentAt(off int) (types.Segment, bool) {
	i := sort.Search(len(m.segments), func(i int) bool {
		s := m.segments[i]
		return s.FlatOffset+s.Length > off
	})
	if i >= len(m.segments) || m.segments[i].FlatOffset > off {
		return types.Segment{}, false
	}
	return m.segments[i], true
}

// ContentHash digests the flattened text for cache invalidation. xxhash
// is fast and non-cryptographic, which is all "did the text change since
// the last cache write" needs.
func ContentHash(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

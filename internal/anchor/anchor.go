// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anchor builds text-quote anchors for decoration spans and
// relocates spans after edits via a tiered resolution ladder: position
// fast path, unique quote search, then context-scored disambiguation.
package anchor

import "github.com/pdiddy/notescan/pkg/types"

// ContextWindow is the maximum number of characters of surrounding
// context captured on each side of the exact quote.
const ContextWindow = 32

// New builds an Anchor for the range [from, to) of text. Out-of-range
// offsets are clamped to the document bounds, never rejected; the prefix
// and suffix windows clamp the same way, so an anchor near a document
// boundary simply carries shorter context.
func New(text string, from, to int) types.Anchor {
	from = clamp(from, 0, len(text))
	to = clamp(to, 0, len(text))
	if from > to {
		from, to = to, from
	}

	return types.Anchor{
		Exact:  text[from:to],
		Prefix: text[max(0, from-ContextWindow):from],
		Suffix: text[to:min(len(text), to+ContextWindow)],
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anchor

import (
	"strings"

	"github.com/pdiddy/notescan/pkg/types"
)

// Realign recovers a span's position in text after arbitrary edits. The
// three tiers run in order and the first success wins:
//
//  1. Position fast path: the quote is still at the recorded offset and
//     the surrounding context is compatible. Returns the span unchanged.
//  2. Unique quote search: the quote occurs exactly once. Returns the span
//     relocated there, trusting uniqueness over context.
//  3. Disambiguated search: two or more occurrences are scored against the
//     stored prefix/suffix; the strictly best candidate wins, ties going
//     to the earliest occurrence.
//
// A false return means the quote is gone from the text. That is an
// expected outcome of editing, not an error; the caller drops the span.
func Realign(span types.Span, text string) (types.Span, bool) {
	sel := span.Selector
	if sel == nil {
		return realignLegacy(span, text)
	}
	if sel.Exact == "" {
		return types.Span{}, false
	}

	if positionMatches(span, *sel, text) {
		return span, true
	}

	occurrences := indexAll(text, sel.Exact)
	switch len(occurrences) {
	case 0:
		return types.Span{}, false
	case 1:
		return relocate(span, occurrences[0]), true
	}

	return relocate(span, disambiguate(*sel, text, occurrences)), true
}

// RealignBatch realigns every span against text, silently omitting the
// ones that cannot be recovered. The input slice is not modified.
func RealignBatch(spans []types.Span, text string) []types.Span {
	out := make([]types.Span, 0, len(spans))
	for _, s := range spans {
		if realigned, ok := Realign(s, text); ok {
			out = append(out, realigned)
		}
	}
	return out
}

// positionMatches is tier 1: the exact quote still sits at the recorded
// offset and the current context, read at the stored widths, agrees with
// the stored context up to truncation at a document boundary.
func positionMatches(span types.Span, sel types.Anchor, text string) bool {
	// Spans come back from persisted cache rows, so the range cannot be
	// trusted; a malformed one fails the fast path and falls through to
	// the search tiers.
	if span.From < 0 || span.From >= span.To || span.From >= len(text) || span.To > len(text) {
		return false
	}
	if text[span.From:span.To] != sel.Exact {
		return false
	}

	curPrefix := text[max(0, span.From-len(sel.Prefix)):span.From]
	curSuffix := text[span.To:min(len(text), span.To+len(sel.Suffix))]

	// Prefixes truncate at the document start, so the shorter one must be
	// a tail of the longer; suffixes truncate at the end, so a head.
	prefixOK := strings.HasSuffix(sel.Prefix, curPrefix) || strings.HasSuffix(curPrefix, sel.Prefix)
	suffixOK := strings.HasPrefix(sel.Suffix, curSuffix) || strings.HasPrefix(curSuffix, sel.Suffix)
	return prefixOK && suffixOK
}

// disambiguate is tier 3: score every occurrence by context agreement and
// return the winner's offset. Iteration order makes ties deterministic:
// only a strictly higher score displaces an earlier candidate.
func disambiguate(sel types.Anchor, text string, occurrences []int) int {
	best := occurrences[0]
	bestScore := -1.0

	for _, idx := range occurrences {
		end := idx + len(sel.Exact)

		// Candidate context is read at the stored widths so an unchanged
		// context compares position-for-position against the anchor.
		candPrefix := text[max(0, idx-len(sel.Prefix)):idx]
		candSuffix := text[end:min(len(text), end+len(sel.Suffix))]

		score := matchScore(sel.Prefix, candPrefix) + matchScore(sel.Suffix, candSuffix)
		if score > bestScore {
			best = idx
			bestScore = score
		}
	}
	return best
}

// matchScore counts characters that agree at corresponding positions from
// the start of each string, scaled by the longer length to 0-100. The
// comparison is positional, not edit-distance based, so a context shifted
// by one inserted character scores near zero.
func matchScore(stored, actual string) float64 {
	if len(stored) == 0 && len(actual) == 0 {
		return 100
	}

	n := min(len(stored), len(actual))
	matches := 0
	for i := 0; i < n; i++ {
		if stored[i] == actual[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(stored), len(actual))) * 100
}

// realignLegacy accepts an anchorless span only while the text at its
// recorded position still equals its label. Older cache rows predate the
// selector field; there is nothing else to search by.
func realignLegacy(span types.Span, text string) (types.Span, bool) {
	if span.From < 0 || span.From >= span.To || span.To > len(text) {
		return types.Span{}, false
	}
	if text[span.From:span.To] != span.Label {
		return types.Span{}, false
	}
	return span, true
}

// indexAll returns the offset of every occurrence of quote in text,
// overlapping occurrences included, in document order.
func indexAll(text, quote string) []int {
	var out []int
	for from := 0; ; {
		idx := strings.Index(text[from:], quote)
		if idx < 0 {
			return out
		}
		out = append(out, from+idx)
		from += idx + 1
	}
}

func relocate(span types.Span, idx int) types.Span {
	span.From = idx
	span.To = idx + len(span.Selector.Exact)
	return span
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notescan/pkg/types"
)

func anchoredSpan(from, to int, sel types.Anchor) types.Span {
	return types.Span{
		Type:     types.SpanEntity,
		From:     from,
		To:       to,
		Label:    sel.Exact,
		Selector: &sel,
	}
}

// --- tier 1: position fast path ---

func TestRealignUnchangedTextReturnsSpanUnchanged(t *testing.T) {
	text := "Aragorn walked to Gondor."
	span := anchoredSpan(18, 24, New(text, 18, 24))

	got, ok := Realign(span, text)
	require.True(t, ok)
	assert.Equal(t, span, got)
}

func TestRealignPositionMatchWithTruncatedContext(t *testing.T) {
	// The anchor remembers context from a longer document; after deleting
	// everything before the quote, the current prefix is a shorter tail of
	// the stored one and the position match still holds.
	span := anchoredSpan(0, 6, types.Anchor{
		Exact:  "Gondor",
		Prefix: "Aragorn went to ",
		Suffix: " fell.",
	})

	got, ok := Realign(span, "Gondor fell.")
	require.True(t, ok)
	assert.Equal(t, span, got)
}

// --- tier 2: unique quote search ---

func TestRealignRelocatesUniqueQuote(t *testing.T) {
	oldText := "Aragorn walked to Gondor."
	span := anchoredSpan(18, 24, New(oldText, 18, 24))

	newText := "Aragorn quickly walked to Gondor."
	got, ok := Realign(span, newText)
	require.True(t, ok)
	assert.Equal(t, 26, got.From)
	assert.Equal(t, 32, got.To)
	assert.Equal(t, "Gondor", newText[got.From:got.To])
}

func TestRealignDeletedQuoteIsNotFound(t *testing.T) {
	oldText := "Aragorn walked to Gondor."
	span := anchoredSpan(18, 24, New(oldText, 18, 24))

	_, ok := Realign(span, "Aragorn walked home.")
	assert.False(t, ok)
}

func TestRealignEmptyQuoteIsNotFound(t *testing.T) {
	span := anchoredSpan(0, 0, types.Anchor{Exact: ""})
	_, ok := Realign(span, "anything")
	assert.False(t, ok)
}

// --- tier 3: disambiguated search ---

func TestRealignDisambiguatesByContext(t *testing.T) {
	text := "a wizard arrives. Later, a wizard departs."
	// Anchor recorded against the second occurrence; the recorded offset
	// is stale so the fast path cannot fire.
	span := anchoredSpan(100, 108, types.Anchor{
		Exact:  "a wizard",
		Prefix: "Later, ",
		Suffix: " departs.",
	})

	got, ok := Realign(span, text)
	require.True(t, ok)
	assert.Equal(t, 25, got.From, "must pick the occurrence whose context matches, not the first")
	assert.Equal(t, 33, got.To)
}

func TestRealignDisambiguationTieGoesToEarliest(t *testing.T) {
	span := anchoredSpan(50, 54, types.Anchor{Exact: "echo"})

	got, ok := Realign(span, "echo echo")
	require.True(t, ok)
	assert.Equal(t, 0, got.From)
}

func TestMatchScoreIsPositionalNotEditDistance(t *testing.T) {
	// A context shifted by one inserted character scores near zero even
	// though it is textually almost identical. Preserved behavior, not a
	// bug to fix.
	assert.Equal(t, 0.0, matchScore("Later, ", "xLater,"))
	assert.Equal(t, 100.0, matchScore("Later, ", "Later, "))
	assert.Equal(t, 100.0, matchScore("", ""))
	assert.Equal(t, 0.0, matchScore("Later, ", ""))
}

// --- properties ---

func TestRealignIdempotence(t *testing.T) {
	oldText := "Aragorn walked to Gondor."
	span := anchoredSpan(18, 24, New(oldText, 18, 24))
	newText := "Aragorn quickly walked to Gondor."

	once, ok := Realign(span, newText)
	require.True(t, ok)
	twice, ok := Realign(once, newText)
	require.True(t, ok)
	assert.Equal(t, once, twice)
}

// --- legacy spans without an anchor ---

func TestRealignMalformedRangeFallsThroughToSearch(t *testing.T) {
	// Cache rows are JSON from disk; an inverted range must not crash the
	// fast path. The quote is still recoverable by search.
	text := "Aragorn walked to Gondor."
	span := anchoredSpan(10, 4, types.Anchor{Exact: "Gondor", Prefix: " to ", Suffix: "."})

	got, ok := Realign(span, text)
	require.True(t, ok)
	assert.Equal(t, 18, got.From)
	assert.Equal(t, 24, got.To)

	// With the quote gone the malformed span is dropped, not a panic.
	span = anchoredSpan(10, 4, types.Anchor{Exact: "Mordor"})
	_, ok = Realign(span, text)
	assert.False(t, ok)
}

func TestRealignLegacySpan(t *testing.T) {
	span := types.Span{Type: types.SpanEntity, From: 4, To: 9, Label: "stone"}

	got, ok := Realign(span, "the stone sank")
	require.True(t, ok)
	assert.Equal(t, span, got)

	_, ok = Realign(span, "the river sank")
	assert.False(t, ok, "legacy span survives only while the text at its offset matches")

	_, ok = Realign(span, "the")
	assert.False(t, ok, "legacy span beyond the text is dropped")
}

// --- batch ---

func TestRealignBatchOmitsFailures(t *testing.T) {
	oldText := "Frodo met Gandalf near Bree."
	spans := []types.Span{
		anchoredSpan(0, 5, New(oldText, 0, 5)),     // Frodo
		anchoredSpan(10, 17, New(oldText, 10, 17)), // Gandalf
		anchoredSpan(23, 27, New(oldText, 23, 27)), // Bree
	}

	newText := "Frodo met nobody near Bree."
	got := RealignBatch(spans, newText)

	require.Len(t, got, 2)
	assert.Equal(t, "Frodo", got[0].Label)
	assert.Equal(t, "Bree", got[1].Label)
	assert.Equal(t, "Bree", newText[got[1].From:got[1].To])
}

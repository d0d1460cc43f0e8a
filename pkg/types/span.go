// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the value types shared across notescan stages:
// decoration spans, anchors, segments, scan requests, and graph records.
package types

// SpanType tags the decoration span variant. Every consumer of spans
// switches exhaustively on this tag; unknown values are treated as
// malformed and dropped.
type SpanType string

const (
	// SpanEntity is a plain named entity decorated in the text.
	SpanEntity SpanType = "entity"

	// SpanEntityRef is a reference to an entity declared elsewhere.
	SpanEntityRef SpanType = "entity-ref"

	// SpanCrossLink links to an entity in another document.
	SpanCrossLink SpanType = "cross-link"

	// SpanRelationship marks a full subject-predicate-object statement.
	SpanRelationship SpanType = "relationship"

	// SpanPredicate marks the predicate fragment of a statement.
	SpanPredicate SpanType = "predicate"

	// SpanImplicitEntity is an entity detected by the extraction engine
	// rather than decorated by the author.
	SpanImplicitEntity SpanType = "implicit-entity"

	// SpanCandidate is an unconfirmed entity candidate awaiting review.
	SpanCandidate SpanType = "candidate"
)

// Valid reports whether t is a known span variant.
func (t SpanType) Valid() bool {
	switch t {
	case SpanEntity, SpanEntityRef, SpanCrossLink, SpanRelationship,
		SpanPredicate, SpanImplicitEntity, SpanCandidate:
		return true
	}
	return false
}

// Anchor is a TextQuoteSelector: the exact annotated text plus a bounded
// window of surrounding context, clamped to document bounds. It is created
// once at scan time and never modified; realignment uses it to re-identify
// the same occurrence after arbitrary edits without trusting the numeric
// offset.
type Anchor struct {
	// Exact is the literal annotated text.
	Exact string `json:"exact" yaml:"exact"`

	// Prefix is up to 32 characters of text immediately before Exact.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Suffix is up to 32 characters of text immediately after Exact.
	Suffix string `json:"suffix" yaml:"suffix"`
}

// Span is a decoration over the half-open range [From, To) in some
// coordinate space. Spans are replaced wholesale, never mutated in place:
// a fresh scan or a successful realignment produces a new Span value.
type Span struct {
	// Type tags the variant. See SpanType.
	Type SpanType `json:"type" yaml:"type"`

	// From and To delimit the half-open range [From, To). From < To and
	// both are non-negative; To never exceeds the text length at creation.
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`

	// Label is the display text of the annotation. For entity variants it
	// is the matched text at creation time.
	Label string `json:"label" yaml:"label"`

	// Kind is the optional semantic kind (e.g. "character", "place").
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Target is the optional linked entity or document identifier, set on
	// entity-ref and cross-link variants.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Resolved records whether the span's target has been resolved against
	// the registry. Meaningful for entity-ref, cross-link, and candidate
	// variants only.
	Resolved bool `json:"resolved,omitempty" yaml:"resolved,omitempty"`

	// Selector is the anchor used to relocate the span after edits. Spans
	// from older cache formats may lack one; they survive only while the
	// text at their recorded position still equals Label.
	Selector *Anchor `json:"selector,omitempty" yaml:"selector,omitempty"`
}

// Len returns the length of the span's range.
func (s Span) Len() int { return s.To - s.From }

// Trigger is the reason a scan request was emitted.
type Trigger string

const (
	// TriggerPunctuation fires when a sentence-terminal character is typed.
	TriggerPunctuation Trigger = "punctuation"

	// TriggerIdle fires when the idle timer elapses uninterrupted.
	TriggerIdle Trigger = "idle"

	// TriggerExplicit fires on an explicit flush request.
	TriggerExplicit Trigger = "explicit"
)

// EntitySpan is one observed entity occurrence, as handed to the
// extraction engine. Position fields are zeroed before dispatch; relation
// extraction does not need them.
type EntitySpan struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	From  int    `json:"from" yaml:"from"`
	To    int    `json:"to" yaml:"to"`
}

// ScanRequest is the payload the event bus emits when a flush condition
// fires. It is consumed exactly once by the delta scanner.
type ScanRequest struct {
	// Trigger records which policy condition fired.
	Trigger Trigger `json:"trigger" yaml:"trigger"`

	// DocumentID identifies the document the entities were observed in.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Entities are the observations accumulated since the last flush.
	Entities []EntitySpan `json:"entities" yaml:"entities"`

	// SentenceText is the caller-supplied context window around the
	// triggering position. May be empty on idle flushes with no captured
	// context; the delta scanner skips the engine call in that case.
	SentenceText string `json:"sentence_text" yaml:"sentence_text"`
}

// Segment describes one contiguous run of literal text inside the
// structured document. Segments are disjoint, ordered by FlatOffset, and
// concatenating their Text values in order reproduces the flattened text
// exactly.
type Segment struct {
	// SegmentID identifies the segment within one flattening.
	SegmentID string `json:"segment_id" yaml:"segment_id"`

	// DocumentPos is the starting position in document coordinates.
	DocumentPos int `json:"document_pos" yaml:"document_pos"`

	// FlatOffset is the starting offset in the flattened text.
	FlatOffset int `json:"flat_offset" yaml:"flat_offset"`

	// Length is the length of Text.
	Length int `json:"length" yaml:"length"`

	// Text is the literal run.
	Text string `json:"text" yaml:"text"`
}

// DocumentPoint is one endpoint of a range in document coordinates.
type DocumentPoint struct {
	SegmentID string `json:"segment_id" yaml:"segment_id"`
	Pos       int    `json:"pos" yaml:"pos"`
}

// DocumentRange is a flat-text range mapped back into document
// coordinates. From and To may land in different segments when the span
// straddles a formatting boundary.
type DocumentRange struct {
	From DocumentPoint `json:"from" yaml:"from"`
	To   DocumentPoint `json:"to" yaml:"to"`
}

// CacheRow is the persisted annotation record for one document.
type CacheRow struct {
	// DocumentID identifies the document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Spans are the cached decoration spans in flat-text coordinates.
	Spans []Span `json:"spans" yaml:"spans"`

	// ContentHash is a fast non-cryptographic digest of the flattened text
	// the spans were computed against. Used only to detect "unchanged since
	// last write"; not a security boundary.
	ContentHash string `json:"content_hash" yaml:"content_hash"`
}

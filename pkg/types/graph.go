// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Entity is a registered node in the knowledge graph.
type Entity struct {
	// ID is a stable identifier assigned at first registration.
	ID string `json:"id" yaml:"id"`

	// Label is the entity's display name, unique within the registry.
	Label string `json:"label" yaml:"label"`

	// Kind is the semantic kind (e.g. "character", "place", "concept").
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// DocumentID is the document the entity was first registered from.
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	// Attributes holds free-form key/value metadata.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// RegisterOptions carries optional metadata for entity registration.
type RegisterOptions struct {
	// Attributes holds free-form key/value metadata, merged into the
	// entity record on every registration.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Relation is one extracted subject-predicate-object statement.
type Relation struct {
	// ID is assigned by the coordinator when the engine returns none.
	ID string `json:"id" yaml:"id"`

	// Subject and Object are entity labels.
	Subject string `json:"subject" yaml:"subject"`

	// Predicate is the relationship verb phrase, lowercase.
	Predicate string `json:"predicate" yaml:"predicate"`

	Object string `json:"object" yaml:"object"`

	// DocumentID is the document the relation was extracted from.
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	// Confidence is the engine's certainty, between 0.0 and 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

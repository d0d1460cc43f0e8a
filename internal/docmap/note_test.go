// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRuns(source string) (texts []string, positions []int) {
	NewNoteDocument(source).Traverse(func(text string, pos int) {
		texts = append(texts, text)
		positions = append(positions, pos)
	})
	return texts, positions
}

func TestNoteDocumentPlainText(t *testing.T) {
	texts, positions := collectRuns("just plain prose, nothing else")
	assert.Equal(t, []string{"just plain prose, nothing else"}, texts)
	assert.Equal(t, []int{0}, positions)
}

func TestNoteDocumentStripsMarkup(t *testing.T) {
	source := "# Title\nBody **bold** text"
	texts, positions := collectRuns(source)

	assert.Equal(t, []string{"Title\nBody ", "bold", " text"}, texts)
	assert.Equal(t, []int{2, 15, 21}, positions)

	// Document positions point into the source.
	for i, text := range texts {
		assert.Equal(t, text, source[positions[i]:positions[i]+len(text)])
	}
}

func TestNoteDocumentWikiLinks(t *testing.T) {
	texts, positions := collectRuns("See [[Gondor]] now")
	assert.Equal(t, []string{"See ", "Gondor", " now"}, texts)
	assert.Equal(t, []int{0, 6, 14}, positions)
}

func TestNoteDocumentBlockMarkers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"list item", "- item", []string{"item"}},
		{"blockquote", "> quote", []string{"quote"}},
		{"deep heading", "### deep", []string{"deep"}},
		{"hashtag is literal", "#tag stays", []string{"#tag stays"}},
		{"marker only at line start", "a - b", []string{"a - b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, _ := collectRuns(tt.source)
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestNoteDocumentFlattenAgreesWithSegments(t *testing.T) {
	source := "# Notes\nAragorn went to [[Gondor]].\n- met **Gandalf** there"
	text, segments := Flatten(NewNoteDocument(source))

	require.NotEmpty(t, segments)
	for _, s := range segments {
		// Each segment's document position addresses its text in the source.
		assert.Equal(t, s.Text, source[s.DocumentPos:s.DocumentPos+s.Length])
	}
	assert.Contains(t, text, "Aragorn went to Gondor.")
	assert.Contains(t, text, "met Gandalf there")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "[[")
	assert.NotContains(t, text, "**")
}

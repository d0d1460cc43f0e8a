// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docmap

import "strings"

// NoteDocument is a structured document over a lightweight-markup note
// file. Markup characters are structural and excluded from the literal
// text; document coordinates are byte offsets into the source, so the
// flattened view and the source genuinely disagree on positions whenever
// markup is present.
//
// Recognized markup: heading (`# `) and blockquote (`> `) markers at line
// start, list markers (`- `), emphasis runs (`*`), inline code fences
// (`` ` ``), and wiki-link brackets (`[[`, `]]`). Everything else,
// newlines included, is literal text.
type NoteDocument struct {
	source string
}

// NewNoteDocument wraps source without copying or validating it.
func NewNoteDocument(source string) *NoteDocument {
	return &NoteDocument{source: source}
}

// Traverse enumerates the literal text runs in order, each with its byte
// offset in the source.
func (d *NoteDocument) Traverse(fn func(text string, pos int)) {
	src := d.source
	i := 0
	runStart := 0
	lineStart := true

	flush := func(end int) {
		if end > runStart {
			fn(src[runStart:end], runStart)
		}
	}

	for i < len(src) {
		if lineStart {
			lineStart = false
			if n := markerLen(src[i:]); n > 0 {
				flush(i)
				i += n
				runStart = i
				continue
			}
		}

		switch src[i] {
		case '\n':
			lineStart = true
			i++
		case '*':
			flush(i)
			for i < len(src) && src[i] == '*' {
				i++
			}
			runStart = i
		case '`':
			flush(i)
			i++
			runStart = i
		case '[':
			if strings.HasPrefix(src[i:], "[[") {
				flush(i)
				i += 2
				runStart = i
			} else {
				i++
			}
		case ']':
			if strings.HasPrefix(src[i:], "]]") {
				flush(i)
				i += 2
				runStart = i
			} else {
				i++
			}
		default:
			i++
		}
	}
	flush(len(src))
}

// markerLen returns the length of a block marker at the start of a line,
// or 0 if the line does not begin with one. A `#` or `>` run counts only
// when followed by a space; `#tag` stays literal.
func markerLen(line string) int {
	if strings.HasPrefix(line, "- ") {
		return 2
	}
	n := 0
	for n < len(line) && (line[n] == '#' || line[n] == '>') {
		n++
	}
	if n > 0 && n < len(line) && line[n] == ' ' {
		return n + 1
	}
	return 0
}

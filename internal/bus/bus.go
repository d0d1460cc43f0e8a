// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bus accumulates entity observations per document and emits a
// scan request when a flush condition fires: sentence-terminal
// punctuation, an uninterrupted idle pause, or an explicit flush. The bus
// never calls the extraction engine itself.
package bus

import (
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/notescan/pkg/types"
)

// DefaultIdleTimeout is used when the config leaves IdleTimeout zero.
const DefaultIdleTimeout = 4 * time.Second

// state is the per-document lifecycle: Idle until the first observation,
// Accumulating while the buffer is non-empty, Flushing for the duration
// of an emit, then Idle again. Disposed is terminal.
type state int

const (
	stateIdle state = iota
	stateAccumulating
	stateFlushing
	stateDisposed
)

type docState struct {
	state       state
	pending     []types.EntitySpan
	lastContext string
	timer       *idleTimer
}

// Bus is the entity event bus. All methods are safe for concurrent use;
// none of them blocks beyond in-memory bookkeeping.
type Bus struct {
	mu       sync.Mutex
	cfg      types.BusConfig
	log      *zap.Logger
	emit     func(types.ScanRequest)
	docs     map[string]*docState
	disposed bool
}

// New builds a Bus that delivers scan requests to emit. The emit callback
// runs outside the bus's lock and may do anything, including re-entering
// the bus.
func New(cfg types.BusConfig, log *zap.Logger, emit func(types.ScanRequest)) *Bus {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Bus{
		cfg:  cfg,
		log:  log,
		emit: emit,
		docs: make(map[string]*docState),
	}
}

// EntityObserved appends one observation to the document's accumulation
// buffer and re-arms the idle timer. Hot path: it never triggers
// extraction and returns immediately.
func (b *Bus) EntityObserved(documentID string, span types.EntitySpan) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}

	doc := b.doc(documentID)
	if doc.state == stateDisposed {
		return
	}
	doc.pending = append(doc.pending, span)
	doc.state = stateAccumulating
	b.armIdle(documentID, doc)
}

// Keystroke feeds one typed character. cursor is the position immediately
// after the character within contextText. A sentence-terminal character
// at a word boundary flushes with a punctuation trigger; anything else
// re-arms the idle timer for the document.
func (b *Bus) Keystroke(documentID string, ch rune, cursor int, contextText string) {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}

	doc := b.doc(documentID)
	if doc.state == stateDisposed {
		b.mu.Unlock()
		return
	}
	doc.lastContext = contextText

	if !sentenceTerminal(ch, cursor, contextText) {
		b.armIdle(documentID, doc)
		b.mu.Unlock()
		return
	}

	req := b.flushLocked(documentID, doc, types.TriggerPunctuation, contextText)
	b.mu.Unlock()
	b.emit(req)
}

// Flush forces an explicit flush for the document, emitting even when the
// accumulation buffer is empty.
func (b *Bus) Flush(documentID string, contextText string) {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	doc := b.doc(documentID)
	if doc.state == stateDisposed {
		b.mu.Unlock()
		return
	}
	req := b.flushLocked(documentID, doc, types.TriggerExplicit, contextText)
	b.mu.Unlock()
	b.emit(req)
}

// Dispose cancels every pending timer and stops processing. Events after
// Dispose are dropped silently.
func (b *Bus) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disposed = true
	for _, doc := range b.docs {
		doc.timer.cancel()
		doc.state = stateDisposed
		doc.pending = nil
	}
}

func (b *Bus) doc(documentID string) *docState {
	doc, ok := b.docs[documentID]
	if !ok {
		doc = &docState{timer: &idleTimer{}}
		b.docs[documentID] = doc
	}
	return doc
}

// armIdle re-arms the document's idle timer. Cancel-and-reschedule: only
// the most recent scheduling decision can ever fire.
func (b *Bus) armIdle(documentID string, doc *docState) {
	doc.timer.arm(b.cfg.IdleTimeout, func() {
		b.idleFired(documentID)
	})
}

func (b *Bus) idleFired(documentID string) {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	doc, ok := b.docs[documentID]
	if !ok || doc.state != stateAccumulating {
		b.mu.Unlock()
		return
	}
	req := b.flushLocked(documentID, doc, types.TriggerIdle, doc.lastContext)
	b.mu.Unlock()
	b.emit(req)
}

// flushLocked drains the buffer into a scan request and returns the
// document to Idle. The caller emits after releasing the lock.
func (b *Bus) flushLocked(documentID string, doc *docState, trigger types.Trigger, sentence string) types.ScanRequest {
	doc.state = stateFlushing
	doc.timer.cancel()

	entities := doc.pending
	doc.pending = nil
	doc.state = stateIdle

	b.log.Debug("scan request emitted",
		zap.String("document", documentID),
		zap.String("trigger", string(trigger)),
		zap.Int("entities", len(entities)))

	return types.ScanRequest{
		Trigger:      trigger,
		DocumentID:   documentID,
		Entities:     entities,
		SentenceText: sentence,
	}
}

// sentenceTerminal reports whether ch ends a sentence: one of `. ! ?`
// typed at a word boundary, i.e. the next character (if any) is not a
// letter or digit. "3.14" does not flush; "done." does.
func sentenceTerminal(ch rune, cursor int, contextText string) bool {
	switch ch {
	case '.', '!', '?':
	default:
		return false
	}
	if cursor < 0 || cursor >= len(contextText) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(contextText[cursor:])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/notescan/pkg/types"
)

// collector gathers emitted scan requests behind a lock so tests can
// assert from the main goroutine while timers fire on others.
type collector struct {
	mu   sync.Mutex
	reqs []types.ScanRequest
	ch   chan types.ScanRequest
}

func newCollector() *collector {
	return &collector{ch: make(chan types.ScanRequest, 16)}
}

func (c *collector) emit(req types.ScanRequest) {
	c.mu.Lock()
	c.reqs = append(c.reqs, req)
	c.mu.Unlock()
	c.ch <- req
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reqs)
}

func testBus(t *testing.T, idle time.Duration) (*Bus, *collector) {
	t.Helper()
	c := newCollector()
	b := New(types.BusConfig{IdleTimeout: idle}, zap.NewNop(), c.emit)
	t.Cleanup(b.Dispose)
	return b, c
}

func TestPunctuationFlush(t *testing.T) {
	b, c := testBus(t, time.Minute)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Aragorn", From: 0, To: 7})
	b.Keystroke("doc1", '.', 24, "Aragorn walked to Gondor.")

	require.Equal(t, 1, c.count())
	req := c.reqs[0]
	assert.Equal(t, types.TriggerPunctuation, req.Trigger)
	assert.Equal(t, "doc1", req.DocumentID)
	assert.Equal(t, "Aragorn walked to Gondor.", req.SentenceText)
	require.Len(t, req.Entities, 1)
	assert.Equal(t, "Aragorn", req.Entities[0].Label)
}

func TestPunctuationInsideWordDoesNotFlush(t *testing.T) {
	b, c := testBus(t, time.Minute)

	b.EntityObserved("doc1", types.EntitySpan{Label: "pi"})
	// The '.' in "3.14" is followed by a digit: not a sentence end.
	b.Keystroke("doc1", '.', 8, "pi is 3.14 roughly")

	assert.Zero(t, c.count())
}

func TestFlushDrainsBuffer(t *testing.T) {
	b, c := testBus(t, time.Minute)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Frodo"})
	b.Keystroke("doc1", '!', 3, "Go!")
	b.Keystroke("doc1", '?', 7, "Go! No?")

	require.Equal(t, 2, c.count())
	assert.Len(t, c.reqs[0].Entities, 1)
	assert.Empty(t, c.reqs[1].Entities, "second flush finds an empty buffer")
}

func TestIdleFlush(t *testing.T) {
	b, c := testBus(t, 20*time.Millisecond)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Gandalf"})

	select {
	case req := <-c.ch:
		assert.Equal(t, types.TriggerIdle, req.Trigger)
		require.Len(t, req.Entities, 1)
		assert.Equal(t, "Gandalf", req.Entities[0].Label)
	case <-time.After(time.Second):
		t.Fatal("idle flush never fired")
	}

	// The timer does not re-fire on an empty buffer.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

func TestIdleTimerReschedulesOnActivity(t *testing.T) {
	b, c := testBus(t, 50*time.Millisecond)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Gimli"})
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		b.Keystroke("doc1", 'x', 1, "x")
	}
	// Each keystroke rescheduled the timer, so nothing fired yet.
	assert.Zero(t, c.count())

	select {
	case req := <-c.ch:
		assert.Equal(t, types.TriggerIdle, req.Trigger)
	case <-time.After(time.Second):
		t.Fatal("idle flush never fired")
	}
}

func TestExplicitFlush(t *testing.T) {
	b, c := testBus(t, time.Minute)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Sam"})
	b.Flush("doc1", "Sam cooked.")

	require.Equal(t, 1, c.count())
	assert.Equal(t, types.TriggerExplicit, c.reqs[0].Trigger)
	assert.Equal(t, "Sam cooked.", c.reqs[0].SentenceText)
}

func TestDocumentsAreIndependent(t *testing.T) {
	b, c := testBus(t, time.Minute)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Merry"})
	b.EntityObserved("doc2", types.EntitySpan{Label: "Pippin"})
	b.Keystroke("doc1", '.', 5, "Done.")

	require.Equal(t, 1, c.count())
	require.Len(t, c.reqs[0].Entities, 1)
	assert.Equal(t, "Merry", c.reqs[0].Entities[0].Label)
}

func TestDisposeStopsProcessing(t *testing.T) {
	b, c := testBus(t, 20*time.Millisecond)

	b.EntityObserved("doc1", types.EntitySpan{Label: "Boromir"})
	b.Dispose()

	b.EntityObserved("doc1", types.EntitySpan{Label: "late"})
	b.Keystroke("doc1", '.', 5, "Late.")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, c.count())
}

func TestSentenceTerminal(t *testing.T) {
	tests := []struct {
		name    string
		ch      rune
		cursor  int
		context string
		want    bool
	}{
		{"period at end", '.', 5, "Done.", true},
		{"period before space", '.', 5, "Done. And", true},
		{"bang at end", '!', 3, "Go!", true},
		{"question before space", '?', 3, "No? ", true},
		{"decimal point", '.', 8, "pi is 3.14", false},
		{"period before letter", '.', 4, "e.g.x", false},
		{"plain letter", 'a', 1, "a", false},
		{"comma", ',', 4, "Well,", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sentenceTerminal(tt.ch, tt.cursor, tt.context))
		})
	}
}

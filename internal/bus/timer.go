// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bus

import "time"

// idleTimer is a single-owner, cancel-and-reschedule timer. Arming while
// a previous schedule is pending cancels it first, so at most one fire is
// ever outstanding. The zero value is ready to use.
type idleTimer struct {
	t *time.Timer
}

func (it *idleTimer) arm(d time.Duration, fn func()) {
	it.cancel()
	it.t = time.AfterFunc(d, fn)
}

func (it *idleTimer) cancel() {
	if it.t != nil {
		it.t.Stop()
		it.t = nil
	}
}

// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic Clock for tests. Time only moves when the
// test calls Advance or Set. Pending After waiters fire synchronously
// inside Advance once their deadline is reached.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires when the fake time passes d from
// now. If d <= 0 the channel fires immediately.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := f.now.Add(d)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{deadline: deadline, ch: ch})
	return ch
}

// Advance moves the fake time forward by d and fires every waiter
// whose deadline has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.fireLocked()
}

// Set jumps the fake time to t (which must not be earlier than the
// current fake time) and fires due waiters.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.After(f.now) {
		f.now = t
	}
	f.fireLocked()
}

func (f *Fake) fireLocked() {
	remaining := f.waiters[:0]
	for _, waiter := range f.waiters {
		if waiter.deadline.After(f.now) {
			remaining = append(remaining, waiter)
			continue
		}
		waiter.ch <- f.now
	}
	f.waiters = remaining
}

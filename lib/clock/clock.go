// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time operations for testability. Production code
// injects Real(); tests inject NewFake() for deterministic control.
//
// Any production function that would call time.Now or time.After
// should take a Clock (or be a method on a struct with a Clock field)
// instead of reaching for the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. Equivalent to time.After.
	After(d time.Duration) <-chan time.Time
}

// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package party implements group-finding sessions: fixed-size rosters
// that members join and declare a class for, owned by the user who
// opened them. A party completes on its own when it fills up or when a
// member matches the owner's declared needed class; only cancellation
// is an explicit owner action.
//
// The package is platform-neutral. A Roster is pure state with its
// lifecycle rules; the Store serializes access to rosters keyed by
// their display surface; Render turns a roster into a View; the
// Router applies inbound actions against the store and drives a
// Platform implementation for all user-visible output. The Matrix
// binding lives in cmd/partyfinder.
package party

// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable clock so that time-dependent
// code (sync-loop backoff, uptime reporting) can be driven
// deterministically in tests.
package clock

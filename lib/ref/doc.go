// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers.
//
// Raw strings from the homeserver (room IDs, user IDs, event IDs) are
// parsed into these types at the process boundary — /sync responses,
// send responses, command arguments — so that the rest of the codebase
// never passes an unvalidated or mixed-up identifier. Each type is an
// immutable value; the zero value is invalid and detectable with
// IsZero.
//
// All wrapper types implement encoding.TextMarshaler and
// TextUnmarshaler, so they serialize as plain strings through both
// encoding/json and the CBOR codec, with validation applied on the way
// back in.
package ref

// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// Standard Matrix API error codes this service branches on.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// MatrixError is an error response from the Matrix API.
type MatrixError struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix error %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsMatrixError reports whether err is a *MatrixError with the given
// code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

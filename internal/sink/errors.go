// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL means the endpoint URL could not be built from the
	// configured base URL and node path.
	ErrMalformedURL = errors.New("malformed url")
	// ErrTransport wraps failures that happened before a response arrived.
	ErrTransport = errors.New("transport error")
)

// StatusError is returned when the store answered with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

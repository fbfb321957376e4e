/*
errors.go - Network and server-rejection error taxonomy

PURPOSE:
  Everything that can go wrong after a request leaves the process, sorted
  into the two classes the mutation layer cares about:

  NetworkError    transport failure, timeout, unreachable - transient and
                  retryable; triggers rollback
  ServerRejection the server answered with an error - carries the server's
                  human-readable detail when present; triggers rollback

  Client-side validation errors never reach this package; they are raised
  synchronously by trade/ and journal/ and stop at the form boundary.

SEE ALSO:
  - trade/errors.go: The validation taxonomy
  - cache package: Sole catcher of these errors
*/
package backend

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNetwork marks transport-level failures (offline, unreachable).
	ErrNetwork = errors.New("network error")

	// ErrNetworkTimeout marks a request that exceeded the configured
	// deadline. Wraps ErrNetwork so errors.Is(err, ErrNetwork) matches too.
	ErrNetworkTimeout = fmt.Errorf("network timeout: %w", ErrNetwork)

	// ErrServerRejected marks an error response received after the
	// request was sent.
	ErrServerRejected = errors.New("server rejected request")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NetworkError wraps a transport failure with the operation it interrupted.
type NetworkError struct {
	Op      string // e.g. "update sale record"
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timed out", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	if e.Timeout {
		return ErrNetworkTimeout
	}
	return ErrNetwork
}

// ServerRejection carries the server's error detail. Detail prefers the
// server's human-readable message; when the body had none, it falls back
// to a generic per-operation message.
type ServerRejection struct {
	Op     string
	Status int
	Detail string
}

func (e *ServerRejection) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s failed (status %d)", e.Op, e.Status)
}

func (e *ServerRejection) Unwrap() error { return ErrServerRejected }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the failure is transient. Server rejections
// are not: retrying the same payload yields the same answer.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrNetworkTimeout)
}

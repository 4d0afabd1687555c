package regionvm

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers compare against these with errors.Is;
// Manager also keeps the most recent message as a plain string,
// retrievable with LastError, mirroring the bounded err[] buffer the
// manager this package is modeled on keeps alongside its result code.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrNotFound         = errors.New("address not found")
	ErrRangeViolation   = errors.New("range violation")
	ErrUnexpected       = errors.New("invariant check failed")
)

// fail records msg as the manager's last error and returns an error that
// wraps kind, so callers can use errors.Is(err, ErrOutOfMemory) etc.
func (m *Manager) fail(kind error, msg string) error {
	m.lastErr = msg
	return fmt.Errorf("%s: %w", msg, kind)
}

// clearErr clears the last-error string. Called at the entry of every
// public operation, matching the reference behavior of starting every
// call with a clean slate.
func (m *Manager) clearErr() {
	m.lastErr = ""
}

// LastError returns the message set by the most recent failing
// operation, or the empty string if the last operation succeeded.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

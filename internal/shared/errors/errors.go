package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

var (
	ErrMissingAPICredentials = stderrors.New("API_ID and API_HASH are required")
	ErrChannelNotFound       = stderrors.New("channel not found")
	ErrAccessDenied          = stderrors.New("access to channel denied")
	ErrRetriesExhausted      = stderrors.New("retry attempts exhausted")
)

// FloodWaitError is an explicit throttling instruction from the provider.
// The carried duration is authoritative and must be waited out in full.
type FloodWaitError struct {
	Wait time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry in %s", e.Wait)
}

// AsFloodWait extracts the provider-specified wait duration from err.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if stderrors.As(err, &fw) {
		return fw.Wait, true
	}
	return 0, false
}

// AbortedError terminates a run once retries for a page are exhausted.
// Cursor is the ID of the last successfully processed message, so a later
// run can resume right after it.
type AbortedError struct {
	Cursor int64
	Err    error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("retrieval aborted at cursor %d: %v", e.Cursor, e.Err)
}

func (e *AbortedError) Unwrap() error {
	return e.Err
}

package domain

import "errors"

// Stage failures. Stages wrap these with context so callers can classify
// errors with errors.Is.
var (
	// ErrFetchFailed covers listing and artifact HTTP failures.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUploadFailed covers any remote transfer failure (auth, directory change, store).
	ErrUploadFailed = errors.New("upload failed")

	// ErrSinkWriteFailed covers metadata persistence failures.
	ErrSinkWriteFailed = errors.New("sink write failed")

	// ErrNotifyFailed covers alerting channel failures. It is never escalated.
	ErrNotifyFailed = errors.New("notify failed")
)

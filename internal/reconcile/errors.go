package reconcile

import "errors"

var (
	// ErrEmptyMessage rejects blank sends before any network call.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrEmptyName rejects blank conversation names.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrEmptyBatch rejects uploads with no files.
	ErrEmptyBatch = errors.New("upload batch must not be empty")
	// ErrReplyPending rejects a send while the previous reply is outstanding.
	ErrReplyPending = errors.New("a reply is still pending for this conversation")
	// ErrTooManyFiles rejects a batch larger than the remaining availability.
	ErrTooManyFiles = errors.New("upload exceeds the conversation file limit")
	// ErrNotOwned masks both missing and foreign aggregates: callers see
	// the same answer whether the conversation exists or not.
	ErrNotOwned = errors.New("conversation not found")
	// ErrFileNotFound is returned for unknown or foreign file identifiers.
	ErrFileNotFound = errors.New("file not found")
)

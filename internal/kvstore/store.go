// Package kvstore provides the persistent key-value boundary used by the
// session runtime for small durable state such as clock-sync corrections.
package kvstore

import "errors"

var (
	ErrClosed         = errors.New("kvstore: store is closed")
	ErrMalformedValue = errors.New("kvstore: malformed value")
)

// Store is a durable string-to-string mapping. Implementations must be safe
// for concurrent use; absence of a key is reported via the bool, not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error

	// Erase removes all persisted state. Used by destructive shutdown.
	Erase() error
	Close() error
}

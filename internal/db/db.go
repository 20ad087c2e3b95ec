// Package db owns the persistent key-value store on behalf of the runtime
// context and handles its asynchronous shutdown.
package db

import (
	"github.com/rs/zerolog/log"

	"github.com/wirekit/wirectl/internal/kvstore"
)

// Database is the facade through which the runtime reaches durable storage.
// It is the sole owner of the underlying store.
type Database struct {
	kv kvstore.Store
}

// Open wraps an already-opened store.
func Open(store kvstore.Store) *Database {
	return &Database{kv: store}
}

// KV returns the persistent key-value store.
func (d *Database) KV() kvstore.Store {
	return d.kv
}

// CloseAll closes the store in the background and signals done when finished.
// Callers must not touch the store after this call returns.
func (d *Database) CloseAll(done func()) {
	go func() {
		if err := d.kv.Close(); err != nil {
			log.Warn().Err(err).Msg("db_close_failed")
		}
		if done != nil {
			done()
		}
	}()
}

// CloseAndDestroyAll erases all persisted state before closing, then signals
// done. Used when the account data must not survive shutdown.
func (d *Database) CloseAndDestroyAll(done func()) {
	go func() {
		if err := d.kv.Erase(); err != nil {
			log.Warn().Err(err).Msg("db_erase_failed")
		}
		if err := d.kv.Close(); err != nil {
			log.Warn().Err(err).Msg("db_close_failed")
		}
		if done != nil {
			done()
		}
	}()
}

// Package options holds remotely-supplied configuration options queried by
// name, such as "webfile_dc_id". How options are fetched or refreshed is up
// to the transport layer; this is only the shared table.
package options

import "sync"

// Source is the read side consulted by the runtime context.
type Source interface {
	Integer(name string) int32
	Bool(name string) bool
}

// Options is a concurrency-safe option table. The zero value is not usable;
// call New.
type Options struct {
	mu       sync.RWMutex
	integers map[string]int32
	bools    map[string]bool
}

func New() *Options {
	return &Options{
		integers: make(map[string]int32),
		bools:    make(map[string]bool),
	}
}

// Integer returns the named integer option, or zero when unset.
func (o *Options) Integer(name string) int32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.integers[name]
}

// Bool returns the named boolean option, or false when unset.
func (o *Options) Bool(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bools[name]
}

func (o *Options) SetInteger(name string, value int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.integers[name] = value
}

func (o *Options) SetBool(name string, value bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bools[name] = value
}

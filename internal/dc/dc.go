// Package dc identifies remote data-center clusters.
package dc

import "fmt"

// ID selects which remote endpoint cluster a client should use. Valid
// identifiers are small positive integers assigned by the server side.
type ID int32

const (
	// WebFileFallbackTest and WebFileFallbackProduction are used when the
	// remote config supplies no usable "webfile_dc_id".
	WebFileFallbackTest       ID = 2
	WebFileFallbackProduction ID = 4
)

// IsValid reports whether id is inside the assignable identifier range.
func (id ID) IsValid() bool {
	return id >= 1 && id <= 1000
}

func (id ID) String() string {
	return fmt.Sprintf("dc%d", int32(id))
}

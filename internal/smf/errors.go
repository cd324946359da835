// Package smf implements the Standard MIDI File binary format: chunked
// header/track layout, variable-length quantities, running status, and
// meta events.
package smf

import "errors"

var (
	// ErrFormat reports a missing or wrong chunk magic ("MThd"/"MTrk")
	// or an impossible header. The whole load is aborted; no partial
	// file is returned.
	ErrFormat = errors.New("smf: invalid file format")

	// ErrTruncated reports input that ends before a declared chunk
	// length is consumed.
	ErrTruncated = errors.New("smf: truncated data")

	// ErrVarLen reports a corrupt variable-length quantity: no
	// terminating byte within the maximum encoded width.
	ErrVarLen = errors.New("smf: corrupt variable-length quantity")
)

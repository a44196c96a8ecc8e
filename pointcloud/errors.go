package pointcloud

import (
	"errors"
	"fmt"
)

// ErrEmptySource is returned when the input contains no rows.
var ErrEmptySource = errors.New("point cloud contains no rows")

// MalformedRowError indicates a row that cannot be parsed or whose field
// count differs from the first row's.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type MalformedRowError struct {
	Line   int
	Fields int
	Want   int
	cause  error
}

func (e *MalformedRowError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("malformed row at line %d: %v", e.Line, e.cause)
	}
	return fmt.Sprintf("malformed row at line %d: %d fields, want %d", e.Line, e.Fields, e.Want)
}

func (e *MalformedRowError) Unwrap() error { return e.cause }

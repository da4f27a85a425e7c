package evb

import (
	"errors"
	"fmt"
)

// ErrInvalidGainMap is returned by lookups on a map that was never loaded
// or whose source could not be opened.
var ErrInvalidGainMap = errors.New("gain map is not valid")

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrRangeNotFound is returned when no calibration range of a run covers
// the requested time, including the case of an unknown run.
type ErrRangeNotFound struct {
	Run  int
	Time float64
}

func (e *ErrRangeNotFound) Error() string {
	return fmt.Sprintf("no calibration range covers run %d at time %g", e.Run, e.Time)
}

// ErrChannelOutOfRange represents a detector index with no gain coefficients.
type ErrChannelOutOfRange struct {
	Channel int
}

func (e *ErrChannelOutOfRange) Error() string {
	return fmt.Sprintf("channel %d out of range [0, %d)", e.Channel, NumCebra)
}

// ErrUnknownGroup represents a group code in the hit stream with no
// matching logical channel group.
type ErrUnknownGroup struct {
	Code uint16
}

func (e *ErrUnknownGroup) Error() string {
	return fmt.Sprintf("unknown channel group code %d", e.Code)
}

// ErrFieldRange represents a hit value that does not fit its record field.
type ErrFieldRange struct {
	Field string
	Value float64
}

func (e *ErrFieldRange) Error() string {
	return fmt.Sprintf("%s %g does not fit an unsigned 16 bit field", e.Field, e.Value)
}

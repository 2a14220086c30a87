// Package rendering exports finished interview sessions as text or PDF reports.
package rendering

import (
	"errors"
	"fmt"
)

// ErrNotExportable is returned for sessions that have nothing to export yet.
var ErrNotExportable = errors.New("session cannot be exported")

// ExportError is a failure while producing a report in a given format.
type ExportError struct {
	Format Format
	Stage  string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed at %s: %v", e.Format, e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func notExportable(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotExportable, reason)
}

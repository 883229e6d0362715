package overwrite

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrCompleted is returned by any mutating call on a session that
	// already committed. Completed sessions are frozen.
	ErrCompleted = errors.New("session already completed")

	// ErrMissingTransform is returned when a staging operation that
	// requires a transform callback is invoked with nil.
	ErrMissingTransform = errors.New("transform function required")

	// ErrInvalidTransform is returned when a line transform hands back
	// the LineResult zero value instead of Lines or Text.
	ErrInvalidTransform = errors.New("transform result is neither lines nor text")

	// ErrBackupExists is returned when the resolved backup path already
	// exists and clobbering was not allowed. Nothing has been mutated.
	ErrBackupExists = errors.New("backup path already exists")
)

// ReplaceError reports a failed atomic rename after the original file was
// already moved aside. It is fatal: the target is absent, the original is
// safe at HoldingPath, and the staged content is preserved at TempPath
// for manual recovery. It is never retried or rolled back internally.
type ReplaceError struct {
	TempPath    string
	TargetPath  string
	HoldingPath string
	Err         error
}

func (e *ReplaceError) Error() string {
	return fmt.Sprintf("replacing %s failed after the original was moved to %s (staged content kept at %s): %v",
		e.TargetPath, e.HoldingPath, e.TempPath, e.Err)
}

func (e *ReplaceError) Unwrap() error {
	return e.Err
}

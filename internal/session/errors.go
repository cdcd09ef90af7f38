package session

import (
	"errors"
	"fmt"
)

var (
	ErrSetup          = errors.New("session setup failed")
	ErrAlreadyRunning = errors.New("watcher is already running")
	ErrWatcherClosed  = errors.New("file notifier closed unexpectedly")
	// ErrArchiveContainsRoot means a watched root sits at or under the
	// relocation target, where its events would be treated as own output.
	ErrArchiveContainsRoot = errors.New("relocation target contains a watched root")
)

// SetupError is a start-time failure. Nothing is left running when Start
// returns one.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() []error {
	return []error{ErrSetup, e.Err}
}

func setupError(op string, err error) error {
	return &SetupError{Op: op, Err: err}
}

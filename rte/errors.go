package rte

import (
	"errors"
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

// Configuration errors
var (
	ErrConfigNil              = errors.New("config is nil")
	ErrConfigNotStructPointer = errors.New("config must be a pointer to a struct")
	ErrConfigFeed             = errors.New("failed to feed config")
	ErrConfigInvalid          = fmt.Errorf("%w: invalid configuration", status.ErrBadParam)
	ErrConfigFormat           = fmt.Errorf("%w: unsupported config file format", status.ErrBadParam)
)

// Runtime errors
var (
	ErrAlreadyFinalized = errors.New("runtime already finalized")
)

// InitError reports the subsystem that stopped initialization and the
// status it failed with.
type InitError struct {
	Subsystem string
	Status    status.Status
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("runtime initialization failed in %s: %s (%d): %v", e.Subsystem, e.Status, int32(e.Status), e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func initError(subsystem string, err error) *InitError {
	return &InitError{Subsystem: subsystem, Status: status.From(err), Err: err}
}

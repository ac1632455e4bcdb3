package mca

import (
	"errors"
)

// MCA base errors. Status-bearing failures (not found, bad parameter, out of
// resource) wrap the matching status.Status so callers can use errors.Is with
// either form.
var (
	// Selection string errors
	ErrSelectionMultipleNegation  = errors.New("negation marker may only appear once, at the start of the selection")
	ErrSelectionMisplacedNegation = errors.New("negation marker may only appear at the start of the selection")

	// Discovery errors
	ErrRequestedComponentNotFound = errors.New("requested component not found")
	ErrComponentMismatch          = errors.New("component type or name does not match its file name")
	ErrMCAVersionMismatch         = errors.New("component was built against an incompatible MCA base version")
	ErrComponentSymbolInvalid     = errors.New("component symbol has an unexpected type")
	ErrComponentAlreadyLoaded     = errors.New("component already loaded")
	ErrComponentNotLoaded         = errors.New("component is not loaded")
	ErrComponentNoDlopen          = errors.New("component must not be loaded dynamically")

	// Framework errors
	ErrFrameworkNil     = errors.New("framework is nil")
	ErrFrameworkNotOpen = errors.New("framework is not open")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")
)

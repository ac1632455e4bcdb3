package psec

import (
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

// ErrUnknownMechanism is returned when no active module handles a
// credential's mechanism.
var ErrUnknownMechanism = fmt.Errorf("%w: unknown security mechanism", status.ErrNotSupported)

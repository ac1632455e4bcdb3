package progress

import (
	"errors"
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

var (
	ErrThreadNotFound   = fmt.Errorf("%w: progress thread not found", status.ErrNotFound)
	ErrThreadFinalized  = errors.New("progress thread finalized")
	ErrInvalidKeepalive = fmt.Errorf("%w: invalid keepalive schedule", status.ErrBadParam)
	ErrNilEvent         = fmt.Errorf("%w: nil event", status.ErrBadParam)
)

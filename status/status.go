// Package status defines the signed status codes shared by every layer of the
// runtime. A Status is an error, so codes flow through ordinary Go error
// returns and can be matched with errors.Is after wrapping.
//
// Numeric values follow the PMIx numbering so that a status packed onto the
// wire by one peer decodes to the same meaning on another.
package status

import (
	"errors"
	"strconv"
)

// Status is a PMIx-compatible status code. Zero is success, negative values
// are errors.
type Status int32

// Status codes.
const (
	Success                      Status = 0
	ErrError                     Status = -1
	ErrSilent                    Status = -2
	ErrExists                    Status = -11
	ErrInvalidCred               Status = -12
	ErrHandshakeFailed           Status = -13
	ErrWouldBlock                Status = -15
	ErrUnknownDataType           Status = -16
	ErrTypeMismatch              Status = -18
	ErrUnpackInadequateSpace     Status = -19
	ErrUnpackFailure             Status = -20
	ErrPackFailure               Status = -21
	ErrPackMismatch              Status = -22
	ErrNoPermissions             Status = -23
	ErrTimeout                   Status = -24
	ErrUnreach                   Status = -25
	ErrBadParam                  Status = -27
	ErrResourceBusy              Status = -28
	ErrOutOfResource             Status = -29
	ErrDataValueNotFound         Status = -30
	ErrInit                      Status = -31
	ErrNoMem                     Status = -32
	ErrInvalidArg                Status = -33
	ErrInvalidKey                Status = -34
	ErrNotFound                  Status = -46
	ErrNotSupported              Status = -47
	ErrNotAvailable              Status = -48
	ErrUnpackReadPastEndOfBuffer Status = -50
)

var names = map[Status]string{
	Success:                      "SUCCESS",
	ErrError:                     "ERROR",
	ErrSilent:                    "SILENT",
	ErrExists:                    "EXISTS",
	ErrInvalidCred:               "INVALID CREDENTIALS",
	ErrHandshakeFailed:           "HANDSHAKE FAILED",
	ErrWouldBlock:                "WOULD BLOCK",
	ErrUnknownDataType:           "UNKNOWN DATA TYPE",
	ErrTypeMismatch:              "TYPE MISMATCH",
	ErrUnpackInadequateSpace:     "UNPACK-INADEQUATE-SPACE",
	ErrUnpackFailure:             "UNPACK-FAILURE",
	ErrPackFailure:               "PACK-FAILURE",
	ErrPackMismatch:              "PACK MISMATCH",
	ErrNoPermissions:             "NO-PERMISSIONS",
	ErrTimeout:                   "TIMEOUT",
	ErrUnreach:                   "UNREACHABLE",
	ErrBadParam:                  "BAD PARAMETER",
	ErrResourceBusy:              "RESOURCE BUSY",
	ErrOutOfResource:             "OUT OF RESOURCE",
	ErrDataValueNotFound:         "DATA VALUE NOT FOUND",
	ErrInit:                      "INIT",
	ErrNoMem:                     "OUT-OF-MEMORY",
	ErrInvalidArg:                "INVALID ARGUMENT",
	ErrInvalidKey:                "INVALID KEY",
	ErrNotFound:                  "NOT FOUND",
	ErrNotSupported:              "NOT SUPPORTED",
	ErrNotAvailable:              "NOT AVAILABLE",
	ErrUnpackReadPastEndOfBuffer: "UNPACK-PAST-END",
}

// String returns the PMIx name of the code, or the number if the code is not
// one this package knows about.
func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "UNKNOWN STATUS " + strconv.Itoa(int(s))
}

// Error implements the error interface.
func (s Status) Error() string {
	return s.String()
}

// IsError reports whether s is a negative (error) code.
func (s Status) IsError() bool {
	return s < 0
}

// From extracts a Status from err. A nil error maps to Success, and an error
// that carries no Status anywhere in its chain maps to ErrError.
func From(err error) Status {
	if err == nil {
		return Success
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return ErrError
}

package bfrops

import (
	"encoding/binary"
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

// BufferType selects the wire mode of a buffer.
type BufferType uint8

const (
	// BufferNonDesc packs payload only; the receiver must know the type
	// sequence.
	BufferNonDesc BufferType = 1
	// BufferFullyDesc precedes every packed value with its type tag.
	BufferFullyDesc BufferType = 2
)

func (t BufferType) String() string {
	switch t {
	case BufferNonDesc:
		return "non-desc"
	case BufferFullyDesc:
		return "fully-desc"
	default:
		return fmt.Sprintf("BufferType(%d)", uint8(t))
	}
}

// ParseBufferType accepts "non-desc" or "fully-desc".
func ParseBufferType(s string) (BufferType, error) {
	switch s {
	case "non-desc", "nondesc", "non-described":
		return BufferNonDesc, nil
	case "fully-desc", "fullydesc", "fully-described":
		return BufferFullyDesc, nil
	}
	return 0, fmt.Errorf("%w: unknown buffer type %q", status.ErrBadParam, s)
}

// Default growth parameters.
const (
	DefaultInitialSize   = 128
	DefaultThresholdSize = 4096
)

// Buffer is a growable byte buffer with independent pack and unpack
// cursors. unpack <= pack <= allocated always holds. A Buffer is not safe
// for concurrent use.
type Buffer struct {
	typ       BufferType
	data      []byte
	packPtr   int
	unpackPtr int

	initialSize   int
	thresholdSize int
	onGrow        func()
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithGrowth sets the initial allocation and the doubling threshold.
// Non-positive values keep the defaults.
func WithGrowth(initialSize, thresholdSize int) BufferOption {
	return func(b *Buffer) {
		if initialSize > 0 {
			b.initialSize = initialSize
		}
		if thresholdSize > 0 {
			b.thresholdSize = thresholdSize
		}
	}
}

func withGrowthHook(fn func()) BufferOption {
	return func(b *Buffer) {
		b.onGrow = fn
	}
}

// NewBuffer creates an empty buffer. Nothing is allocated until the first
// pack.
func NewBuffer(typ BufferType, opts ...BufferOption) *Buffer {
	b := &Buffer{
		typ:           typ,
		initialSize:   DefaultInitialSize,
		thresholdSize: DefaultThresholdSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type returns the wire mode.
func (b *Buffer) Type() BufferType { return b.typ }

// Len returns the number of bytes packed.
func (b *Buffer) Len() int { return b.packPtr }

// Cap returns the number of bytes allocated.
func (b *Buffer) Cap() int { return len(b.data) }

// Unread returns the number of packed bytes not yet unpacked.
func (b *Buffer) Unread() int { return b.packPtr - b.unpackPtr }

// UnpackOffset returns the unpack cursor position.
func (b *Buffer) UnpackOffset() int { return b.unpackPtr }

// IsEmpty reports whether nothing has been packed.
func (b *Buffer) IsEmpty() bool { return b.packPtr == 0 }

// Bytes returns the packed bytes. The slice aliases the buffer storage and
// is only valid until the next pack.
func (b *Buffer) Bytes() []byte { return b.data[:b.packPtr] }

// UnreadBytes returns the packed bytes after the unpack cursor. The slice
// aliases the buffer storage.
func (b *Buffer) UnreadBytes() []byte { return b.data[b.unpackPtr:b.packPtr] }

// Load makes data the buffer payload, discarding previous contents. The
// buffer takes ownership of data.
func (b *Buffer) Load(data []byte) {
	b.data = data
	b.packPtr = len(data)
	b.unpackPtr = 0
}

// Unload returns the unread payload and leaves the buffer empty.
func (b *Buffer) Unload() []byte {
	var out []byte
	if b.unpackPtr == 0 {
		out = b.data[:b.packPtr]
	} else if b.Unread() > 0 {
		out = append([]byte(nil), b.UnreadBytes()...)
	}
	b.Reset()
	return out
}

// Reset empties the buffer and releases its storage.
func (b *Buffer) Reset() {
	b.data = nil
	b.packPtr = 0
	b.unpackPtr = 0
}

// Extend makes room for n more bytes without packing anything.
func (b *Buffer) Extend(n int) {
	b.extend(n)
}

// extend grows the allocation so that n bytes fit after the pack cursor.
// Below the threshold the allocation doubles, starting from the initial
// size; at or above it the requirement is rounded up to a multiple of the
// threshold. New capacity is zero filled.
func (b *Buffer) extend(n int) {
	if len(b.data)-b.packPtr >= n {
		return
	}
	required := b.packPtr + n
	var toAlloc int
	if required >= b.thresholdSize {
		toAlloc = ((required + b.thresholdSize - 1) / b.thresholdSize) * b.thresholdSize
	} else {
		toAlloc = len(b.data)
		if toAlloc == 0 {
			toAlloc = b.initialSize
		}
		for toAlloc < required {
			toAlloc <<= 1
		}
	}
	grown := make([]byte, toAlloc)
	copy(grown, b.data[:b.packPtr])
	b.data = grown
	if b.onGrow != nil {
		b.onGrow()
	}
}

// write reserves n bytes at the pack cursor and returns them.
func (b *Buffer) write(n int) []byte {
	b.extend(n)
	out := b.data[b.packPtr : b.packPtr+n]
	b.packPtr += n
	return out
}

// read consumes n bytes at the unpack cursor.
func (b *Buffer) read(n int) ([]byte, error) {
	if n < 0 || b.Unread() < n {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", status.ErrUnpackReadPastEndOfBuffer, n, b.Unread())
	}
	out := b.data[b.unpackPtr : b.unpackPtr+n]
	b.unpackPtr += n
	return out, nil
}

func (b *Buffer) putUint16(v uint16) {
	binary.BigEndian.PutUint16(b.write(2), v)
}

func (b *Buffer) putInt32(v int32) {
	binary.BigEndian.PutUint32(b.write(4), uint32(v))
}

func (b *Buffer) getUint16() (uint16, error) {
	p, err := b.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func (b *Buffer) getInt32() (int32, error) {
	p, err := b.read(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p)), nil
}

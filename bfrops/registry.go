package bfrops

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/GoCodeAlone/mca/status"
)

// PackFunc packs every element of src, a slice of the registered Go type.
type PackFunc func(r *Registry, buf *Buffer, src any, t DataType) error

// UnpackFunc fills dst, a slice of the registered Go type, and returns the
// number of elements unpacked.
type UnpackFunc func(r *Registry, buf *Buffer, dst any, t DataType) (int, error)

// CopyFunc returns a deep copy of a single value.
type CopyFunc func(r *Registry, src any, t DataType) (any, error)

// PrintFunc renders a single value for diagnostics.
type PrintFunc func(r *Registry, prefix string, src any, t DataType) (string, error)

// TypeEntry is one Type Registry entry.
type TypeEntry struct {
	Type   DataType
	Name   string
	GoType reflect.Type
	Pack   PackFunc
	Unpack UnpackFunc
	Copy   CopyFunc
	Print  PrintFunc
}

// Widths records the wire tags used for host-dependent integer types.
type Widths struct {
	Int  DataType
	Uint DataType
	Size DataType
	Pid  DataType
}

// NativeWidths returns the widths of the running host.
func NativeWidths() Widths {
	if strconv.IntSize == 32 {
		return Widths{Int: TypeInt32, Uint: TypeUint32, Size: TypeUint32, Pid: TypeInt32}
	}
	return Widths{Int: TypeInt64, Uint: TypeUint64, Size: TypeUint64, Pid: TypeInt32}
}

func (w Widths) validate() error {
	signed := []DataType{TypeInt32, TypeInt64}
	unsigned := []DataType{TypeUint32, TypeUint64}
	if !slices.Contains(signed, w.Int) || !slices.Contains(signed, w.Pid) ||
		!slices.Contains(unsigned, w.Uint) || !slices.Contains(unsigned, w.Size) {
		return fmt.Errorf("%w: unsupported integer widths %+v", status.ErrBadParam, w)
	}
	return nil
}

// Registry maps type tags to codecs. It is indexed directly by tag, and a
// registration replaces whatever was stored at that tag before.
type Registry struct {
	entries []*TypeEntry
	widths  Widths
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithWidths overrides the host integer widths. It exists so a process can
// encode exactly like a host with a different word size.
func WithWidths(w Widths) RegistryOption {
	return func(r *Registry) {
		r.widths = w
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{widths: NativeWidths()}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.widths.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Widths returns the integer widths used for INT, UINT, SIZE and PID.
func (r *Registry) Widths() Widths {
	return r.widths
}

// Register stores info at its tag, replacing any earlier registration.
func (r *Registry) Register(info TypeEntry) error {
	if info.Pack == nil || info.Unpack == nil || info.Copy == nil || info.Print == nil || info.GoType == nil {
		return fmt.Errorf("%w: incomplete registration for %s", status.ErrBadParam, info.Name)
	}
	if info.Name == "" {
		info.Name = DataTypeString(info.Type)
	}
	idx := int(info.Type)
	if idx >= len(r.entries) {
		r.entries = append(r.entries, make([]*TypeEntry, idx+1-len(r.entries))...)
	}
	r.entries[idx] = &info
	return nil
}

// Lookup returns the registration for t.
func (r *Registry) Lookup(t DataType) (*TypeEntry, bool) {
	if int(t) >= len(r.entries) || r.entries[t] == nil {
		return nil, false
	}
	return r.entries[t], true
}

// Types lists the registered tags in ascending order.
func (r *Registry) Types() []DataType {
	var out []DataType
	for i, e := range r.entries {
		if e != nil {
			out = append(out, DataType(i))
		}
	}
	return out
}

func (r *Registry) lookup(t DataType) (*TypeEntry, error) {
	info, ok := r.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %d", status.ErrUnknownDataType, uint16(t))
	}
	return info, nil
}

// StoreDataType writes a raw type tag.
func StoreDataType(buf *Buffer, t DataType) {
	buf.putUint16(uint16(t))
}

// GetDataType reads a raw type tag.
func GetDataType(buf *Buffer) (DataType, error) {
	v, err := buf.getUint16()
	return DataType(v), err
}

// PeekDataType returns the next type tag in a fully described buffer
// without consuming it. The tag following the element count is returned.
func PeekDataType(buf *Buffer) (DataType, error) {
	if buf == nil || buf.typ != BufferFullyDesc {
		return TypeUndef, fmt.Errorf("%w: buffer is not fully described", status.ErrBadParam)
	}
	saved := buf.unpackPtr
	defer func() { buf.unpackPtr = saved }()

	// count tag, count, value tag
	if _, err := buf.read(2 + 4); err != nil {
		return TypeUndef, err
	}
	return GetDataType(buf)
}

// Pack writes len(src) values of type t: an INT32 count (tagged in fully
// described buffers) followed by the values. src must be a slice of the Go
// type registered for t. Nothing is written on error.
func (r *Registry) Pack(buf *Buffer, src any, t DataType) error {
	if buf == nil || src == nil {
		return fmt.Errorf("%w: nil buffer or source", status.ErrBadParam)
	}
	sv := reflect.ValueOf(src)
	if sv.Kind() != reflect.Slice {
		return fmt.Errorf("%w: source must be a slice, got %T", status.ErrBadParam, src)
	}
	if sv.Len() > math.MaxInt32 {
		return fmt.Errorf("%w: too many values", status.ErrBadParam)
	}
	if _, err := r.lookup(t); err != nil {
		return err
	}

	start := buf.packPtr
	if buf.typ == BufferFullyDesc {
		StoreDataType(buf, TypeInt32)
	}
	buf.putInt32(int32(sv.Len()))
	if err := r.PackBuffer(buf, src, t); err != nil {
		buf.packPtr = start
		return err
	}
	return nil
}

// PackBuffer packs src without a count, preceded by the type tag in a fully
// described buffer. Codecs use it for struct fields and value arms.
func (r *Registry) PackBuffer(buf *Buffer, src any, t DataType) error {
	if buf.typ == BufferFullyDesc {
		StoreDataType(buf, t)
	}
	return r.PackType(buf, src, t)
}

// PackType dispatches straight to the codec registered for t.
func (r *Registry) PackType(buf *Buffer, src any, t DataType) error {
	info, err := r.lookup(t)
	if err != nil {
		return err
	}
	return info.Pack(r, buf, src, t)
}

// Unpack reads values of type t into dst, a slice whose length is the
// number of values the caller has room for. It returns the number of values
// stored.
//
// The declared type must match t exactly in a fully described buffer. If
// the buffer declares more values than dst holds, len(dst) values are
// unpacked and status.ErrUnpackInadequateSpace is returned; the buffer can
// not be unpacked further after that. On any other error the unpack cursor
// is restored.
func (r *Registry) Unpack(buf *Buffer, dst any, t DataType) (int, error) {
	if buf == nil || dst == nil {
		return 0, fmt.Errorf("%w: nil buffer or destination", status.ErrBadParam)
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Slice {
		return 0, fmt.Errorf("%w: destination must be a slice, got %T", status.ErrBadParam, dst)
	}

	start := buf.unpackPtr
	fail := func(err error) (int, error) {
		buf.unpackPtr = start
		return 0, err
	}

	if buf.typ == BufferFullyDesc {
		lt, err := GetDataType(buf)
		if err != nil {
			return fail(err)
		}
		if lt != TypeInt32 {
			return fail(fmt.Errorf("%w: expected count, found %s", status.ErrUnpackFailure, lt))
		}
	}
	declared, err := buf.getInt32()
	if err != nil {
		return fail(err)
	}
	if declared < 0 {
		return fail(fmt.Errorf("%w: negative count %d", status.ErrUnpackFailure, declared))
	}

	n := int(declared)
	capacity := dv.Len()
	if n > capacity {
		n = capacity
	}
	got, err := r.UnpackBuffer(buf, dv.Slice(0, n).Interface(), t)
	if err != nil {
		return fail(err)
	}
	if int(declared) > capacity {
		return got, fmt.Errorf("%w: %d values declared, room for %d",
			status.ErrUnpackInadequateSpace, declared, capacity)
	}
	return got, nil
}

// UnpackBuffer is the counterpart of PackBuffer. In a fully described
// buffer the stored tag must equal t.
func (r *Registry) UnpackBuffer(buf *Buffer, dst any, t DataType) (int, error) {
	if buf.typ == BufferFullyDesc {
		lt, err := GetDataType(buf)
		if err != nil {
			return 0, err
		}
		if lt != t {
			return 0, fmt.Errorf("%w: got type %s when expecting type %s", status.ErrPackMismatch, lt, t)
		}
	}
	return r.UnpackType(buf, dst, t)
}

// UnpackType dispatches straight to the codec registered for t.
func (r *Registry) UnpackType(buf *Buffer, dst any, t DataType) (int, error) {
	info, err := r.lookup(t)
	if err != nil {
		return 0, err
	}
	return info.Unpack(r, buf, dst, t)
}

// Copy returns a deep copy of src, a single value of type t.
func (r *Registry) Copy(src any, t DataType) (any, error) {
	info, err := r.lookup(t)
	if err != nil {
		return nil, err
	}
	return info.Copy(r, src, t)
}

// Print renders src, a single value of type t.
func (r *Registry) Print(prefix string, src any, t DataType) (string, error) {
	info, err := r.lookup(t)
	if err != nil {
		return "", err
	}
	return info.Print(r, prefix, src, t)
}

// newSlice makes a slice of n elements of the Go type registered for t.
func (r *Registry) newSlice(t DataType, n int) (reflect.Value, error) {
	info, err := r.lookup(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.MakeSlice(reflect.SliceOf(info.GoType), n, n), nil
}

func sliceOf[T any](v any) ([]T, error) {
	s, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: expected []%s, got %T", status.ErrTypeMismatch, reflect.TypeFor[T](), v)
	}
	return s, nil
}

func valueOf[T any](v any) (T, error) {
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: expected %s, got %T", status.ErrTypeMismatch, reflect.TypeFor[T](), v)
	}
	return x, nil
}

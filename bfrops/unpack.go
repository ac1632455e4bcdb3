package bfrops

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/GoCodeAlone/mca/status"
)

// UnpackBool reads one byte per value; any non-zero byte is true.
func UnpackBool(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[bool](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = src[i] != 0
	}
	return len(d), nil
}

func unpack8[T int8Like](_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[T](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = T(src[i])
	}
	return len(d), nil
}

func unpack16[T int16Like](_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[T](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(2 * len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = T(binary.BigEndian.Uint16(src[2*i:]))
	}
	return len(d), nil
}

func unpack32[T int32Like](_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[T](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(4 * len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = T(binary.BigEndian.Uint32(src[4*i:]))
	}
	return len(d), nil
}

func unpack64[T int64Like](_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[T](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(8 * len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = T(binary.BigEndian.Uint64(src[8*i:]))
	}
	return len(d), nil
}

// unpackRemoteWidth reads n integers that the sender tagged as remote. When
// remote differs from the local width the values go through a temporary of
// the remote width and are widened here; callers narrow to the local width.
func (r *Registry) unpackRemoteWidth(buf *Buffer, remote DataType, n int) ([]int64, error) {
	out := make([]int64, n)
	var err error
	switch remote {
	case TypeInt8:
		tmp := make([]int8, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeInt16:
		tmp := make([]int16, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeInt32:
		tmp := make([]int32, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeInt64:
		_, err = r.UnpackType(buf, out, remote)
	case TypeUint8:
		tmp := make([]uint8, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeUint16:
		tmp := make([]uint16, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeUint32:
		tmp := make([]uint32, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	case TypeUint64:
		tmp := make([]uint64, n)
		if _, err = r.UnpackType(buf, tmp, remote); err == nil {
			for i, v := range tmp {
				out[i] = int64(v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s is not an integer width", status.ErrUnpackFailure, remote)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// narrowSigned truncates v to the local width.
func narrowSigned(v int64, width DataType) int64 {
	if width == TypeInt32 {
		return int64(int32(v))
	}
	return v
}

func narrowUnsigned(v uint64, width DataType) uint64 {
	if width == TypeUint32 {
		return uint64(uint32(v))
	}
	return v
}

// UnpackInt reads Go ints whatever width the sender used.
func UnpackInt(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[int](dst)
	if err != nil {
		return 0, err
	}
	remote, err := GetDataType(buf)
	if err != nil {
		return 0, err
	}
	vals, err := r.unpackRemoteWidth(buf, remote, len(d))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		d[i] = int(narrowSigned(v, r.widths.Int))
	}
	return len(d), nil
}

// UnpackUint reads Go uints whatever width the sender used.
func UnpackUint(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	return unpackUnsigned(r, buf, dst, r.widths.Uint)
}

// UnpackSize reads sizes whatever width the sender used.
func UnpackSize(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	return unpackUnsigned(r, buf, dst, r.widths.Size)
}

func unpackUnsigned(r *Registry, buf *Buffer, dst any, local DataType) (int, error) {
	d, err := sliceOf[uint](dst)
	if err != nil {
		return 0, err
	}
	remote, err := GetDataType(buf)
	if err != nil {
		return 0, err
	}
	vals, err := r.unpackRemoteWidth(buf, remote, len(d))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		d[i] = uint(narrowUnsigned(uint64(v), local))
	}
	return len(d), nil
}

// UnpackPid reads process IDs whatever width the sender used.
func UnpackPid(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Pid](dst)
	if err != nil {
		return 0, err
	}
	remote, err := GetDataType(buf)
	if err != nil {
		return 0, err
	}
	vals, err := r.unpackRemoteWidth(buf, remote, len(d))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		d[i] = Pid(narrowSigned(v, r.widths.Pid))
	}
	return len(d), nil
}

// unpackStrings is the counterpart of packStrings. A zero length is an
// absent string and yields "".
func unpackStrings(buf *Buffer, d []string) error {
	for i := range d {
		n, err := buf.getInt32()
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: negative string length %d", status.ErrUnpackFailure, n)
		}
		if n == 0 {
			d[i] = ""
			continue
		}
		raw, err := buf.read(int(n))
		if err != nil {
			return err
		}
		d[i] = string(raw[:n-1])
	}
	return nil
}

// UnpackString reads Go strings.
func UnpackString(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[string](dst)
	if err != nil {
		return 0, err
	}
	if err := unpackStrings(buf, d); err != nil {
		return 0, err
	}
	return len(d), nil
}

// UnpackFloat parses float32 values from their text form.
func UnpackFloat(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[float32](dst)
	if err != nil {
		return 0, err
	}
	text := make([]string, len(d))
	if err := unpackStrings(buf, text); err != nil {
		return 0, err
	}
	for i, s := range text {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", status.ErrUnpackFailure, err)
		}
		d[i] = float32(f)
	}
	return len(d), nil
}

// UnpackDouble parses float64 values from their text form.
func UnpackDouble(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[float64](dst)
	if err != nil {
		return 0, err
	}
	text := make([]string, len(d))
	if err := unpackStrings(buf, text); err != nil {
		return 0, err
	}
	for i, s := range text {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", status.ErrUnpackFailure, err)
		}
		d[i] = f
	}
	return len(d), nil
}

// UnpackTimeval reads second/microsecond pairs.
func UnpackTimeval(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Timeval](dst)
	if err != nil {
		return 0, err
	}
	pair := make([]int64, 2)
	for i := range d {
		if _, err := r.UnpackType(buf, pair, TypeInt64); err != nil {
			return 0, err
		}
		d[i] = Timeval{Sec: pair[0], Usec: pair[1]}
	}
	return len(d), nil
}

// UnpackTime reads whole seconds since the epoch.
func UnpackTime(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[time.Time](dst)
	if err != nil {
		return 0, err
	}
	secs := make([]uint64, len(d))
	if _, err := r.UnpackType(buf, secs, TypeUint64); err != nil {
		return 0, err
	}
	for i, s := range secs {
		d[i] = timeFromWire(s)
	}
	return len(d), nil
}

// UnpackStatus reads status codes.
func UnpackStatus(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[status.Status](dst)
	if err != nil {
		return 0, err
	}
	src, err := buf.read(4 * len(d))
	if err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = status.Status(int32(binary.BigEndian.Uint32(src[4*i:])))
	}
	return len(d), nil
}

// UnpackPointer consumes the sentinel bytes and stores nil.
func UnpackPointer(_ *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[any](dst)
	if err != nil {
		return 0, err
	}
	if _, err := buf.read(len(d)); err != nil {
		return 0, err
	}
	for i := range d {
		d[i] = nil
	}
	return len(d), nil
}

// UnpackValue reads each value's type tag, then its data.
func UnpackValue(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Value](dst)
	if err != nil {
		return 0, err
	}
	for i := range d {
		t, err := GetDataType(buf)
		if err != nil {
			return 0, err
		}
		data, err := r.unpackArm(buf, t)
		if err != nil {
			return 0, err
		}
		d[i] = Value{Type: t, Data: data}
	}
	return len(d), nil
}

func (r *Registry) unpackArm(buf *Buffer, t DataType) (any, error) {
	arm, err := r.newSlice(t, 1)
	if err != nil {
		return nil, err
	}
	if _, err := r.UnpackBuffer(buf, arm.Interface(), t); err != nil {
		return nil, err
	}
	elem := arm.Index(0)
	if elem.Kind() == reflect.Interface && elem.IsNil() {
		return nil, nil
	}
	return elem.Interface(), nil
}

// UnpackInfo reads key, required flag and value for each entry.
func UnpackInfo(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Info](dst)
	if err != nil {
		return 0, err
	}
	key := make([]string, 1)
	required := make([]bool, 1)
	val := make([]Value, 1)
	for i := range d {
		if _, err := r.UnpackBuffer(buf, key, TypeString); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, required, TypeBool); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, val, TypeValue); err != nil {
			return 0, err
		}
		d[i] = Info{Key: key[0], Value: val[0]}
		if required[0] {
			d[i].Directives |= InfoRequired
		}
	}
	return len(d), nil
}

// maxDeclared bounds a size prefix by what is left in the buffer, so a
// corrupt length can not trigger a huge allocation.
func maxDeclared(buf *Buffer, n uint, minElem int) error {
	if minElem < 1 {
		minElem = 1
	}
	if n > uint(buf.Unread()/minElem) {
		return fmt.Errorf("%w: %d elements declared, %d bytes left", status.ErrUnpackReadPastEndOfBuffer, n, buf.Unread())
	}
	return nil
}

// UnpackInfoArray reads a SIZE count, then the entries.
func UnpackInfoArray(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[InfoArray](dst)
	if err != nil {
		return 0, err
	}
	size := make([]uint, 1)
	for i := range d {
		if _, err := UnpackSize(r, buf, size, TypeSize); err != nil {
			return 0, err
		}
		if size[0] == 0 {
			d[i] = InfoArray{}
			continue
		}
		if err := maxDeclared(buf, size[0], 4); err != nil {
			return 0, err
		}
		arr := make([]Info, size[0])
		if _, err := r.UnpackType(buf, arr, TypeInfo); err != nil {
			return 0, err
		}
		d[i] = arr
	}
	return len(d), nil
}

// UnpackByteObject reads a SIZE length, then the bytes.
func UnpackByteObject(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[ByteObject](dst)
	if err != nil {
		return 0, err
	}
	size := make([]uint, 1)
	for i := range d {
		if _, err := UnpackSize(r, buf, size, TypeSize); err != nil {
			return 0, err
		}
		if err := maxDeclared(buf, size[0], 1); err != nil {
			return 0, err
		}
		raw, err := buf.read(int(size[0]))
		if err != nil {
			return 0, err
		}
		d[i] = append(ByteObject(nil), raw...)
	}
	return len(d), nil
}

// UnpackNestedBuffer rebuilds each nested buffer with its own wire type
// and a copy of its payload.
func UnpackNestedBuffer(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[*Buffer](dst)
	if err != nil {
		return 0, err
	}
	typ := make([]byte, 1)
	size := make([]uint, 1)
	for i := range d {
		if _, err := r.UnpackBuffer(buf, typ, TypeByte); err != nil {
			return 0, err
		}
		if _, err := UnpackSize(r, buf, size, TypeSize); err != nil {
			return 0, err
		}
		if err := maxDeclared(buf, size[0], 1); err != nil {
			return 0, err
		}
		raw, err := buf.read(int(size[0]))
		if err != nil {
			return 0, err
		}
		inner := NewBuffer(BufferType(typ[0]), WithGrowth(buf.initialSize, buf.thresholdSize))
		if len(raw) > 0 {
			inner.Load(append([]byte(nil), raw...))
		}
		d[i] = inner
	}
	return len(d), nil
}

// UnpackProc reads namespace and rank for each process.
func UnpackProc(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Proc](dst)
	if err != nil {
		return 0, err
	}
	nspace := make([]string, 1)
	rank := make([]Rank, 1)
	for i := range d {
		if _, err := r.UnpackBuffer(buf, nspace, TypeString); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, rank, TypeProcRank); err != nil {
			return 0, err
		}
		d[i] = Proc{Nspace: nspace[0], Rank: rank[0]}
	}
	return len(d), nil
}

// UnpackKval reads key and value for each entry.
func UnpackKval(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Kval](dst)
	if err != nil {
		return 0, err
	}
	key := make([]string, 1)
	val := make([]Value, 1)
	for i := range d {
		if _, err := r.UnpackBuffer(buf, key, TypeString); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, val, TypeValue); err != nil {
			return 0, err
		}
		d[i] = Kval{Key: key[0], Value: val[0]}
	}
	return len(d), nil
}

// UnpackEnvar reads name, value and separator for each variable.
func UnpackEnvar(r *Registry, buf *Buffer, dst any, _ DataType) (int, error) {
	d, err := sliceOf[Envar](dst)
	if err != nil {
		return 0, err
	}
	strs := make([]string, 1)
	sep := make([]byte, 1)
	for i := range d {
		var e Envar
		if _, err := r.UnpackBuffer(buf, strs, TypeString); err != nil {
			return 0, err
		}
		e.Name = strs[0]
		if _, err := r.UnpackBuffer(buf, strs, TypeString); err != nil {
			return 0, err
		}
		e.Value = strs[0]
		if _, err := r.UnpackBuffer(buf, sep, TypeByte); err != nil {
			return 0, err
		}
		e.Separator = sep[0]
		d[i] = e
	}
	return len(d), nil
}

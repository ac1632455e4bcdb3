package bfrops

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/GoCodeAlone/mca/status"
)

type int8Like interface{ ~uint8 | ~int8 }
type int16Like interface{ ~uint16 | ~int16 }
type int32Like interface{ ~uint32 | ~int32 }
type int64Like interface{ ~uint64 | ~int64 }

// PackBool writes one byte per value, 1 for true.
func PackBool(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[bool](src)
	if err != nil {
		return err
	}
	dst := buf.write(len(s))
	for i, v := range s {
		if v {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
	return nil
}

func pack8[T int8Like](_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[T](src)
	if err != nil {
		return err
	}
	dst := buf.write(len(s))
	for i, v := range s {
		dst[i] = uint8(v)
	}
	return nil
}

func pack16[T int16Like](_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[T](src)
	if err != nil {
		return err
	}
	dst := buf.write(2 * len(s))
	for i, v := range s {
		binary.BigEndian.PutUint16(dst[2*i:], uint16(v))
	}
	return nil
}

func pack32[T int32Like](_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[T](src)
	if err != nil {
		return err
	}
	dst := buf.write(4 * len(s))
	for i, v := range s {
		binary.BigEndian.PutUint32(dst[4*i:], uint32(v))
	}
	return nil
}

func pack64[T int64Like](_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[T](src)
	if err != nil {
		return err
	}
	dst := buf.write(8 * len(s))
	for i, v := range s {
		binary.BigEndian.PutUint64(dst[8*i:], uint64(v))
	}
	return nil
}

// packSigned writes host-width signed values: the tag of the fixed-width
// type they are sent as, then the values in that width. The tag is written
// in every buffer mode.
func packSigned(r *Registry, buf *Buffer, vals []int64, width DataType) error {
	StoreDataType(buf, width)
	if width == TypeInt32 {
		narrow := make([]int32, len(vals))
		for i, v := range vals {
			narrow[i] = int32(v)
		}
		return r.PackType(buf, narrow, TypeInt32)
	}
	return r.PackType(buf, vals, TypeInt64)
}

func packUnsigned(r *Registry, buf *Buffer, vals []uint64, width DataType) error {
	StoreDataType(buf, width)
	if width == TypeUint32 {
		narrow := make([]uint32, len(vals))
		for i, v := range vals {
			narrow[i] = uint32(v)
		}
		return r.PackType(buf, narrow, TypeUint32)
	}
	return r.PackType(buf, vals, TypeUint64)
}

// PackInt packs Go ints at the registry's INT width.
func PackInt(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[int](src)
	if err != nil {
		return err
	}
	vals := make([]int64, len(s))
	for i, v := range s {
		vals[i] = int64(v)
	}
	return packSigned(r, buf, vals, r.widths.Int)
}

// PackUint packs Go uints at the registry's UINT width.
func PackUint(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[uint](src)
	if err != nil {
		return err
	}
	vals := make([]uint64, len(s))
	for i, v := range s {
		vals[i] = uint64(v)
	}
	return packUnsigned(r, buf, vals, r.widths.Uint)
}

// PackSize packs sizes (Go uint) at the registry's SIZE width.
func PackSize(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[uint](src)
	if err != nil {
		return err
	}
	vals := make([]uint64, len(s))
	for i, v := range s {
		vals[i] = uint64(v)
	}
	return packUnsigned(r, buf, vals, r.widths.Size)
}

// PackPid packs process IDs at the registry's PID width.
func PackPid(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Pid](src)
	if err != nil {
		return err
	}
	vals := make([]int64, len(s))
	for i, v := range s {
		vals[i] = int64(v)
	}
	return packSigned(r, buf, vals, r.widths.Pid)
}

// packStrings writes each string as an INT32 length that counts a
// trailing NUL, then the bytes and the NUL.
func packStrings(buf *Buffer, s []string) {
	for _, v := range s {
		buf.putInt32(int32(len(v) + 1))
		dst := buf.write(len(v) + 1)
		copy(dst, v)
		dst[len(v)] = 0
	}
}

// PackString packs Go strings.
func PackString(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[string](src)
	if err != nil {
		return err
	}
	packStrings(buf, s)
	return nil
}

// PackFloat packs float32 values as "%f" text.
func PackFloat(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[float32](src)
	if err != nil {
		return err
	}
	text := make([]string, len(s))
	for i, v := range s {
		text[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	packStrings(buf, text)
	return nil
}

// PackDouble packs float64 values as "%f" text.
func PackDouble(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[float64](src)
	if err != nil {
		return err
	}
	text := make([]string, len(s))
	for i, v := range s {
		text[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	packStrings(buf, text)
	return nil
}

// PackTimeval packs seconds and microseconds as two INT64 values.
func PackTimeval(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Timeval](src)
	if err != nil {
		return err
	}
	for _, v := range s {
		if err := r.PackType(buf, []int64{v.Sec, v.Usec}, TypeInt64); err != nil {
			return err
		}
	}
	return nil
}

// PackTime packs whole seconds since the epoch as a UINT64.
func PackTime(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[time.Time](src)
	if err != nil {
		return err
	}
	secs := make([]uint64, len(s))
	for i, v := range s {
		secs[i] = uint64(v.Unix())
	}
	return r.PackType(buf, secs, TypeUint64)
}

// PackStatus packs status codes as INT32.
func PackStatus(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[status.Status](src)
	if err != nil {
		return err
	}
	dst := buf.write(4 * len(s))
	for i, v := range s {
		binary.BigEndian.PutUint32(dst[4*i:], uint32(v))
	}
	return nil
}

// PackPointer writes a one-byte sentinel per value. Addresses mean
// nothing to another process.
func PackPointer(_ *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[any](src)
	if err != nil {
		return err
	}
	dst := buf.write(len(s))
	for i := range dst {
		dst[i] = 1
	}
	return nil
}

// PackValue writes each value's raw type tag, then its data.
func PackValue(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Value](src)
	if err != nil {
		return err
	}
	for _, v := range s {
		StoreDataType(buf, v.Type)
		if err := r.packArm(buf, v); err != nil {
			return err
		}
	}
	return nil
}

// packArm packs the populated union arm of v.
func (r *Registry) packArm(buf *Buffer, v Value) error {
	arm, err := r.newSlice(v.Type, 1)
	if err != nil {
		return err
	}
	if v.Data != nil {
		data, err := assignable(arm.Type().Elem(), v)
		if err != nil {
			return err
		}
		arm.Index(0).Set(data)
	}
	return r.PackBuffer(buf, arm.Interface(), v.Type)
}

// PackInfo writes key, required flag and value for each entry.
func PackInfo(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Info](src)
	if err != nil {
		return err
	}
	for _, info := range s {
		if err := r.PackBuffer(buf, []string{info.Key}, TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []bool{info.Required()}, TypeBool); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []Value{info.Value}, TypeValue); err != nil {
			return err
		}
	}
	return nil
}

// PackInfoArray writes a SIZE count, then the entries.
func PackInfoArray(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[InfoArray](src)
	if err != nil {
		return err
	}
	for _, arr := range s {
		if err := PackSize(r, buf, []uint{uint(len(arr))}, TypeSize); err != nil {
			return err
		}
		if len(arr) == 0 {
			continue
		}
		if err := r.PackType(buf, []Info(arr), TypeInfo); err != nil {
			return err
		}
	}
	return nil
}

// PackByteObject writes a SIZE length, then the raw bytes.
func PackByteObject(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[ByteObject](src)
	if err != nil {
		return err
	}
	for _, bo := range s {
		if err := PackSize(r, buf, []uint{uint(len(bo))}, TypeSize); err != nil {
			return err
		}
		copy(buf.write(len(bo)), bo)
	}
	return nil
}

// PackNestedBuffer packs the unread part of each buffer: its wire type, a
// SIZE byte count and the bytes.
func PackNestedBuffer(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[*Buffer](src)
	if err != nil {
		return err
	}
	for _, inner := range s {
		if inner == nil {
			return fmt.Errorf("%w: nil nested buffer", status.ErrBadParam)
		}
		if err := r.PackBuffer(buf, []byte{byte(inner.typ)}, TypeByte); err != nil {
			return err
		}
		payload := inner.UnreadBytes()
		if err := PackSize(r, buf, []uint{uint(len(payload))}, TypeSize); err != nil {
			return err
		}
		copy(buf.write(len(payload)), payload)
	}
	return nil
}

// PackProc writes namespace and rank for each process.
func PackProc(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Proc](src)
	if err != nil {
		return err
	}
	for _, p := range s {
		if err := r.PackBuffer(buf, []string{p.Nspace}, TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []Rank{p.Rank}, TypeProcRank); err != nil {
			return err
		}
	}
	return nil
}

// PackKval writes key and value for each entry.
func PackKval(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Kval](src)
	if err != nil {
		return err
	}
	for _, kv := range s {
		if err := r.PackBuffer(buf, []string{kv.Key}, TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []Value{kv.Value}, TypeValue); err != nil {
			return err
		}
	}
	return nil
}

// PackEnvar writes name, value and separator for each variable.
func PackEnvar(r *Registry, buf *Buffer, src any, _ DataType) error {
	s, err := sliceOf[Envar](src)
	if err != nil {
		return err
	}
	for _, e := range s {
		if err := r.PackBuffer(buf, []string{e.Name}, TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []string{e.Value}, TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []byte{e.Separator}, TypeByte); err != nil {
			return err
		}
	}
	return nil
}

package bfrops

import (
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

// copyScalar copies fixed-size values, which Go already copies by value.
func copyScalar[T any](_ *Registry, src any, _ DataType) (any, error) {
	return valueOf[T](src)
}

// CopyPointer returns the pointer as is.
func CopyPointer(_ *Registry, src any, _ DataType) (any, error) {
	return src, nil
}

// CopyByteObject duplicates the bytes.
func CopyByteObject(_ *Registry, src any, _ DataType) (any, error) {
	bo, err := valueOf[ByteObject](src)
	if err != nil {
		return nil, err
	}
	if bo == nil {
		return ByteObject(nil), nil
	}
	return append(ByteObject{}, bo...), nil
}

// CopyValue deep copies the populated arm.
func CopyValue(r *Registry, src any, _ DataType) (any, error) {
	v, err := valueOf[Value](src)
	if err != nil {
		return nil, err
	}
	return r.copyValue(v)
}

func (r *Registry) copyValue(v Value) (Value, error) {
	if v.Data == nil {
		return Value{Type: v.Type}, nil
	}
	data, err := r.Copy(v.Data, v.Type)
	if err != nil {
		return Value{}, err
	}
	return Value{Type: v.Type, Data: data}, nil
}

// CopyInfo deep copies an entry.
func CopyInfo(r *Registry, src any, _ DataType) (any, error) {
	info, err := valueOf[Info](src)
	if err != nil {
		return nil, err
	}
	val, err := r.copyValue(info.Value)
	if err != nil {
		return nil, err
	}
	return Info{Key: info.Key, Directives: info.Directives, Value: val}, nil
}

// CopyInfoArray deep copies every entry.
func CopyInfoArray(r *Registry, src any, _ DataType) (any, error) {
	arr, err := valueOf[InfoArray](src)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return InfoArray(nil), nil
	}
	out := make(InfoArray, len(arr))
	for i, info := range arr {
		c, err := r.Copy(info, TypeInfo)
		if err != nil {
			return nil, err
		}
		out[i] = c.(Info)
	}
	return out, nil
}

// CopyKval deep copies key and value.
func CopyKval(r *Registry, src any, _ DataType) (any, error) {
	kv, err := valueOf[Kval](src)
	if err != nil {
		return nil, err
	}
	val, err := r.copyValue(kv.Value)
	if err != nil {
		return nil, err
	}
	return Kval{Key: kv.Key, Value: val}, nil
}

// CopyNestedBuffer creates a new buffer holding the unread payload of src.
func CopyNestedBuffer(_ *Registry, src any, _ DataType) (any, error) {
	b, err := valueOf[*Buffer](src)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil buffer", status.ErrBadParam)
	}
	out := NewBuffer(b.typ, WithGrowth(b.initialSize, b.thresholdSize))
	if b.Unread() > 0 {
		out.Load(append([]byte(nil), b.UnreadBytes()...))
	}
	return out, nil
}

// CopyPayload appends the unread payload of src to dst. An empty dst
// adopts the wire type of src; otherwise the types must agree.
func CopyPayload(dst, src *Buffer) error {
	if dst == nil || src == nil {
		return fmt.Errorf("%w: nil buffer", status.ErrBadParam)
	}
	if dst.IsEmpty() {
		dst.typ = src.typ
	} else if dst.typ != src.typ {
		return fmt.Errorf("%w: cannot copy %s payload into %s buffer", status.ErrBadParam, src.typ, dst.typ)
	}
	payload := src.UnreadBytes()
	copy(dst.write(len(payload)), payload)
	return nil
}

package bfrops

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"time"

	"github.com/GoCodeAlone/mca/status"
)

// assignable checks that v.Data fits the arm registered for v.Type.
func assignable(elem reflect.Type, v Value) (reflect.Value, error) {
	data := reflect.ValueOf(v.Data)
	if !data.Type().AssignableTo(elem) {
		return reflect.Value{}, fmt.Errorf("%w: %s value holds %T, want %s",
			status.ErrTypeMismatch, DataTypeString(v.Type), v.Data, elem)
	}
	return data, nil
}

// ValueLoad stores a copy of data in v as type t.
func (r *Registry) ValueLoad(v *Value, data any, t DataType) error {
	if v == nil {
		return fmt.Errorf("%w: nil value", status.ErrBadParam)
	}
	info, err := r.lookup(t)
	if err != nil {
		return err
	}
	candidate := Value{Type: t, Data: data}
	if data != nil {
		if _, err := assignable(info.GoType, candidate); err != nil {
			return err
		}
	}
	loaded, err := r.copyValue(candidate)
	if err != nil {
		return err
	}
	*v = loaded
	return nil
}

// ValueUnload returns a copy of the data held by v.
func (r *Registry) ValueUnload(v Value) (any, error) {
	if v.Type == TypeUndef {
		return nil, fmt.Errorf("%w: value has no type", status.ErrBadParam)
	}
	c, err := r.copyValue(v)
	if err != nil {
		return nil, err
	}
	return c.Data, nil
}

// ValueXfer deep copies src into dst.
func (r *Registry) ValueXfer(dst *Value, src Value) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination", status.ErrBadParam)
	}
	c, err := r.copyValue(src)
	if err != nil {
		return err
	}
	*dst = c
	return nil
}

func order[T cmp.Ordered](a, b T) CmpResult {
	switch cmp.Compare(a, b) {
	case 0:
		return Equal
	case 1:
		return Value1Greater
	default:
		return Value2Greater
	}
}

// ValueCmp compares two values of the same type.
func ValueCmp(a, b Value) CmpResult {
	if a.Type != b.Type {
		return TypeDifferent
	}
	switch x := a.Data.(type) {
	case bool:
		y, ok := b.Data.(bool)
		if !ok {
			return TypeDifferent
		}
		switch {
		case x == y:
			return Equal
		case x:
			return Value1Greater
		default:
			return Value2Greater
		}
	case string:
		return orderWith(x, b.Data)
	case int:
		return orderWith(x, b.Data)
	case int8:
		return orderWith(x, b.Data)
	case int16:
		return orderWith(x, b.Data)
	case int32:
		return orderWith(x, b.Data)
	case int64:
		return orderWith(x, b.Data)
	case uint:
		return orderWith(x, b.Data)
	case uint8:
		return orderWith(x, b.Data)
	case uint16:
		return orderWith(x, b.Data)
	case uint32:
		return orderWith(x, b.Data)
	case uint64:
		return orderWith(x, b.Data)
	case float32:
		return orderWith(x, b.Data)
	case float64:
		return orderWith(x, b.Data)
	case Pid:
		return orderWith(x, b.Data)
	case Rank:
		return orderWith(x, b.Data)
	case status.Status:
		return orderWith(x, b.Data)
	case Persist:
		return orderWith(x, b.Data)
	case Scope:
		return orderWith(x, b.Data)
	case DataRange:
		return orderWith(x, b.Data)
	case ProcState:
		return orderWith(x, b.Data)
	case DataType:
		return orderWith(x, b.Data)
	case InfoDirectives:
		return orderWith(x, b.Data)
	case IOFChannel:
		return orderWith(x, b.Data)
	case time.Time:
		y, ok := b.Data.(time.Time)
		if !ok {
			return TypeDifferent
		}
		return order(x.Compare(y), 0)
	case Timeval:
		y, ok := b.Data.(Timeval)
		if !ok {
			return TypeDifferent
		}
		if r := order(x.Sec, y.Sec); r != Equal {
			return r
		}
		return order(x.Usec, y.Usec)
	case Proc:
		y, ok := b.Data.(Proc)
		if !ok {
			return TypeDifferent
		}
		if r := order(x.Nspace, y.Nspace); r != Equal {
			return r
		}
		return order(x.Rank, y.Rank)
	case ByteObject:
		y, ok := b.Data.(ByteObject)
		if !ok {
			return TypeDifferent
		}
		if r := order(len(x), len(y)); r != Equal {
			return r
		}
		return order(bytes.Compare(x, y), 0)
	}
	if reflect.DeepEqual(a.Data, b.Data) {
		return Equal
	}
	return ComparisonNotAvailable
}

func orderWith[T cmp.Ordered](x T, other any) CmpResult {
	y, ok := other.(T)
	if !ok {
		return TypeDifferent
	}
	return order(x, y)
}

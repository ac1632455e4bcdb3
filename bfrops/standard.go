package bfrops

import (
	"reflect"
	"time"

	"github.com/GoCodeAlone/mca/status"
)

// StandardTypes returns the codecs every bfrops module registers.
func StandardTypes() []TypeEntry {
	return []TypeEntry{
		{Type: TypeBool, GoType: reflect.TypeFor[bool](), Pack: PackBool, Unpack: UnpackBool, Copy: copyScalar[bool], Print: printScalar[bool]},
		{Type: TypeByte, GoType: reflect.TypeFor[byte](), Pack: pack8[byte], Unpack: unpack8[byte], Copy: copyScalar[byte], Print: printScalar[byte]},
		{Type: TypeString, GoType: reflect.TypeFor[string](), Pack: PackString, Unpack: UnpackString, Copy: copyScalar[string], Print: PrintString},
		{Type: TypeSize, GoType: reflect.TypeFor[uint](), Pack: PackSize, Unpack: UnpackSize, Copy: copyScalar[uint], Print: printScalar[uint]},
		{Type: TypePid, GoType: reflect.TypeFor[Pid](), Pack: PackPid, Unpack: UnpackPid, Copy: copyScalar[Pid], Print: printScalar[Pid]},
		{Type: TypeInt, GoType: reflect.TypeFor[int](), Pack: PackInt, Unpack: UnpackInt, Copy: copyScalar[int], Print: printScalar[int]},
		{Type: TypeInt8, GoType: reflect.TypeFor[int8](), Pack: pack8[int8], Unpack: unpack8[int8], Copy: copyScalar[int8], Print: printScalar[int8]},
		{Type: TypeInt16, GoType: reflect.TypeFor[int16](), Pack: pack16[int16], Unpack: unpack16[int16], Copy: copyScalar[int16], Print: printScalar[int16]},
		{Type: TypeInt32, GoType: reflect.TypeFor[int32](), Pack: pack32[int32], Unpack: unpack32[int32], Copy: copyScalar[int32], Print: printScalar[int32]},
		{Type: TypeInt64, GoType: reflect.TypeFor[int64](), Pack: pack64[int64], Unpack: unpack64[int64], Copy: copyScalar[int64], Print: printScalar[int64]},
		{Type: TypeUint, GoType: reflect.TypeFor[uint](), Pack: PackUint, Unpack: UnpackUint, Copy: copyScalar[uint], Print: printScalar[uint]},
		{Type: TypeUint8, GoType: reflect.TypeFor[uint8](), Pack: pack8[uint8], Unpack: unpack8[uint8], Copy: copyScalar[uint8], Print: printScalar[uint8]},
		{Type: TypeUint16, GoType: reflect.TypeFor[uint16](), Pack: pack16[uint16], Unpack: unpack16[uint16], Copy: copyScalar[uint16], Print: printScalar[uint16]},
		{Type: TypeUint32, GoType: reflect.TypeFor[uint32](), Pack: pack32[uint32], Unpack: unpack32[uint32], Copy: copyScalar[uint32], Print: printScalar[uint32]},
		{Type: TypeUint64, GoType: reflect.TypeFor[uint64](), Pack: pack64[uint64], Unpack: unpack64[uint64], Copy: copyScalar[uint64], Print: printScalar[uint64]},
		{Type: TypeFloat, GoType: reflect.TypeFor[float32](), Pack: PackFloat, Unpack: UnpackFloat, Copy: copyScalar[float32], Print: printScalar[float32]},
		{Type: TypeDouble, GoType: reflect.TypeFor[float64](), Pack: PackDouble, Unpack: UnpackDouble, Copy: copyScalar[float64], Print: printScalar[float64]},
		{Type: TypeTimeval, GoType: reflect.TypeFor[Timeval](), Pack: PackTimeval, Unpack: UnpackTimeval, Copy: copyScalar[Timeval], Print: printScalar[Timeval]},
		{Type: TypeTime, GoType: reflect.TypeFor[time.Time](), Pack: PackTime, Unpack: UnpackTime, Copy: copyScalar[time.Time], Print: PrintTime},
		{Type: TypeStatus, GoType: reflect.TypeFor[status.Status](), Pack: PackStatus, Unpack: UnpackStatus, Copy: copyScalar[status.Status], Print: printScalar[status.Status]},
		{Type: TypeValue, GoType: reflect.TypeFor[Value](), Pack: PackValue, Unpack: UnpackValue, Copy: CopyValue, Print: PrintValue},
		{Type: TypeProc, GoType: reflect.TypeFor[Proc](), Pack: PackProc, Unpack: UnpackProc, Copy: copyScalar[Proc], Print: PrintProc},
		{Type: TypeInfo, GoType: reflect.TypeFor[Info](), Pack: PackInfo, Unpack: UnpackInfo, Copy: CopyInfo, Print: PrintInfo},
		{Type: TypeBuffer, GoType: reflect.TypeFor[*Buffer](), Pack: PackNestedBuffer, Unpack: UnpackNestedBuffer, Copy: CopyNestedBuffer, Print: PrintNestedBuffer},
		{Type: TypeByteObject, GoType: reflect.TypeFor[ByteObject](), Pack: PackByteObject, Unpack: UnpackByteObject, Copy: CopyByteObject, Print: PrintByteObject},
		{Type: TypeKval, GoType: reflect.TypeFor[Kval](), Pack: PackKval, Unpack: UnpackKval, Copy: CopyKval, Print: PrintKval},
		{Type: TypePersist, GoType: reflect.TypeFor[Persist](), Pack: pack8[Persist], Unpack: unpack8[Persist], Copy: copyScalar[Persist], Print: printScalar[Persist]},
		{Type: TypePointer, GoType: reflect.TypeFor[any](), Pack: PackPointer, Unpack: UnpackPointer, Copy: CopyPointer, Print: PrintPointer},
		{Type: TypeScope, GoType: reflect.TypeFor[Scope](), Pack: pack8[Scope], Unpack: unpack8[Scope], Copy: copyScalar[Scope], Print: printScalar[Scope]},
		{Type: TypeDataRange, GoType: reflect.TypeFor[DataRange](), Pack: pack8[DataRange], Unpack: unpack8[DataRange], Copy: copyScalar[DataRange], Print: printScalar[DataRange]},
		{Type: TypeInfoDirectives, GoType: reflect.TypeFor[InfoDirectives](), Pack: pack32[InfoDirectives], Unpack: unpack32[InfoDirectives], Copy: copyScalar[InfoDirectives], Print: printScalar[InfoDirectives]},
		{Type: TypeDataType, GoType: reflect.TypeFor[DataType](), Pack: pack16[DataType], Unpack: unpack16[DataType], Copy: copyScalar[DataType], Print: printScalar[DataType]},
		{Type: TypeProcState, GoType: reflect.TypeFor[ProcState](), Pack: pack8[ProcState], Unpack: unpack8[ProcState], Copy: copyScalar[ProcState], Print: printScalar[ProcState]},
		{Type: TypeProcRank, GoType: reflect.TypeFor[Rank](), Pack: pack32[Rank], Unpack: unpack32[Rank], Copy: copyScalar[Rank], Print: printScalar[Rank]},
		{Type: TypeInfoArray, GoType: reflect.TypeFor[InfoArray](), Pack: PackInfoArray, Unpack: UnpackInfoArray, Copy: CopyInfoArray, Print: PrintInfoArray},
	}
}

// EnvarType is the ENVAR codec.
func EnvarType() TypeEntry {
	return TypeEntry{Type: TypeEnvar, GoType: reflect.TypeFor[Envar](), Pack: PackEnvar, Unpack: UnpackEnvar, Copy: copyScalar[Envar], Print: PrintEnvar}
}

// IOFChannelType is the IOF_CHANNEL codec.
func IOFChannelType() TypeEntry {
	return TypeEntry{Type: TypeIOFChannel, GoType: reflect.TypeFor[IOFChannel](), Pack: pack16[IOFChannel], Unpack: unpack16[IOFChannel], Copy: copyScalar[IOFChannel], Print: printScalar[IOFChannel]}
}

// RegisterTypes registers every entry of types in order.
func RegisterTypes(r *Registry, types ...TypeEntry) error {
	for _, info := range types {
		if err := r.Register(info); err != nil {
			return err
		}
	}
	return nil
}

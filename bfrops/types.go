package bfrops

import (
	"fmt"
	"time"
)

// DataType is a wire type tag. It is packed as a 16-bit big-endian integer.
type DataType uint16

// Wire type tags. The numbering is shared with every peer and must never
// change.
const (
	TypeUndef            DataType = 0
	TypeBool             DataType = 1
	TypeByte             DataType = 2
	TypeString           DataType = 3
	TypeSize             DataType = 4
	TypePid              DataType = 5
	TypeInt              DataType = 6
	TypeInt8             DataType = 7
	TypeInt16            DataType = 8
	TypeInt32            DataType = 9
	TypeInt64            DataType = 10
	TypeUint             DataType = 11
	TypeUint8            DataType = 12
	TypeUint16           DataType = 13
	TypeUint32           DataType = 14
	TypeUint64           DataType = 15
	TypeFloat            DataType = 16
	TypeDouble           DataType = 17
	TypeTimeval          DataType = 18
	TypeTime             DataType = 19
	TypeStatus           DataType = 20
	TypeValue            DataType = 21
	TypeProc             DataType = 22
	TypeApp              DataType = 23
	TypeInfo             DataType = 24
	TypePdata            DataType = 25
	TypeBuffer           DataType = 26
	TypeByteObject       DataType = 27
	TypeKval             DataType = 28
	TypeModex            DataType = 29
	TypePersist          DataType = 30
	TypePointer          DataType = 31
	TypeScope            DataType = 32
	TypeDataRange        DataType = 33
	TypeCommand          DataType = 34
	TypeInfoDirectives   DataType = 35
	TypeDataType         DataType = 36
	TypeProcState        DataType = 37
	TypeProcInfo         DataType = 38
	TypeDataArray        DataType = 39
	TypeProcRank         DataType = 40
	TypeQuery            DataType = 41
	TypeCompressedString DataType = 42
	TypeAllocDirective   DataType = 43
	TypeInfoArray        DataType = 44
	TypeIOFChannel       DataType = 45
	TypeEnvar            DataType = 46
)

var typeNames = map[DataType]string{
	TypeUndef:            "PMIX_UNDEF",
	TypeBool:             "PMIX_BOOL",
	TypeByte:             "PMIX_BYTE",
	TypeString:           "PMIX_STRING",
	TypeSize:             "PMIX_SIZE",
	TypePid:              "PMIX_PID",
	TypeInt:              "PMIX_INT",
	TypeInt8:             "PMIX_INT8",
	TypeInt16:            "PMIX_INT16",
	TypeInt32:            "PMIX_INT32",
	TypeInt64:            "PMIX_INT64",
	TypeUint:             "PMIX_UINT",
	TypeUint8:            "PMIX_UINT8",
	TypeUint16:           "PMIX_UINT16",
	TypeUint32:           "PMIX_UINT32",
	TypeUint64:           "PMIX_UINT64",
	TypeFloat:            "PMIX_FLOAT",
	TypeDouble:           "PMIX_DOUBLE",
	TypeTimeval:          "PMIX_TIMEVAL",
	TypeTime:             "PMIX_TIME",
	TypeStatus:           "PMIX_STATUS",
	TypeValue:            "PMIX_VALUE",
	TypeProc:             "PMIX_PROC",
	TypeApp:              "PMIX_APP",
	TypeInfo:             "PMIX_INFO",
	TypePdata:            "PMIX_PDATA",
	TypeBuffer:           "PMIX_BUFFER",
	TypeByteObject:       "PMIX_BYTE_OBJECT",
	TypeKval:             "PMIX_KVAL",
	TypeModex:            "PMIX_MODEX",
	TypePersist:          "PMIX_PERSIST",
	TypePointer:          "PMIX_POINTER",
	TypeScope:            "PMIX_SCOPE",
	TypeDataRange:        "PMIX_DATA_RANGE",
	TypeCommand:          "PMIX_COMMAND",
	TypeInfoDirectives:   "PMIX_INFO_DIRECTIVES",
	TypeDataType:         "PMIX_DATA_TYPE",
	TypeProcState:        "PMIX_PROC_STATE",
	TypeProcInfo:         "PMIX_PROC_INFO",
	TypeDataArray:        "PMIX_DATA_ARRAY",
	TypeProcRank:         "PMIX_PROC_RANK",
	TypeQuery:            "PMIX_QUERY",
	TypeCompressedString: "PMIX_COMPRESSED_STRING",
	TypeAllocDirective:   "PMIX_ALLOC_DIRECTIVE",
	TypeInfoArray:        "PMIX_INFO_ARRAY",
	TypeIOFChannel:       "PMIX_IOF_CHANNEL",
	TypeEnvar:            "PMIX_ENVAR",
}

// DataTypeString returns the wire name of t.
func DataTypeString(t DataType) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "NOT INITIALIZED"
}

func (t DataType) String() string {
	return DataTypeString(t)
}

// Pid is a process ID. Its wire width is host dependent.
type Pid int32

// Rank is a process rank within a namespace.
type Rank uint32

// Special ranks.
const (
	RankUndef    Rank = 0xfffffffe
	RankWildcard Rank = 0xffffffff
)

// Proc names one process.
type Proc struct {
	Nspace string
	Rank   Rank
}

// Timeval is a seconds/microseconds pair.
type Timeval struct {
	Sec  int64
	Usec int64
}

// Persist describes how long published data lives.
type Persist uint8

// Scope limits the visibility of stored data.
type Scope uint8

// DataRange limits the visibility of published data.
type DataRange uint8

// ProcState is a process lifecycle state.
type ProcState uint8

// IOFChannel is a bit set of forwarded I/O streams.
type IOFChannel uint16

// InfoDirectives is a bit set attached to an Info entry.
type InfoDirectives uint32

// InfoRequired marks an Info entry the receiver must honor.
const InfoRequired InfoDirectives = 0x00000001

// ByteObject is an opaque byte payload.
type ByteObject []byte

// Envar describes an environment variable to set on a child process.
type Envar struct {
	Name      string
	Value     string
	Separator byte
}

// Value is a tagged union. Data must hold the Go type registered for Type
// (for example bool for TypeBool, InfoArray for TypeInfoArray).
type Value struct {
	Type DataType
	Data any
}

func (v Value) String() string {
	return fmt.Sprintf("%s:%v", DataTypeString(v.Type), v.Data)
}

// Info is a key/value pair with directives.
type Info struct {
	Key        string
	Directives InfoDirectives
	Value      Value
}

// Required reports whether the InfoRequired directive is set.
func (i Info) Required() bool {
	return i.Directives&InfoRequired != 0
}

// InfoArray is an ordered list of Info entries.
type InfoArray []Info

// Kval is a stored key/value.
type Kval struct {
	Key   string
	Value Value
}

// CmpResult is the outcome of comparing two values.
type CmpResult int

// Comparison outcomes.
const (
	Equal CmpResult = iota
	Value1Greater
	Value2Greater
	TypeDifferent
	ComparisonNotAvailable
)

func (r CmpResult) String() string {
	switch r {
	case Equal:
		return "EQUAL"
	case Value1Greater:
		return "VALUE1_GREATER"
	case Value2Greater:
		return "VALUE2_GREATER"
	case TypeDifferent:
		return "TYPE_DIFFERENT"
	default:
		return "COMPARISON_NOT_AVAIL"
	}
}

// timeFromWire converts packed seconds back to a time.
func timeFromWire(sec uint64) time.Time {
	return time.Unix(int64(sec), 0)
}

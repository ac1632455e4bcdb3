package bfrops

import (
	"fmt"
	"strings"
	"time"
)

func printScalar[T any](_ *Registry, prefix string, src any, t DataType) (string, error) {
	v, err := valueOf[T](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tValue: %v", prefix, DataTypeString(t), v), nil
}

// PrintString renders a string, quoting it so empty values are visible.
func PrintString(_ *Registry, prefix string, src any, t DataType) (string, error) {
	s, err := valueOf[string](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tValue: %q", prefix, DataTypeString(t), s), nil
}

// PrintTime renders a time in RFC 3339 form.
func PrintTime(_ *Registry, prefix string, src any, t DataType) (string, error) {
	v, err := valueOf[time.Time](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tValue: %s", prefix, DataTypeString(t), v.UTC().Format(time.RFC3339)), nil
}

// PrintPointer renders a pointer value.
func PrintPointer(_ *Registry, prefix string, src any, t DataType) (string, error) {
	if src == nil {
		return fmt.Sprintf("%sData type: %s\tAddress: NULL", prefix, DataTypeString(t)), nil
	}
	return fmt.Sprintf("%sData type: %s\tAddress: %p", prefix, DataTypeString(t), src), nil
}

// PrintByteObject renders the size of a byte object.
func PrintByteObject(_ *Registry, prefix string, src any, t DataType) (string, error) {
	bo, err := valueOf[ByteObject](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tSize: %d", prefix, DataTypeString(t), len(bo)), nil
}

// PrintNestedBuffer renders the wire type and unread size of a buffer.
func PrintNestedBuffer(_ *Registry, prefix string, src any, t DataType) (string, error) {
	b, err := valueOf[*Buffer](src)
	if err != nil {
		return "", err
	}
	if b == nil {
		return fmt.Sprintf("%sData type: %s\tValue: NULL", prefix, DataTypeString(t)), nil
	}
	return fmt.Sprintf("%sData type: %s\tBuffer type: %s\tBytes used: %d",
		prefix, DataTypeString(t), b.typ, b.Unread()), nil
}

// PrintValue renders the populated arm through its own printer.
func PrintValue(r *Registry, prefix string, src any, _ DataType) (string, error) {
	v, err := valueOf[Value](src)
	if err != nil {
		return "", err
	}
	return r.printValue(prefix, v)
}

func (r *Registry) printValue(prefix string, v Value) (string, error) {
	if v.Data == nil && v.Type != TypePointer {
		return fmt.Sprintf("%sData type: %s\tValue: NULL", prefix, DataTypeString(v.Type)), nil
	}
	return r.Print(prefix, v.Data, v.Type)
}

// PrintInfo renders key, directives and value.
func PrintInfo(r *Registry, prefix string, src any, _ DataType) (string, error) {
	info, err := valueOf[Info](src)
	if err != nil {
		return "", err
	}
	val, err := r.printValue("", info.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sKEY: %s DIRECTIVES: %s %s", prefix, info.Key, info.Directives, val), nil
}

// PrintInfoArray renders one line per entry.
func PrintInfoArray(r *Registry, prefix string, src any, t DataType) (string, error) {
	arr, err := valueOf[InfoArray](src)
	if err != nil {
		return "", err
	}
	lines := []string{fmt.Sprintf("%sData type: %s\tSize: %d", prefix, DataTypeString(t), len(arr))}
	for _, info := range arr {
		line, err := r.Print(prefix+"\t", info, TypeInfo)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// PrintKval renders key and value.
func PrintKval(r *Registry, prefix string, src any, t DataType) (string, error) {
	kv, err := valueOf[Kval](src)
	if err != nil {
		return "", err
	}
	val, err := r.printValue("", kv.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tKey: %s\t%s", prefix, DataTypeString(t), kv.Key, val), nil
}

// PrintProc renders namespace and rank.
func PrintProc(_ *Registry, prefix string, src any, t DataType) (string, error) {
	p, err := valueOf[Proc](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tValue: %s", prefix, DataTypeString(t), p), nil
}

// PrintEnvar renders an environment variable.
func PrintEnvar(_ *Registry, prefix string, src any, t DataType) (string, error) {
	e, err := valueOf[Envar](src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sData type: %s\tName: %s\tValue: %s\tSeparator: %q",
		prefix, DataTypeString(t), e.Name, e.Value, e.Separator), nil
}

func (p Proc) String() string {
	switch p.Rank {
	case RankWildcard:
		return p.Nspace + ":WILDCARD"
	case RankUndef:
		return p.Nspace + ":UNDEF"
	}
	return fmt.Sprintf("%s:%d", p.Nspace, p.Rank)
}

func (d InfoDirectives) String() string {
	if d&InfoRequired != 0 {
		return "REQUIRED"
	}
	return "OPTIONAL"
}

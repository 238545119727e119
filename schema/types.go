package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags a DataType. Primitive kinds are ordered by width:
// NullKind < BoolKind < IntKind < FloatKind < StringKind
type Kind int

const (
	// NullKind describes values which were only ever observed as null
	NullKind Kind = iota
	// BoolKind describes true/false values
	BoolKind
	// IntKind describes integral numbers, stored as int64
	IntKind
	// FloatKind describes numbers with a fractional part or exponent, stored as float64
	FloatKind
	// StringKind describes text, and is the catch-all for irreconcilable values
	StringKind
	// ArrayKind describes homogeneous lists
	ArrayKind
	// StructKind describes objects with named fields
	StructKind
)

// String returns a textual representation of this Kind
func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case StructKind:
		return "struct"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsPrimitive returns true iff this Kind has no nested types
func (k Kind) IsPrimitive() bool {
	return k <= StringKind
}

// DataType is a node within an inferred schema tree. DataTypes are immutable once built,
// and may be shared freely between goroutines.
type DataType struct {
	kind   Kind
	elem   *DataType // ArrayKind only
	fields []Field   // StructKind only, sorted by name
}

// Field is a named, possibly-nullable member of a struct DataType
type Field struct {
	Name     string
	Type     *DataType
	Nullable bool
}

var (
	nullType   = &DataType{kind: NullKind}
	boolType   = &DataType{kind: BoolKind}
	intType    = &DataType{kind: IntKind}
	floatType  = &DataType{kind: FloatKind}
	stringType = &DataType{kind: StringKind}
)

// Null returns the DataType of values only ever observed as null
func Null() *DataType { return nullType }

// Bool returns the boolean DataType
func Bool() *DataType { return boolType }

// Int returns the integer DataType
func Int() *DataType { return intType }

// Float returns the floating point DataType
func Float() *DataType { return floatType }

// String returns the string DataType
func String() *DataType { return stringType }

// ArrayOf returns an array DataType with the given element type
func ArrayOf(elem *DataType) *DataType {
	if elem == nil {
		elem = nullType
	}
	return &DataType{kind: ArrayKind, elem: elem}
}

// StructOf returns a struct DataType with the given fields. Fields are copied and
// sorted by name; if a name appears more than once, the occurrences are merged.
func StructOf(fields ...Field) *DataType {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			f.Type = nullType
		}
		if existing, ok := byName[f.Name]; ok {
			f = Field{Name: f.Name, Type: Merge(existing.Type, f.Type), Nullable: existing.Nullable || f.Nullable}
		}
		byName[f.Name] = f
	}
	sorted := make([]Field, 0, len(byName))
	for _, f := range byName {
		sorted = append(sorted, f)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &DataType{kind: StructKind, fields: sorted}
}

// Kind returns the Kind of this DataType
func (t *DataType) Kind() Kind {
	return t.kind
}

// Elem returns the element type of an array DataType, or nil
func (t *DataType) Elem() *DataType {
	return t.elem
}

// Fields returns a copy of the fields of a struct DataType, sorted by name
func (t *DataType) Fields() []Field {
	res := make([]Field, len(t.fields))
	copy(res, t.fields)
	return res
}

// NumFields returns the number of fields in a struct DataType
func (t *DataType) NumFields() int {
	return len(t.fields)
}

// Field looks up a field of a struct DataType by name
func (t *DataType) Field(name string) (Field, bool) {
	i := sort.Search(len(t.fields), func(i int) bool { return t.fields[i].Name >= name })
	if i < len(t.fields) && t.fields[i].Name == name {
		return t.fields[i], true
	}
	return Field{}, false
}

// Equals returns true iff this and another DataType describe the same structure
func (t *DataType) Equals(other *DataType) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.kind != other.kind {
		return false
	}
	switch t.kind {
	case ArrayKind:
		return t.elem.Equals(other.elem)
	case StructKind:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i, f := range t.fields {
			of := other.fields[i]
			if f.Name != of.Name || f.Nullable != of.Nullable || !f.Type.Equals(of.Type) {
				return false
			}
		}
	}
	return true
}

// String produces a textual representation of this DataType, e.g. struct<code:int,val:string>
func (t *DataType) String() string {
	var res strings.Builder
	t.writeTo(&res)
	return res.String()
}

func (t *DataType) writeTo(res *strings.Builder) {
	switch t.kind {
	case ArrayKind:
		res.WriteString("array<")
		t.elem.writeTo(res)
		res.WriteString(">")
	case StructKind:
		res.WriteString("struct<")
		for i, f := range t.fields {
			if i > 0 {
				res.WriteString(",")
			}
			res.WriteString(f.Name)
			res.WriteString(":")
			f.Type.writeTo(res)
		}
		res.WriteString(">")
	default:
		res.WriteString(t.kind.String())
	}
}

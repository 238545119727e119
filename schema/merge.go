package schema

// Merge returns the narrowest DataType which accommodates both a and b.
// Primitive kinds widen along Null < Bool < Int < Float < String. Arrays merge
// their element types, structs merge field by field over the union of their
// keys (a field missing on one side becomes nullable), and anything else is
// irreconcilable and becomes String. Merge is commutative and associative, and
// never returns a type narrower than either input.
func Merge(a, b *DataType) *DataType {
	if a == nil {
		a = nullType
	}
	if b == nil {
		b = nullType
	}
	switch {
	case a.kind == NullKind:
		return b
	case b.kind == NullKind:
		return a
	case a.kind.IsPrimitive() && b.kind.IsPrimitive():
		if a.kind >= b.kind {
			return a
		}
		return b
	case a.kind == ArrayKind && b.kind == ArrayKind:
		return ArrayOf(Merge(a.elem, b.elem))
	case a.kind == StructKind && b.kind == StructKind:
		return &DataType{kind: StructKind, fields: mergeFields(a.fields, b.fields)}
	default:
		return stringType
	}
}

// mergeFields merges two name-sorted field lists into one
func mergeFields(left, right []Field) []Field {
	res := make([]Field, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		switch {
		case j >= len(right) || (i < len(left) && left[i].Name < right[j].Name):
			f := left[i]
			f.Nullable = true
			res = append(res, f)
			i++
		case i >= len(left) || right[j].Name < left[i].Name:
			f := right[j]
			f.Nullable = true
			res = append(res, f)
			j++
		default:
			res = append(res, Field{
				Name:     left[i].Name,
				Type:     Merge(left[i].Type, right[j].Type),
				Nullable: left[i].Nullable || right[j].Nullable,
			})
			i++
			j++
		}
	}
	return res
}

// Covers returns true iff wide is the same as, or wider than, narrow. Every value
// of type narrow can then be represented as a value of type wide.
func Covers(wide, narrow *DataType) bool {
	if narrow == nil || narrow.kind == NullKind {
		return true
	}
	if wide == nil {
		return false
	}
	if wide.kind == StringKind {
		return true
	}
	switch {
	case wide.kind.IsPrimitive() && narrow.kind.IsPrimitive():
		return wide.kind >= narrow.kind
	case wide.kind == ArrayKind && narrow.kind == ArrayKind:
		return Covers(wide.elem, narrow.elem)
	case wide.kind == StructKind && narrow.kind == StructKind:
		for _, nf := range narrow.fields {
			wf, ok := wide.Field(nf.Name)
			if !ok || !Covers(wf.Type, nf.Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Normalize replaces every Null leaf with a nullable String, so that fields
// never observed with a value still have a concrete output type
func Normalize(t *DataType) *DataType {
	if t == nil {
		return stringType
	}
	switch t.kind {
	case NullKind:
		return stringType
	case ArrayKind:
		return ArrayOf(Normalize(t.elem))
	case StructKind:
		fields := make([]Field, len(t.fields))
		for i, f := range t.fields {
			nullable := f.Nullable || f.Type.kind == NullKind
			fields[i] = Field{Name: f.Name, Type: Normalize(f.Type), Nullable: nullable}
		}
		return &DataType{kind: StructKind, fields: fields}
	default:
		return t
	}
}

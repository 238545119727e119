package schema

import (
	"fmt"
	"strings"
)

// Column describes a named column within a Schema
type Column interface {
	Clone() Column   // Clone returns a copy of this Column
	Index() int      // Index returns the index of this Column within a Schema
	Type() *DataType // Type returns the DataType of this Column
	Nullable() bool  // Nullable returns true iff values in this Column may be nil
}

type column struct {
	idx      int
	colType  *DataType
	nullable bool
}

// Clone returns a copy of this Column
func (c *column) Clone() Column {
	return &column{c.idx, c.colType, c.nullable}
}

// Index returns the index of this Column within a Schema
func (c *column) Index() int {
	return c.idx
}

// Type returns the DataType of this Column
func (c *column) Type() *DataType {
	return c.colType
}

// Nullable returns true iff values in this Column may be nil
func (c *column) Nullable() bool {
	return c.nullable
}

// Schema is the self-describing, ordered set of columns declared for the
// records of a job. It allows one to look up columns by name and to iterate
// over them in declaration order.
type Schema struct {
	schema map[string]*column
}

// CreateSchema is a factory for Schemas
func CreateSchema() *Schema {
	return &Schema{schema: make(map[string]*column)}
}

// Equals returns nil iff this and another Schema are equivalent, or an error describing the first difference
func (s *Schema) Equals(otherSchema *Schema) error {
	if s.NumColumns() != otherSchema.NumColumns() {
		return fmt.Errorf("Schemas have unequal numbers of columns")
	}
	return s.ForEachColumn(func(name string, col Column) error {
		otherCol, err := otherSchema.GetColumn(name)
		if err != nil {
			return err
		}
		if col.Index() != otherCol.Index() {
			return fmt.Errorf("Column %s indices do not match", name)
		}
		if col.Nullable() != otherCol.Nullable() {
			return fmt.Errorf("Column %s nullability does not match", name)
		}
		if !col.Type().Equals(otherCol.Type()) {
			return fmt.Errorf("Column %s types do not match: %s vs %s", name, col.Type(), otherCol.Type())
		}
		return nil
	})
}

// Clone returns a copy of this Schema
func (s *Schema) Clone() *Schema {
	newSchema := make(map[string]*column, len(s.schema))
	for k, v := range s.schema {
		newSchema[k] = &column{v.idx, v.colType, v.nullable}
	}
	return &Schema{schema: newSchema}
}

// NumColumns returns the number of columns in this Schema
func (s *Schema) NumColumns() int {
	return len(s.schema)
}

// GetColumn returns the named Column
func (s *Schema) GetColumn(colName string) (Column, error) {
	col, ok := s.schema[colName]
	if !ok {
		return nil, fmt.Errorf("Schema does not contain column with name %s", colName)
	}
	return col, nil
}

// HasColumn returns true iff this schema contains a column with the given name
func (s *Schema) HasColumn(colName string) bool {
	_, ok := s.schema[colName]
	return ok
}

// CreateColumn appends a new column to the Schema
func (s *Schema) CreateColumn(colName string, columnType *DataType, nullable bool) (*Schema, error) {
	if _, ok := s.schema[colName]; ok {
		return nil, fmt.Errorf("Schema already contains column with name %s", colName)
	}
	s.schema[colName] = &column{len(s.schema), columnType, nullable}
	return s, nil
}

// ColumnNames returns the names in the schema, in index order
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.schema))
	for k, v := range s.schema {
		names[v.idx] = k
	}
	return names
}

// ColumnTypes returns the types in the schema, in index order
func (s *Schema) ColumnTypes() []*DataType {
	types := make([]*DataType, len(s.schema))
	for _, v := range s.schema {
		types[v.idx] = v.colType
	}
	return types
}

// ForEachColumn iterates over the columns in this Schema, in index order
func (s *Schema) ForEachColumn(fn func(name string, col Column) error) error {
	for _, name := range s.ColumnNames() {
		if err := fn(name, s.schema[name]); err != nil {
			return err
		}
	}
	return nil
}

// String produces a textual representation of this Schema, e.g. region:string, output:struct<code:int>
func (s *Schema) String() string {
	var res strings.Builder
	for i, name := range s.ColumnNames() {
		if i > 0 {
			res.WriteString(", ")
		}
		fmt.Fprintf(&res, "%s:%s", name, s.schema[name].colType)
	}
	return res.String()
}

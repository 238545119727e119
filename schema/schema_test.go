package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaEqualityBasic(t *testing.T) {
	schema1 := CreateSchema()
	_, err := schema1.CreateColumn("col1", Int(), false)
	require.Nil(t, err)
	_, err = schema1.CreateColumn("col2", StructOf(Field{Name: "x", Type: String()}), true)
	require.Nil(t, err)

	schema2 := CreateSchema()
	_, err = schema2.CreateColumn("col1", Int(), false)
	require.Nil(t, err)
	_, err = schema2.CreateColumn("col2", StructOf(Field{Name: "x", Type: String()}), true)
	require.Nil(t, err)

	require.Nil(t, schema1.Equals(schema2))
	require.Nil(t, schema1.Clone().Equals(schema2))
}

func TestSchemaEqualityDifferentType(t *testing.T) {
	schema1 := CreateSchema()
	schema1.CreateColumn("col1", Int(), false)
	schema2 := CreateSchema()
	schema2.CreateColumn("col1", Float(), false)
	require.NotNil(t, schema1.Equals(schema2))
}

func TestSchemaEqualityOrder(t *testing.T) {
	schema1 := CreateSchema()
	schema1.CreateColumn("col1", Int(), false)
	schema1.CreateColumn("col2", String(), false)

	schema2 := CreateSchema()
	schema2.CreateColumn("col2", String(), false)
	schema2.CreateColumn("col1", Int(), false)

	require.NotNil(t, schema1.Equals(schema2))
}

func TestSchemaColumnsInOrder(t *testing.T) {
	s := CreateSchema()
	s.CreateColumn("region", String(), false)
	s.CreateColumn("source", String(), false)
	s.CreateColumn("output", StructOf(Field{Name: "code", Type: Int()}), true)
	_, err := s.CreateColumn("region", String(), false)
	require.NotNil(t, err)

	require.Equal(t, []string{"region", "source", "output"}, s.ColumnNames())
	require.Equal(t, IntKind, s.ColumnTypes()[2].Fields()[0].Type.Kind())
	require.True(t, s.HasColumn("output"))
	require.False(t, s.HasColumn("corrupt_record"))
	require.Equal(t, "region:string, source:string, output:struct<code:int>", s.String())

	visited := []string{}
	s.ForEachColumn(func(name string, col Column) error {
		visited = append(visited, name)
		return nil
	})
	require.Equal(t, s.ColumnNames(), visited)
}

// Package assembler builds OutputRecords and the Schema which describes them
package assembler

import (
	"fmt"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
	"github.com/go-sif/sif-rest/parser"
	"github.com/go-sif/sif-rest/schema"
)

// Assemble combines an invoked InputRow with its parse Result. The input fields are
// carried through unchanged.
func Assemble(row rest.InputRow, res *parser.Result) (rest.OutputRecord, error) {
	state, err := rest.Invoked.Advance(res.State)
	if err != nil {
		return rest.OutputRecord{}, err
	}
	rec := rest.OutputRecord{Input: row, State: state}
	if state == rest.ParsedCorrupt {
		rec.CorruptRecord = res.Corrupt
	} else {
		rec.Output = res.Value
	}
	return rec, nil
}

// InputColumns derives the name and type of each input column from the rows.
// A column's type accommodates the values observed in every row, and the column is
// nullable iff any row holds nil for it.
func InputColumns(rows []rest.InputRow) (*schema.Schema, error) {
	s := schema.CreateSchema()
	if len(rows) == 0 {
		return s, nil
	}
	for _, name := range rows[0].Keys() {
		if name == rest.OutputColumn || name == rest.CorruptRecordColumn {
			return nil, errors.ConfigError{Option: "Input", Reason: fmt.Sprintf("column name %s is reserved", name)}
		}
		var colType *schema.DataType
		nullable := false
		for _, row := range rows {
			v := row[name]
			if v == nil {
				nullable = true
			}
			colType = schema.Merge(colType, schema.TypeOfValue(v))
		}
		if _, err := s.CreateColumn(name, schema.Normalize(colType), nullable); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OutputSchema declares the columns of a job's records: the input columns, then
// output (the normalized inferred type), then corrupt_record iff at least one
// record is corrupt
func OutputSchema(rows []rest.InputRow, inferred *schema.DataType, anyCorrupt bool) (*schema.Schema, error) {
	s, err := InputColumns(rows)
	if err != nil {
		return nil, err
	}
	// fields only ever observed as null are declared as strings
	if _, err := s.CreateColumn(rest.OutputColumn, schema.Normalize(inferred), true); err != nil {
		return nil, err
	}
	if anyCorrupt {
		if _, err := s.CreateColumn(rest.CorruptRecordColumn, schema.String(), true); err != nil {
			return nil, err
		}
	}
	return s, nil
}

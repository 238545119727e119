package util

import (
	"fmt"

	rest "github.com/go-sif/sif-rest"
)

// RowOperation processes a single InputRow into an OutputRecord
type RowOperation func(row rest.InputRow) (rest.OutputRecord, error)

// SafeRowOperation wraps a RowOperation such that panics (e.g. within a custom
// Transport) are recovered and nice error messages are constructed
func SafeRowOperation(rowOp RowOperation) (safeRowOp RowOperation) {
	return func(row rest.InputRow) (rec rest.OutputRecord, err error) {
		defer func() {
			if r := recover(); r != nil {
				if anErr, ok := r.(error); ok {
					err = fmt.Errorf("Row Panic: %w\nRow: %v\n%s", anErr, row, GetTrace())
				} else {
					err = fmt.Errorf("Row Panic: %v\nRow: %v\n%s", r, row, GetTrace())
				}
			} else if err != nil {
				err = fmt.Errorf("Row Error: %w\nRow: %v", err, row)
			}
		}()
		rec, err = rowOp(row)
		return
	}
}

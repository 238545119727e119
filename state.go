package rest

import "fmt"

// RowState tracks a row's progress through a job. A row only ever moves forward:
// Pending -> Invoked -> (ParsedOk | ParsedCorrupt)
type RowState int

const (
	// Pending rows have not been sent yet
	Pending RowState = iota
	// Invoked rows have a Response, which has not been parsed yet
	Invoked
	// ParsedOk rows have an output value shaped by the inferred schema
	ParsedOk
	// ParsedCorrupt rows have a corrupt_record instead of an output value
	ParsedCorrupt
)

// String returns a textual representation of this RowState
func (s RowState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Invoked:
		return "Invoked"
	case ParsedOk:
		return "ParsedOk"
	case ParsedCorrupt:
		return "ParsedCorrupt"
	default:
		return fmt.Sprintf("RowState(%d)", int(s))
	}
}

// IsFinal returns true iff no further transition is possible from this RowState
func (s RowState) IsFinal() bool {
	return s == ParsedOk || s == ParsedCorrupt
}

// Advance returns the next RowState, or an error if moving from s to next is not allowed
func (s RowState) Advance(next RowState) (RowState, error) {
	switch {
	case s == Pending && next == Invoked:
		return next, nil
	case s == Invoked && next.IsFinal():
		return next, nil
	default:
		return s, fmt.Errorf("Row cannot transition from %s to %s", s, next)
	}
}

package rest

// OutputRecord is the final row produced for an InputRow: its input fields,
// the output value shaped by the inferred schema, and, for rows which could not
// be parsed, the corrupt record text. Output is nil whenever CorruptRecord is set.
type OutputRecord struct {
	Input         InputRow
	Output        interface{}
	CorruptRecord *string
	State         RowState
}

// IsCorrupt returns true iff this OutputRecord was routed to the corrupt record channel
func (r *OutputRecord) IsCorrupt() bool {
	return r.CorruptRecord != nil
}

// Fields flattens this OutputRecord into a column name -> value mapping, as seen by a host
func (r *OutputRecord) Fields(includeCorrupt bool) map[string]interface{} {
	fields := make(map[string]interface{}, len(r.Input)+2)
	for k, v := range r.Input {
		fields[k] = v
	}
	fields[OutputColumn] = r.Output
	if includeCorrupt {
		if r.CorruptRecord != nil {
			fields[CorruptRecordColumn] = *r.CorruptRecord
		} else {
			fields[CorruptRecordColumn] = nil
		}
	}
	return fields
}

const (
	// OutputColumn is the name of the column holding each row's parsed response
	OutputColumn = "output"
	// CorruptRecordColumn is the name of the column holding unparseable responses
	CorruptRecordColumn = "corrupt_record"
)

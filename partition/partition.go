// Package partition splits the input rows of a job into disjoint Partitions.
package partition

import (
	"fmt"
	"log"

	rest "github.com/go-sif/sif-rest"
	uuid "github.com/gofrs/uuid"
)

// Partition is a disjoint subset of a job's input rows, processed by a single worker.
// Rows are kept in their original relative order.
type Partition struct {
	id      string
	index   int
	rows    []rest.InputRow
	offsets []int // offsets[i] is the position of rows[i] within the full input
}

func createPartition(index int, capacity int) *Partition {
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID for Partition: %v", err)
	}
	return &Partition{
		id:      id.String(),
		index:   index,
		rows:    make([]rest.InputRow, 0, capacity),
		offsets: make([]int, 0, capacity),
	}
}

// ID retrieves the ID of this Partition
func (p *Partition) ID() string {
	return p.id
}

// Index retrieves the position of this Partition among its siblings
func (p *Partition) Index() int {
	return p.index
}

// GetNumRows retrieves the number of rows in this Partition
func (p *Partition) GetNumRows() int {
	return len(p.rows)
}

// GetRow retrieves a specific row from this Partition
func (p *Partition) GetRow(rowNum int) rest.InputRow {
	return p.rows[rowNum]
}

// GetOffset retrieves the position of a specific row within the full input
func (p *Partition) GetOffset(rowNum int) int {
	return p.offsets[rowNum]
}

// ForEachRow iterates over Rows in a Partition, in order
func (p *Partition) ForEachRow(fn func(offset int, row rest.InputRow) error) error {
	for i, row := range p.rows {
		if err := fn(p.offsets[i], row); err != nil {
			return err
		}
	}
	return nil
}

// ToString returns a string representation of this Partition, for logging
func (p *Partition) ToString() string {
	return fmt.Sprintf("Partition %d (%s, %d rows)", p.index, p.id, len(p.rows))
}

// Split assigns row i to partition i mod numPartitions, so that the same input
// always produces the same partitioning. Some partitions may be empty when there
// are fewer rows than partitions.
func Split(rows []rest.InputRow, numPartitions int) ([]*Partition, error) {
	if numPartitions < 1 {
		return nil, fmt.Errorf("Number of partitions must be at least 1, was %d", numPartitions)
	}
	capacity := len(rows)/numPartitions + 1
	parts := make([]*Partition, numPartitions)
	for i := range parts {
		parts[i] = createPartition(i, capacity)
	}
	for i, row := range rows {
		p := parts[i%numPartitions]
		p.rows = append(p.rows, row)
		p.offsets = append(p.offsets, i)
	}
	return parts, nil
}

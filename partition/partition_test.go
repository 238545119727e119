package partition

import (
	"fmt"
	"testing"

	rest "github.com/go-sif/sif-rest"
	"github.com/stretchr/testify/require"
)

func createRows(n int) []rest.InputRow {
	rows := make([]rest.InputRow, n)
	for i := range rows {
		rows[i] = rest.InputRow{"id": i, "name": fmt.Sprintf("row-%d", i)}
	}
	return rows
}

func TestSplitReproducesInputExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 100} {
		for _, p := range []int{1, 2, 3, 8, 150} {
			rows := createRows(n)
			parts, err := Split(rows, p)
			require.Nil(t, err)
			require.Len(t, parts, p)
			seen := make(map[int]int)
			total := 0
			for _, part := range parts {
				total += part.GetNumRows()
				part.ForEachRow(func(offset int, row rest.InputRow) error {
					require.Equal(t, offset, row["id"])
					seen[offset]++
					return nil
				})
			}
			require.Equal(t, n, total)
			require.Len(t, seen, n)
			for _, count := range seen {
				require.Equal(t, 1, count)
			}
		}
	}
}

func TestSplitIsDeterministicAndOrdered(t *testing.T) {
	rows := createRows(10)
	parts, err := Split(rows, 3)
	require.Nil(t, err)
	require.Equal(t, 4, parts[0].GetNumRows())
	require.Equal(t, 3, parts[1].GetNumRows())
	require.Equal(t, 3, parts[2].GetNumRows())
	for _, part := range parts {
		prev := -1
		for i := 0; i < part.GetNumRows(); i++ {
			offset := part.GetOffset(i)
			require.Equal(t, part.Index(), offset%3)
			require.True(t, offset > prev)
			prev = offset
		}
	}
	again, err := Split(rows, 3)
	require.Nil(t, err)
	for i := range parts {
		require.Equal(t, parts[i].offsets, again[i].offsets)
		require.NotEqual(t, parts[i].ID(), again[i].ID())
	}
}

func TestSplitRejectsNonPositiveCount(t *testing.T) {
	_, err := Split(createRows(3), 0)
	require.NotNil(t, err)
}

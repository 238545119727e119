package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunStatistics(t *testing.T) {
	rs := &RunStatistics{}
	rs.Start()
	rs.StartPhase()
	rs.AddRowsInvoked(SamplePhase, 3)
	rs.EndPhase(SamplePhase)

	rs.StartPhase()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs.EndPartition(time.Now().Add(-time.Millisecond), 5, 1)
		}()
	}
	wg.Wait()
	rs.EndPhase(InvokePhase)
	rs.SetCacheStatistics(2, 18)
	rs.Finish()

	snap := rs.Snapshot()
	require.EqualValues(t, 3, snap.RowsSampled)
	require.EqualValues(t, 20, snap.RowsProcessed)
	require.EqualValues(t, 4, snap.PartitionsProcessed)
	require.EqualValues(t, 4, snap.CorruptRows)
	require.EqualValues(t, 2, snap.CacheHits)
	require.EqualValues(t, 18, snap.CacheMisses)
	require.True(t, snap.AveragePartitionRuntime >= time.Millisecond)
	require.Equal(t, snap.Runtime, rs.GetRuntime())
}

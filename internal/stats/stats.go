package stats

import (
	"sync"
	"time"
)

const statisticRollingWindows = 5

// Phase identifies a portion of a job
type Phase int

const (
	// SamplePhase covers invoking the sample and inferring a schema
	SamplePhase Phase = iota
	// InvokePhase covers invoking and parsing every partition
	InvokePhase
	numPhases
)

// RunStatistics contains statistics about a running job. It is safe for use
// by concurrent partition workers.
type RunStatistics struct {
	lock                        sync.Mutex
	started                     bool
	finished                    bool
	startTime                   time.Time
	totalRuntime                int64
	rowsInvoked                 [numPhases]int64
	phaseRuntimes               [numPhases]int64
	partitionsProcessed         int64
	corruptRows                 int64
	cacheHits                   int64
	cacheMisses                 int64
	recentPartitionRuntimes     []int64 // for rolling average of recent partition processing times
	recentPartitionRuntimesHead int

	currentPhaseStartTime time.Time
}

// Snapshot is an immutable copy of RunStatistics at a point in time
type Snapshot struct {
	StartTime               time.Time
	Runtime                 time.Duration
	SampleRuntime           time.Duration
	InvokeRuntime           time.Duration
	RowsSampled             int64
	RowsProcessed           int64
	PartitionsProcessed     int64
	CorruptRows             int64
	CacheHits               int64
	CacheMisses             int64
	AveragePartitionRuntime time.Duration
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
		rs.recentPartitionRuntimes = make([]int64, statisticRollingWindows)
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.finished = true
	rs.totalRuntime = time.Since(rs.startTime).Nanoseconds()
}

// StartPhase tracks the beginning of a Phase
func (rs *RunStatistics) StartPhase() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.currentPhaseStartTime = time.Now()
}

// EndPhase tracks the end of a Phase
func (rs *RunStatistics) EndPhase(phase Phase) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.phaseRuntimes[phase] = time.Since(rs.currentPhaseStartTime).Nanoseconds()
}

// AddRowsInvoked records rows sent during a Phase
func (rs *RunStatistics) AddRowsInvoked(phase Phase, numRows int) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.rowsInvoked[phase] += int64(numRows)
}

// EndPartition tracks the end of the processing of a partition which began at start
func (rs *RunStatistics) EndPartition(start time.Time, numRows int, numCorrupt int) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if rs.recentPartitionRuntimes == nil {
		rs.recentPartitionRuntimes = make([]int64, statisticRollingWindows)
	}
	rs.recentPartitionRuntimes[rs.recentPartitionRuntimesHead] = time.Since(start).Nanoseconds()
	rs.recentPartitionRuntimesHead = (rs.recentPartitionRuntimesHead + 1) % len(rs.recentPartitionRuntimes)
	rs.rowsInvoked[InvokePhase] += int64(numRows)
	rs.corruptRows += int64(numCorrupt)
	rs.partitionsProcessed++
}

// SetCacheStatistics records the hit and miss counts of the strict-once cache
func (rs *RunStatistics) SetCacheStatistics(hits int64, misses int64) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.cacheHits = hits
	rs.cacheMisses = misses
}

// GetRuntime returns the running time of the job
func (rs *RunStatistics) GetRuntime() time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.runtime()
}

func (rs *RunStatistics) runtime() time.Duration {
	if rs.finished {
		return time.Duration(rs.totalRuntime)
	}
	return time.Since(rs.startTime)
}

// GetCurrentPartitionProcessingTime returns a rolling average of partition processing time
func (rs *RunStatistics) GetCurrentPartitionProcessingTime() time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.averagePartitionRuntime()
}

func (rs *RunStatistics) averagePartitionRuntime() time.Duration {
	var total int64
	var count int64
	for _, d := range rs.recentPartitionRuntimes {
		if d > 0 {
			total += d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// Snapshot returns a copy of the current statistics
func (rs *RunStatistics) Snapshot() Snapshot {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return Snapshot{
		StartTime:               rs.startTime,
		Runtime:                 rs.runtime(),
		SampleRuntime:           time.Duration(rs.phaseRuntimes[SamplePhase]),
		InvokeRuntime:           time.Duration(rs.phaseRuntimes[InvokePhase]),
		RowsSampled:             rs.rowsInvoked[SamplePhase],
		RowsProcessed:           rs.rowsInvoked[InvokePhase],
		PartitionsProcessed:     rs.partitionsProcessed,
		CorruptRows:             rs.corruptRows,
		CacheHits:               rs.cacheHits,
		CacheMisses:             rs.cacheMisses,
		AveragePartitionRuntime: rs.averagePartitionRuntime(),
	}
}

package stats

import (
	"sync"
	"time"
)

// RunStatistics contains statistics about a running Job
type RunStatistics struct {
	lock                  sync.Mutex
	started               bool
	finished              bool
	startTime             time.Time
	totalRuntime          int64
	stagePlatforms        []string
	stageRuntimes         []int64 // runtime of each Stage, in nanoseconds
	operatorsProcessed    []int64 // number of Operators run, counted by Stage
	currentStageStartTime time.Time
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start(numStages int) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
		rs.stagePlatforms = make([]string, numStages)
		rs.stageRuntimes = make([]int64, numStages)
		rs.operatorsProcessed = make([]int64, numStages)
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.finished = true
	rs.totalRuntime = time.Since(rs.startTime).Nanoseconds()
}

// StartStage tracks the beginning of a new Stage
func (rs *RunStatistics) StartStage(sidx int, platform string) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.stagePlatforms[sidx] = platform
	rs.currentStageStartTime = time.Now()
}

// EndStage tracks the end of a Stage
func (rs *RunStatistics) EndStage(sidx int, numOperators int) time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	elapsed := time.Since(rs.currentStageStartTime)
	rs.stageRuntimes[sidx] = elapsed.Nanoseconds()
	rs.operatorsProcessed[sidx] += int64(numOperators)
	return elapsed
}

// GetStartTime returns the start time of the Job
func (rs *RunStatistics) GetStartTime() time.Time {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.startTime
}

// GetRuntime returns the running time of the Job
func (rs *RunStatistics) GetRuntime() time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if rs.finished {
		return time.Duration(rs.totalRuntime)
	}
	return time.Since(rs.startTime)
}

// GetNumOperatorsProcessed returns the number of Operators which have been run so far, counted by Stage
func (rs *RunStatistics) GetNumOperatorsProcessed() []int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return append([]int64(nil), rs.operatorsProcessed...)
}

// GetStagePlatforms returns the platform of every Stage which has started
func (rs *RunStatistics) GetStagePlatforms() []string {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return append([]string(nil), rs.stagePlatforms...)
}

// GetStageRuntimes returns all recorded Stage runtimes
func (rs *RunStatistics) GetStageRuntimes() []time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	res := make([]time.Duration, len(rs.stageRuntimes))
	for i, r := range rs.stageRuntimes {
		res[i] = time.Duration(r)
	}
	return res
}

// EnumerationStatistics contains statistics about one plan enumeration. It is only used by the
// goroutine running the enumeration.
type EnumerationStatistics struct {
	startTime    time.Time
	totalRuntime time.Duration
	steps        int
	candidates   int
	rejections   int
	stepRuntimes []time.Duration
	stepStart    time.Time
}

// Start triggers statistics tracking
func (es *EnumerationStatistics) Start() {
	es.startTime = time.Now()
}

// Finish completes statistics tracking
func (es *EnumerationStatistics) Finish() time.Duration {
	es.totalRuntime = time.Since(es.startTime)
	return es.totalRuntime
}

// StartStep tracks the beginning of an enumeration step
func (es *EnumerationStatistics) StartStep() {
	es.stepStart = time.Now()
}

// EndStep tracks the end of an enumeration step which applied a replacement
func (es *EnumerationStatistics) EndStep() {
	es.steps++
	es.stepRuntimes = append(es.stepRuntimes, time.Since(es.stepStart))
}

// AddCandidates records costed candidates
func (es *EnumerationStatistics) AddCandidates(n int) {
	es.candidates += n
}

// AddRejection records a discarded candidate
func (es *EnumerationStatistics) AddRejection() {
	es.rejections++
}

// Merge adds the counts of a nested enumeration, e.g. of a loop body
func (es *EnumerationStatistics) Merge(nested *EnumerationStatistics) {
	es.steps += nested.steps
	es.candidates += nested.candidates
	es.rejections += nested.rejections
	es.stepRuntimes = append(es.stepRuntimes, nested.stepRuntimes...)
}

// GetRuntime returns the duration of the enumeration
func (es *EnumerationStatistics) GetRuntime() time.Duration {
	return es.totalRuntime
}

// GetSteps returns the number of replacements applied
func (es *EnumerationStatistics) GetSteps() int {
	return es.steps
}

// GetCandidates returns the number of candidates costed
func (es *EnumerationStatistics) GetCandidates() int {
	return es.candidates
}

// GetRejections returns the number of candidates discarded
func (es *EnumerationStatistics) GetRejections() int {
	return es.rejections
}

// GetStepRuntimes returns the duration of every applied step
func (es *EnumerationStatistics) GetStepRuntimes() []time.Duration {
	return append([]time.Duration(nil), es.stepRuntimes...)
}

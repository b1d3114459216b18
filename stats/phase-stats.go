package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cevaris/ordered_map"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
)

// StatsFetcher supplies per step stats in the order the steps ran.
type StatsFetcher interface {
	GetStats() []Stats
}

// LogStepStats logs one line per step at debug level.
func LogStepStats(log logger.Logger, f StatsFetcher) {
	for _, s := range f.GetStats() {
		log.Debug(s)
	}
}

// PhaseStats collects the StepWatchers of one phase (e.g. the COPY phase) in the order
// they were added, plus a latency histogram of the completed steps.
type PhaseStats struct {
	mu           sync.Mutex
	log          logger.Logger
	phaseName    string
	histogram    *hdrhistogram.Histogram
	mapStepStats *ordered_map.OrderedMap // StepWatcher per step name
	succeeded    int
	failed       int
}

// Summary is the outcome of one phase.
type Summary struct {
	Phase     string  `json:"phase"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	P50Millis int64   `json:"p50Millis"`
	P95Millis int64   `json:"p95Millis"`
	MaxMillis int64   `json:"maxMillis"`
	Steps     []Stats `json:"steps,omitempty"`
}

func NewPhaseStats(log logger.Logger, phaseName string) *PhaseStats {
	return &PhaseStats{
		log:       log,
		phaseName: phaseName,
		histogram: hdrhistogram.New(
			constants.StatsHistogramMinMillis,
			constants.StatsHistogramMaxMillis,
			constants.StatsHistogramSignificantFigures),
		mapStepStats: ordered_map.NewOrderedMap(),
	}
}

// AddStepWatcher creates a StepWatcher and saves it under stepName.
// A step that is added twice replaces the earlier watcher.
func (p *PhaseStats) AddStepWatcher(stepName string) *StepWatcher {
	p.mu.Lock()
	defer p.mu.Unlock()
	sw := NewStepWatcher(stepName)
	p.mapStepStats.Set(stepName, sw)
	return sw
}

// RecordSuccess adds the elapsed time of a completed step to the histogram.
func (p *PhaseStats) RecordSuccess(elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.succeeded++
	p.recordLatency(elapsed)
}

// RecordFailure counts a failed step.
func (p *PhaseStats) RecordFailure(elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
	p.recordLatency(elapsed)
}

func (p *PhaseStats) recordLatency(elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	if ms < constants.StatsHistogramMinMillis {
		ms = constants.StatsHistogramMinMillis
	} else if ms > constants.StatsHistogramMaxMillis {
		ms = constants.StatsHistogramMaxMillis
	}
	if err := p.histogram.RecordValue(ms); err != nil {
		p.log.Debug("unable to record latency ", ms, "ms: ", err)
	}
}

// Summary returns counts and latency percentiles so far.
func (p *PhaseStats) Summary() Summary {
	steps := p.GetStats()
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Summary{Phase: p.phaseName, Succeeded: p.succeeded, Failed: p.failed}
	if len(steps) > 0 {
		s.Steps = steps
	}
	if p.histogram.TotalCount() > 0 {
		s.P50Millis = p.histogram.ValueAtQuantile(50)
		s.P95Millis = p.histogram.ValueAtQuantile(95)
		s.MaxMillis = p.histogram.Max()
	}
	return s
}

// LogSummary logs the summary at info level, or warn level when any step failed,
// followed by the stats of each step at debug level.
func (p *PhaseStats) LogSummary() Summary {
	s := p.Summary()
	defer LogStepStats(p.log, p)
	if s.Failed > 0 {
		p.log.Warn(constants.EmojiBang, " ", s.String())
	} else {
		p.log.Info(s.String())
	}
	return s
}

// GetStats implements interface StatsFetcher{}.
func (p *PhaseStats) GetStats() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	iter := p.mapStepStats.IterFunc()
	statsList := make([]Stats, 0)
	for kv, ok := iter(); ok; kv, ok = iter() { // for each step in the order added...
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}

func (s Summary) String() string {
	return fmt.Sprintf("%v: %v succeeded, %v failed, latency p50=%vms p95=%vms max=%vms",
		s.Phase, s.Succeeded, s.Failed, s.P50Millis, s.P95Millis, s.MaxMillis)
}

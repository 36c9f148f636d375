package metrics

import (
	"sync"

	"quantsim/internal/ports"
)

// Entry is one logged batch of metric values.
type Entry struct {
	Results ports.MetricResults
	Info    ports.RunInfo
}

// MemoryLogger records metric results in memory. It is the one sink that
// may be shared between concurrent runs, so every access is mutex-guarded.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger returns an empty in-memory metrics sink.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log appends the results. The map is copied so later reuse by the caller
// cannot corrupt recorded history.
func (l *MemoryLogger) Log(results ports.MetricResults, info ports.RunInfo) {
	cp := make(ports.MetricResults, len(results))
	for name, value := range results {
		cp[name] = value
	}
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Results: cp, Info: info})
	l.mu.Unlock()
}

func (l *MemoryLogger) Start(ports.Phase) {}
func (l *MemoryLogger) End(ports.Phase)   {}

// Reset discards all recorded entries.
func (l *MemoryLogger) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// History returns a copy of the entries recorded for one run, in log order.
func (l *MemoryLogger) History(runID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Info.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

// Series returns the values of one metric for one run, in log order.
func (l *MemoryLogger) Series(runID, metric string) []float64 {
	var out []float64
	for _, e := range l.History(runID) {
		if v, ok := e.Results[metric]; ok {
			out = append(out, v)
		}
	}
	return out
}

var _ ports.MetricsLogger = (*MemoryLogger)(nil)

package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/ports"
)

func TestMemoryLogger_HistoryAndSeries(t *testing.T) {
	l := NewMemoryLogger()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for step := 1; step <= 3; step++ {
		l.Log(ports.MetricResults{"account.equity": 10000 + float64(step)}, ports.RunInfo{
			RunID: "run-a",
			Phase: ports.PhaseMain,
			Step:  step,
			Time:  base.Add(time.Duration(step) * time.Minute),
		})
	}
	l.Log(ports.MetricResults{"account.equity": 500}, ports.RunInfo{RunID: "run-b", Step: 1})

	history := l.History("run-a")
	require.Len(t, history, 3)
	for i, e := range history {
		assert.Equal(t, "run-a", e.Info.RunID)
		assert.Equal(t, i+1, e.Info.Step, "history must preserve log order")
	}

	assert.Equal(t, []float64{10001, 10002, 10003}, l.Series("run-a", "account.equity"))
	assert.Equal(t, []float64{500}, l.Series("run-b", "account.equity"))
	assert.Nil(t, l.Series("run-a", "no.such.metric"))
	assert.Nil(t, l.History("run-c"))
}

func TestMemoryLogger_CopiesResults(t *testing.T) {
	l := NewMemoryLogger()
	results := ports.MetricResults{"account.equity": 100}
	l.Log(results, ports.RunInfo{RunID: "run-a", Step: 1})

	// Mutating the caller's map after Log must not change recorded history.
	results["account.equity"] = -1
	assert.Equal(t, []float64{100}, l.Series("run-a", "account.equity"))
}

func TestMemoryLogger_Reset(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(ports.MetricResults{"account.equity": 1}, ports.RunInfo{RunID: "run-a", Step: 1})
	require.Len(t, l.History("run-a"), 1)

	l.Reset()
	assert.Nil(t, l.History("run-a"))
}

func TestMemoryLogger_ConcurrentLog(t *testing.T) {
	l := NewMemoryLogger()

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", w)
			for step := 1; step <= perWriter; step++ {
				l.Log(ports.MetricResults{"account.trades": float64(step)}, ports.RunInfo{RunID: runID, Step: step})
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < writers; w++ {
		runID := fmt.Sprintf("run-%d", w)
		history := l.History(runID)
		require.Len(t, history, perWriter)
		for i, e := range history {
			assert.Equal(t, i+1, e.Info.Step, "per-run entries must stay in log order")
		}
	}
}

// control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	mr := NewMetricsRegistry()
	assert.Zero(t, mr.Get(MetricAccepted))
	assert.True(t, mr.Updated().IsZero())

	mr.Add(MetricAccepted, 2)
	mr.Add(MetricAccepted, 1)
	mr.Set(MetricActive, 5)
	mr.Set(MetricActive, 4)

	assert.Equal(t, int64(3), mr.Get(MetricAccepted))
	assert.Equal(t, map[string]int64{MetricAccepted: 3, MetricActive: 4}, mr.GetSnapshot())
	assert.False(t, mr.Updated().IsZero())

	snap := mr.GetSnapshot()
	snap[MetricAccepted] = 100
	assert.Equal(t, int64(3), mr.Get(MetricAccepted), "snapshot is a copy")
}

func TestMetricsRegistry_Concurrent(t *testing.T) {
	mr := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				mr.Add(MetricBytesIn, 1)
				_ = mr.GetSnapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(8000), mr.Get(MetricBytesIn))
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	dp.RegisterProbe("answer", func() any { return 43 })

	state := dp.DumpState()
	assert.Equal(t, 43, state["answer"])
	assert.Contains(t, state, "platform.cpus")
}

package monitor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	limit := uint64(100 * types.MB)
	assert.Equal(t, Normal, Classify(10*types.MB, limit))
	assert.Equal(t, Notice, Classify(60*types.MB, limit))
	assert.Equal(t, Warning, Classify(75*types.MB, limit))
	assert.Equal(t, Critical, Classify(95*types.MB, limit))
	assert.Equal(t, Normal, Classify(95*types.MB, 0))
}

func TestCriticalCallback(t *testing.T) {
	calls := 0
	m := &Memory{
		Limit:      100,
		OnCritical: func() { calls++ },
		readStats:  func(s *runtime.MemStats) { s.Alloc = 99 },
	}

	var last runtime.MemStats
	for i := 0; i < 2; i++ {
		last = m.check(last)
	}
	assert.Equal(t, 0, calls)
	m.check(last)
	assert.Equal(t, 1, calls)

	// 回落之后重新计数
	m.readStats = func(s *runtime.MemStats) { s.Alloc = 10 }
	m.check(last)
	assert.Equal(t, 0, m.critical)
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		(&Memory{Interval: 5 * time.Millisecond, Limit: types.GB}).Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

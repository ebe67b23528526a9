package monitor

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/types"
)

// Level 内存使用所处的区间
type Level int

const (
	Normal Level = iota
	Notice
	Warning
	Critical
)

func (l Level) String() string {
	switch l {
	case Notice:
		return "notice"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	}
	return "normal"
}

// Classify 按 limit 的 50%、70%、90% 划分区间
func Classify(alloc, limit uint64) Level {
	switch {
	case limit == 0:
		return Normal
	case float64(alloc) > float64(limit)*0.9:
		return Critical
	case float64(alloc) > float64(limit)*0.7:
		return Warning
	case float64(alloc) > float64(limit)*0.5:
		return Notice
	}
	return Normal
}

// Memory 周期性记录内存使用，接近上限时主动回收
type Memory struct {
	Limit    uint64
	Interval time.Duration
	// 连续 3 次处于 Critical 时调用
	OnCritical func()

	readStats func(*runtime.MemStats)
	lastGC    time.Time
	critical  int
}

func (m *Memory) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last runtime.MemStats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = m.check(last)
		}
	}
}

func (m *Memory) check(last runtime.MemStats) runtime.MemStats {
	read := m.readStats
	if read == nil {
		read = runtime.ReadMemStats
	}
	var s runtime.MemStats
	read(&s)

	logger := log.Named("monitor")
	growth := 0.0
	if last.Alloc > 0 {
		growth = (float64(s.Alloc) - float64(last.Alloc)) / float64(last.Alloc) * 100
	}
	level := Classify(s.Alloc, m.Limit)
	fields := []interface{}{
		"level", level.String(),
		"alloc_mb", s.Alloc / types.MB,
		"sys_mb", s.Sys / types.MB,
		"num_gc", s.NumGC,
		"growth_pct", growth,
	}

	switch level {
	case Critical:
		logger.Warnw("Memory usage critical, forcing GC", fields...)
		runtime.GC()
		debug.FreeOSMemory()
		m.critical++
		if m.critical >= 3 && m.OnCritical != nil {
			logger.Warn("Memory consistently high")
			m.OnCritical()
			m.critical = 0
		}
	case Warning:
		logger.Infow("Memory usage high", fields...)
		m.critical = 0
		if time.Since(m.lastGC) > 30*time.Second {
			runtime.GC()
			m.lastGC = time.Now()
		}
	default:
		logger.Debugw("Memory usage", fields...)
		m.critical = 0
	}
	return s
}

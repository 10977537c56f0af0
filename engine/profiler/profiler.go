package profiler

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	log            logrus.FieldLogger
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler reporting to log every interval.
// A non-positive interval defaults to 1 second.
//
// Parameters:
//   - log: the logger stats are written to
//   - interval: the reporting interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(log logrus.FieldLogger, interval time.Duration) *Profiler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		log:            log,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - fields: extra fields attached to the stats entry, may be nil
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(fields logrus.Fields) bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.log.WithFields(fields).WithFields(logrus.Fields{
		"fps":           fps,
		"heap_mb":       allocMB,
		"alloc_rate_mb": allocRateMB,
		"gc":            gcCount,
		"gc_last_us":    lastPauseUs,
		"gc_max_us":     maxPauseUs,
		"sys_mb":        sysMB,
	}).Info("profiler")

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

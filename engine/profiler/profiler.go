package profiler

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
)

// sectionStat accumulates one named profiling section across frames.
type sectionStat struct {
	total time.Duration
	count int
	depth int
}

// Profiler tracks frame rate, memory statistics, and per-pass section timings.
// Logs stats to the log at a configurable interval and produces a text report
// for benchmark runs.
// Thread-safe for concurrent access.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	fps            float64

	sections     map[string]*sectionStat
	sectionOrder []string

	benchmarking bool
	benchStart   time.Time
	benchFrames  int
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		sections:       make(map[string]*sectionStat),
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	if p.benchmarking {
		p.benchFrames++
	}
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed >= p.updateInterval {
		p.fps = float64(p.frameCount) / elapsed.Seconds()

		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024

		// Calculate allocation rate (MB/sec)
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		// Calculate GC pause stats (last pause and max recent pause)
		gcCount := p.memStats.NumGC
		var lastPauseUs, maxPauseUs uint64
		if gcCount > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			// Find max pause since last tick
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

		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			p.fps, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

		p.frameCount = 0
		p.lastTime = currentTime
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
		return true
	}

	return false
}

// FPS returns the most recently computed frame rate.
//
// Returns:
//   - float64: frames per second over the last update interval
func (p *Profiler) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps
}

// Record accumulates the profiling sections recorded on a submitted command
// stream. Call once per stream per frame.
//
// Parameters:
//   - sections: the closed sections from a CommandStream
func (p *Profiler) Record(sections []renderer.Section) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range sections {
		stat, ok := p.sections[s.Label]
		if !ok {
			stat = &sectionStat{depth: s.Depth}
			p.sections[s.Label] = stat
			p.sectionOrder = append(p.sectionOrder, s.Label)
		}
		stat.total += s.Duration
		stat.count++
	}
}

// ResetSections clears the accumulated section timings, e.g. after a pipeline
// rebuild changes the active pass set.
func (p *Profiler) ResetSections() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sections = make(map[string]*sectionStat)
	p.sectionOrder = nil
}

// BeginBenchmark starts a benchmark measurement window. Section timings reset
// so the report covers only the benchmark run.
func (p *Profiler) BeginBenchmark() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.benchmarking = true
	p.benchStart = time.Now()
	p.benchFrames = 0
	p.sections = make(map[string]*sectionStat)
	p.sectionOrder = nil
}

// EndBenchmark closes the benchmark window and returns a text report: total
// duration, frame count, average frame rate, and per-section average encode
// times sorted by cost.
//
// Returns:
//   - string: the benchmark report, empty if no benchmark was running
func (p *Profiler) EndBenchmark() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.benchmarking {
		return ""
	}
	p.benchmarking = false

	elapsed := time.Since(p.benchStart)
	avgFPS := 0.0
	if elapsed > 0 {
		avgFPS = float64(p.benchFrames) / elapsed.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Benchmark: %d frames in %.2fs (%.2f FPS average)\n", p.benchFrames, elapsed.Seconds(), avgFPS)

	labels := make([]string, len(p.sectionOrder))
	copy(labels, p.sectionOrder)
	sort.Slice(labels, func(i, j int) bool {
		return p.sections[labels[i]].total > p.sections[labels[j]].total
	})
	for _, label := range labels {
		stat := p.sections[label]
		avg := stat.total / time.Duration(max(stat.count, 1))
		fmt.Fprintf(&b, "  %s%-24s %8.3f ms avg (%d samples)\n",
			strings.Repeat("  ", stat.depth), label, float64(avg.Microseconds())/1000, stat.count)
	}
	return b.String()
}

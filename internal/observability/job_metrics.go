package observability

import (
	"sync/atomic"
	"time"
)

// JobMetrics keeps per-process worker counters for the worker's /statz
// endpoint and mirrors every outcome into Prometheus when prom is set.
type JobMetrics struct {
	prom *Prom

	claimed atomic.Uint64
	done    atomic.Uint64
	failed  atomic.Uint64
	retried atomic.Uint64
	skipped atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewJobMetrics(prom *Prom) *JobMetrics {
	return &JobMetrics{prom: prom}
}

func (m *JobMetrics) IncClaimed() {
	m.claimed.Add(1)
}

func (m *JobMetrics) Started() {
	if m.prom != nil {
		m.prom.JobsInFlight.Inc()
	}
}

// Finished records one job outcome: done, retry, failed or skipped.
func (m *JobMetrics) Finished(jobType, result string, d time.Duration) {
	switch result {
	case "done":
		m.done.Add(1)
	case "retry":
		m.retried.Add(1)
	case "failed":
		m.failed.Add(1)
	case "skipped":
		m.skipped.Add(1)
	}

	m.observeDuration(d)

	if m.prom != nil {
		m.prom.JobsInFlight.Dec()
		m.prom.JobResults.WithLabelValues(jobType, result).Inc()
		m.prom.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
	}
}

func (m *JobMetrics) observeDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type JobMetricsSnapShot struct {
	Claimed         uint64        `json:"claimed"`
	Done            uint64        `json:"done"`
	Failed          uint64        `json:"failed"`
	Retried         uint64        `json:"retried"`
	Skipped         uint64        `json:"skipped"`
	DurationCount   uint64        `json:"durationCount"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapShot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return JobMetricsSnapShot{
		Claimed:         m.claimed.Load(),
		Done:            m.done.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		Skipped:         m.skipped.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}

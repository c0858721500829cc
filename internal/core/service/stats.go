package service

import (
	"sync"
	"time"
)

// Stats keeps rolling query statistics. Every execution mutates the counters
// concurrently, so all access goes through the mutex.
type Stats struct {
	mu           sync.Mutex
	total        int64
	failures     int64
	rejections   int64
	fallbacks    int64
	avgLatencyMS float64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Total        int64   `json:"total_queries"`
	Failures     int64   `json:"failed_queries"`
	Rejections   int64   `json:"unsafe_rejections"`
	Fallbacks    int64   `json:"fallbacks_used"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Record folds one execution into the counters using a running average.
func (s *Stats) Record(took time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if failed {
		s.failures++
	}
	ms := float64(took.Milliseconds())
	s.avgLatencyMS += (ms - s.avgLatencyMS) / float64(s.total)
}

// RecordRejection counts a query refused by the safety validator.
func (s *Stats) RecordRejection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections++
}

// RecordFallback counts an orchestrator fallback that was used.
func (s *Stats) RecordFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbacks++
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Total:        s.total,
		Failures:     s.failures,
		Rejections:   s.rejections,
		Fallbacks:    s.fallbacks,
		AvgLatencyMS: s.avgLatencyMS,
	}
}

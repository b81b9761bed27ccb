package commit

import (
	"sync"
	"time"
)

const commitSamplesDefault = 64

// Sample records the outcome of one TryCommit call.
type Sample struct {
	Timestamp     int64  `json:"ts"`
	TransactionID string `json:"transactionId,omitempty"`
	Status        string `json:"status"`
	Generation    uint64 `json:"generation"`
	Attempts      int    `json:"attempts"`
	Conflicts     int    `json:"conflicts"`
	DurationUs    int64  `json:"durationUs"`
}

// SampleBuffer stores recent commit samples in a ring buffer.
type SampleBuffer struct {
	mu      sync.RWMutex
	samples []Sample
	index   int
	count   int
	failed  int
}

// NewSampleBuffer creates a buffer holding up to capacity samples.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		capacity = commitSamplesDefault
	}
	return &SampleBuffer{samples: make([]Sample, capacity)}
}

// Capacity returns the buffer capacity.
func (b *SampleBuffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Add stores a sample.
func (b *SampleBuffer) Add(s Sample) {
	b.mu.Lock()
	b.samples[b.index] = s
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	if s.Status == StatusFailed.String() {
		b.failed++
	}
	b.mu.Unlock()
}

// Failed returns how many failed commits were recorded since creation.
func (b *SampleBuffer) Failed() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failed
}

// Snapshot returns samples in chronological order.
func (b *SampleBuffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	result := make([]Sample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}
	return result
}

func sampleFrom(r Result, at time.Time) Sample {
	return Sample{
		Timestamp:     at.UnixMilli(),
		TransactionID: r.TransactionID,
		Status:        r.Status.String(),
		Generation:    r.Generation,
		Attempts:      r.Attempts,
		Conflicts:     r.Conflicts,
		DurationUs:    r.Elapsed.Microseconds(),
	}
}

package drtp

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// TransferStats accumulates the counters of one transfer. The clock runs
// from the first accounted payload to Finish, so handshake latency never
// inflates the throughput figure.
type TransferStats struct {
	bytes       atomic.Uint64
	packets     atomic.Uint64
	duplicates  atomic.Uint64
	retransmits atomic.Uint64

	mu    sync.Mutex
	start time.Time
	end   time.Time
}

func NewTransferStats() *TransferStats {
	return &TransferStats{}
}

// Account records one delivered payload, starting the transfer clock on
// the first call.
func (s *TransferStats) Account(payloadLen int) {
	s.mu.Lock()
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.mu.Unlock()
	s.bytes.Add(uint64(payloadLen))
	s.packets.Inc()
}

// Duplicate records a redundant arrival, out of order or already seen.
func (s *TransferStats) Duplicate() {
	s.duplicates.Inc()
}

// Retransmit records n packets sent again.
func (s *TransferStats) Retransmit(n int) {
	s.retransmits.Add(uint64(n))
}

// Finish stops the transfer clock.
func (s *TransferStats) Finish() {
	s.mu.Lock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
	s.mu.Unlock()
}

func (s *TransferStats) Bytes() uint64 {
	return s.bytes.Load()
}

func (s *TransferStats) Packets() uint64 {
	return s.packets.Load()
}

func (s *TransferStats) Duplicates() uint64 {
	return s.duplicates.Load()
}

func (s *TransferStats) Retransmits() uint64 {
	return s.retransmits.Load()
}

// Elapsed is the span from the first accounted payload to Finish, or to
// now while the transfer is still running.
func (s *TransferStats) Elapsed() time.Duration {
	s.mu.Lock()
	start, end := s.start, s.end
	s.mu.Unlock()
	if start.IsZero() {
		return 0
	}
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(start)
}

// ThroughputMbps reports the transfer rate in megabits per second,
// payload bits over the elapsed span scaled by 2^20.
func (s *TransferStats) ThroughputMbps() float64 {
	seconds := s.Elapsed().Seconds()
	if seconds <= 0 {
		seconds = 1e-6
	}
	bits := float64(s.bytes.Load()) * 8
	return bits / (seconds * 1024 * 1024)
}

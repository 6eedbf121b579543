package drtp

// Seq is a DRTP sequence number. Arithmetic wraps modulo 2^16, so all
// ordering checks go through the modular helpers below, never a naive
// comparison. The helpers stay meaningful as long as the compared values
// are within half the sequence space of each other, which the bounded
// window guarantees.
type Seq uint16

// Next returns the sequence number following s.
func (s Seq) Next() Seq {
	return s + 1
}

// Add returns s advanced by n.
func (s Seq) Add(n uint16) Seq {
	return s + Seq(n)
}

// Before reports whether s precedes t in modular order.
func (s Seq) Before(t Seq) bool {
	return int16(s-t) < 0
}

// After reports whether s follows t in modular order.
func (s Seq) After(t Seq) bool {
	return t.Before(s)
}

// InRange reports whether s lies in the inclusive window [lo, hi]. The
// window may straddle the wraparound boundary.
func (s Seq) InRange(lo, hi Seq) bool {
	return uint16(s-lo) <= uint16(hi-lo)
}

// Diff returns the modular distance from lo up to s.
func (s Seq) Diff(lo Seq) uint16 {
	return uint16(s - lo)
}

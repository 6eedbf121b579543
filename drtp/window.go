package drtp

type windowEntry struct {
	seq     Seq
	payload []byte
}

// SendWindow is the sender's ring of in-flight packets. It retains each
// payload until its cumulative acknowledgment, so retransmission never
// rereads the source. Entries hold consecutive sequence numbers; the
// oldest one is the window base. The send loop is the only user, so the
// ring carries no lock.
type SendWindow struct {
	head    int
	tail    int
	count   int
	entries []windowEntry
}

// NewSendWindow builds a ring of the given capacity, at least 1.
func NewSendWindow(capacity int) *SendWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SendWindow{entries: make([]windowEntry, capacity)}
}

// Push records one transmitted packet. It reports false on a full window.
func (w *SendWindow) Push(seq Seq, payload []byte) bool {
	if w.Full() {
		return false
	}
	w.entries[w.tail] = windowEntry{seq: seq, payload: payload}
	w.tail = (w.tail + 1) % len(w.entries)
	w.count++
	return true
}

func (w *SendWindow) Empty() bool {
	return w.count == 0
}

func (w *SendWindow) Full() bool {
	return w.count == len(w.entries)
}

func (w *SendWindow) Len() int {
	return w.count
}

// Base returns the oldest in-flight sequence number.
func (w *SendWindow) Base() (Seq, bool) {
	if w.Empty() {
		return 0, false
	}
	return w.entries[w.head].seq, true
}

// Ack applies a cumulative acknowledgment: every entry with a sequence
// number up to and including ack is released. The base never regresses.
// It returns the number of released entries, 0 when ack lies outside the
// in-flight range.
func (w *SendWindow) Ack(ack Seq) int {
	if w.Empty() {
		return 0
	}
	base := w.entries[w.head].seq
	last := base.Add(uint16(w.count - 1))
	if !ack.InRange(base, last) {
		return 0
	}
	n := int(ack.Diff(base)) + 1
	for i := 0; i < n; i++ {
		w.entries[w.head] = windowEntry{}
		w.head = (w.head + 1) % len(w.entries)
	}
	w.count -= n
	return n
}

// Each visits the in-flight packets oldest first.
func (w *SendWindow) Each(fn func(seq Seq, payload []byte)) {
	for i, n := w.head, 0; n < w.count; i, n = (i+1)%len(w.entries), n+1 {
		fn(w.entries[i].seq, w.entries[i].payload)
	}
}

// Seqs lists the in-flight sequence numbers oldest first.
func (w *SendWindow) Seqs() []Seq {
	out := make([]Seq, 0, w.count)
	w.Each(func(seq Seq, _ []byte) {
		out = append(out, seq)
	})
	return out
}

package drtp

import (
	"bytes"
	"testing"
)

func TestSendWindowFill(t *testing.T) {
	w := NewSendWindow(3)
	if !w.Empty() || w.Full() {
		t.Error("fresh window should be empty")
	}
	for seq := Seq(1); seq <= 3; seq++ {
		if !w.Push(seq, []byte{byte(seq)}) {
			t.Fatalf("push of seq %d rejected", seq)
		}
	}
	if !w.Full() || w.Len() != 3 {
		t.Errorf("window should be full, len = %d", w.Len())
	}
	if w.Push(4, []byte{4}) {
		t.Error("push into a full window succeeded")
	}
	if base, ok := w.Base(); !ok || base != 1 {
		t.Errorf("base = %d, want 1", base)
	}
}

func TestSendWindowCumulativeAck(t *testing.T) {
	w := NewSendWindow(3)
	for seq := Seq(1); seq <= 3; seq++ {
		w.Push(seq, []byte{byte(seq)})
	}
	if n := w.Ack(2); n != 2 {
		t.Errorf("Ack(2) released %d, want 2", n)
	}
	if base, _ := w.Base(); base != 3 {
		t.Errorf("base after Ack(2) = %d, want 3", base)
	}
	if n := w.Ack(1); n != 0 {
		t.Errorf("stale Ack(1) released %d, want 0", n)
	}
	if n := w.Ack(7); n != 0 {
		t.Errorf("Ack(7) beyond the window released %d, want 0", n)
	}
	if w.Len() != 1 {
		t.Errorf("len = %d, want 1", w.Len())
	}
	if n := w.Ack(3); n != 1 {
		t.Errorf("Ack(3) released %d, want 1", n)
	}
	if !w.Empty() {
		t.Error("window should be empty")
	}
	if n := w.Ack(3); n != 0 {
		t.Errorf("Ack on an empty window released %d, want 0", n)
	}
}

func TestSendWindowEachOrder(t *testing.T) {
	w := NewSendWindow(4)
	for seq := Seq(10); seq <= 13; seq++ {
		w.Push(seq, []byte{byte(seq)})
	}
	w.Ack(11)
	w.Push(14, []byte{14})

	var seqs []Seq
	var payload []byte
	w.Each(func(seq Seq, p []byte) {
		seqs = append(seqs, seq)
		payload = append(payload, p...)
	})
	want := []Seq{12, 13, 14}
	if len(seqs) != len(want) {
		t.Fatalf("visited %v, want %v", seqs, want)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("visited %v, want %v", seqs, want)
		}
	}
	if !bytes.Equal(payload, []byte{12, 13, 14}) {
		t.Errorf("payloads out of order: %v", payload)
	}
	got := w.Seqs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Seqs() = %v, want %v", got, want)
		}
	}
}

func TestSendWindowSeqWraparound(t *testing.T) {
	w := NewSendWindow(4)
	for _, seq := range []Seq{65534, 65535, 0, 1} {
		if !w.Push(seq, []byte("x")) {
			t.Fatalf("push of seq %d rejected", seq)
		}
	}
	if n := w.Ack(0); n != 3 {
		t.Errorf("Ack(0) across wraparound released %d, want 3", n)
	}
	if base, _ := w.Base(); base != 1 {
		t.Errorf("base = %d, want 1", base)
	}
	if n := w.Ack(1); n != 1 {
		t.Errorf("Ack(1) released %d, want 1", n)
	}
}

func TestSendWindowRingReuse(t *testing.T) {
	w := NewSendWindow(2)
	w.Push(1, []byte{1})
	w.Push(2, []byte{2})
	if n := w.Ack(1); n != 1 {
		t.Fatalf("Ack(1) released %d, want 1", n)
	}
	if !w.Push(3, []byte{3}) {
		t.Fatal("push after release rejected")
	}
	if n := w.Ack(3); n != 2 {
		t.Errorf("cumulative Ack(3) released %d, want 2", n)
	}
	if !w.Empty() {
		t.Error("window should be empty after the ring wrapped")
	}
}

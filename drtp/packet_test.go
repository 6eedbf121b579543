package drtp

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestPacketConstructors(t *testing.T) {
	cases := []struct {
		name  string
		pkt   *Packet
		seq   Seq
		ack   Seq
		flags uint16
	}{
		{"SYN", NewSYN(), 1, 0, FlagSYN},
		{"SYN-ACK", NewSYNACK(1), 1, 2, FlagSYN | FlagACK},
		{"ACK", NewACK(5), 0, 5, FlagACK},
		{"FIN", NewFIN(), 0, 0, FlagFIN},
		{"FIN-ACK", NewFINACK(), 1, 0, FlagFIN | FlagACK},
		{"RST", NewRST(), 0, 0, FlagRST},
	}
	for _, c := range cases {
		if c.pkt.Seq != c.seq || c.pkt.Ack != c.ack || c.pkt.Flags != c.flags {
			t.Errorf("%s = seq %d ack %d flags %#x, want seq %d ack %d flags %#x",
				c.name, c.pkt.Seq, c.pkt.Ack, c.pkt.Flags, c.seq, c.ack, c.flags)
		}
		if len(c.pkt.Payload) != 0 {
			t.Errorf("%s carries %d payload bytes", c.name, len(c.pkt.Payload))
		}
	}
	d := NewData(3, []byte("chunk"))
	if d.Seq != 3 || d.Ack != 0 || !d.IsData() {
		t.Errorf("data packet = seq %d ack %d flags %#x", d.Seq, d.Ack, d.Flags)
	}
}

func TestPacketHeaderLayout(t *testing.T) {
	p := &Packet{Seq: 0x0102, Ack: 0x0304, Flags: FlagACK}
	buf, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x02}
	if !bytes.Equal(buf, want) {
		t.Errorf("header bytes = %x, want %x", buf, want)
	}
}

func TestPacketEncodeDecodeRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, MaxPayloadSize)
	in := NewData(40000, payload)
	buf, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf) != MaxPacketSize {
		t.Fatalf("encoded %d bytes, want %d", len(buf), MaxPacketSize)
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Seq != in.Seq || out.Ack != in.Ack || out.Flags != in.Flags {
		t.Errorf("header mismatch after round trip: %+v", out)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Error("payload mismatch after round trip")
	}
}

func TestDecodeCopiesPayload(t *testing.T) {
	buf, err := NewData(1, []byte("abc")).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	pkt, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	buf[HeaderSize] = 'z'
	if string(pkt.Payload) != "abc" {
		t.Errorf("payload aliases the read buffer: %q", pkt.Payload)
	}
}

func TestPacketValidate(t *testing.T) {
	bad := []struct {
		name string
		pkt  *Packet
	}{
		{"conflicting control flags", &Packet{Flags: FlagSYN | FlagFIN}},
		{"unknown flag bits", &Packet{Flags: 0x10}},
		{"control packet with payload", &Packet{Flags: FlagACK, Payload: []byte("x")}},
		{"data packet without payload", &Packet{}},
		{"oversize payload", &Packet{Seq: 1, Payload: make([]byte, MaxPayloadSize+1)}},
	}
	for _, c := range bad {
		if err := c.pkt.Validate(); !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("%s: Validate = %v, want ErrMalformedPacket", c.name, err)
		}
		if _, err := c.pkt.Encode(); !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("%s: Encode = %v, want ErrMalformedPacket", c.name, err)
		}
	}
	good := []*Packet{
		NewSYN(), NewSYNACK(1), NewACK(0), NewFIN(), NewFINACK(), NewRST(),
		NewData(1, []byte("a")),
		NewData(2, make([]byte, MaxPayloadSize)),
	}
	for _, p := range good {
		if err := p.Validate(); err != nil {
			t.Errorf("valid packet rejected: %v", err)
		}
	}
}

func TestDecodeBounds(t *testing.T) {
	if _, err := Decode([]byte{0, 1, 0, 0, 0}); !errors.Is(err, ErrMalformedPacket) {
		t.Errorf("short datagram: Decode = %v, want ErrMalformedPacket", err)
	}
	if _, err := Decode(make([]byte, MaxPacketSize+1)); !errors.Is(err, ErrMalformedPacket) {
		t.Errorf("oversize datagram: Decode = %v, want ErrMalformedPacket", err)
	}
}

package drtp

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the fixed length of the packet header in bytes.
	HeaderSize = 6
	// MaxPayloadSize bounds the application bytes carried per packet.
	MaxPayloadSize = 994
	// MaxPacketSize bounds a whole datagram on the wire.
	MaxPacketSize = HeaderSize + MaxPayloadSize
)

// Flag bits of the header flags field. SYN, FIN and RST are mutually
// exclusive; ACK may co-occur with any of them.
const (
	FlagFIN uint16 = 1 << iota
	FlagACK
	FlagSYN
	FlagRST
)

// Packet is one DRTP datagram. Data packets carry flags 0 and a non-empty
// payload; control packets carry flags and no payload.
type Packet struct {
	Seq     Seq
	Ack     Seq
	Flags   uint16
	Payload []byte
}

// NewSYN builds the handshake opener.
func NewSYN() *Packet {
	return &Packet{Seq: 1, Ack: 0, Flags: FlagSYN}
}

// NewSYNACK answers a SYN with sequence synSeq.
func NewSYNACK(synSeq Seq) *Packet {
	return &Packet{Seq: 1, Ack: synSeq.Next(), Flags: FlagSYN | FlagACK}
}

// NewACK builds a pure acknowledgment carrying ack. The same shape closes
// the handshake, acknowledges data cumulatively, and answers a FIN-ACK.
func NewACK(ack Seq) *Packet {
	return &Packet{Seq: 0, Ack: ack, Flags: FlagACK}
}

// NewData builds a data packet for one chunk.
func NewData(seq Seq, payload []byte) *Packet {
	return &Packet{Seq: seq, Payload: payload}
}

// NewFIN opens the teardown.
func NewFIN() *Packet {
	return &Packet{Seq: 0, Ack: 0, Flags: FlagFIN}
}

// NewFINACK answers a FIN.
func NewFINACK() *Packet {
	return &Packet{Seq: 1, Ack: 0, Flags: FlagFIN | FlagACK}
}

// NewRST builds the abort packet. It is never retransmitted and never
// acknowledged.
func NewRST() *Packet {
	return &Packet{Flags: FlagRST}
}

// Has reports whether flag is set.
func (p *Packet) Has(flag uint16) bool {
	return p.Flags&flag != 0
}

// IsData reports whether p carries a file chunk.
func (p *Packet) IsData() bool {
	return p.Flags == 0
}

// Validate enforces the flag contract: only known bits, at most one of
// SYN, FIN and RST, payload on data packets only, payload within bounds.
func (p *Packet) Validate() error {
	if p.Flags&^(FlagFIN|FlagACK|FlagSYN|FlagRST) != 0 {
		return errors.Wrapf(ErrMalformedPacket, "unknown flag bits %#x", p.Flags)
	}
	if bits.OnesCount16(p.Flags&(FlagSYN|FlagFIN|FlagRST)) > 1 {
		return errors.Wrapf(ErrMalformedPacket, "conflicting control flags %#x", p.Flags)
	}
	if p.Flags != 0 && len(p.Payload) > 0 {
		return errors.Wrapf(ErrMalformedPacket, "control packet with %d payload bytes", len(p.Payload))
	}
	if p.Flags == 0 && len(p.Payload) == 0 {
		return errors.Wrap(ErrMalformedPacket, "data packet without payload")
	}
	if len(p.Payload) > MaxPayloadSize {
		return errors.Wrapf(ErrMalformedPacket, "payload of %d bytes exceeds %d", len(p.Payload), MaxPayloadSize)
	}
	return nil
}

// Encode serializes p into a fresh buffer, validating it first.
func (p *Packet) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Seq))
	binary.BigEndian.PutUint16(buf[2:4], uint16(p.Ack))
	binary.BigEndian.PutUint16(buf[4:6], p.Flags)
	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// Decode parses one datagram. The payload is copied out of buf, so the
// caller may reuse its read buffer.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, errors.Wrapf(ErrMalformedPacket, "datagram of %d bytes is shorter than the header", len(buf))
	}
	if len(buf) > MaxPacketSize {
		return nil, errors.Wrapf(ErrMalformedPacket, "datagram of %d bytes exceeds %d", len(buf), MaxPacketSize)
	}
	p := &Packet{
		Seq:   Seq(binary.BigEndian.Uint16(buf[0:2])),
		Ack:   Seq(binary.BigEndian.Uint16(buf[2:4])),
		Flags: binary.BigEndian.Uint16(buf[4:6]),
	}
	if len(buf) > HeaderSize {
		p.Payload = make([]byte, len(buf)-HeaderSize)
		copy(p.Payload, buf[HeaderSize:])
	}
	return p, nil
}

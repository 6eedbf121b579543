package drtp

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// DefaultWindowSize is the go-back-n window used when none is configured.
const DefaultWindowSize = 3

// Sender drives the active side of a transfer: connect, stream the
// source through the go-back-n window, tear down once everything is
// acknowledged.
type Sender struct {
	conn   *Conn
	window *SendWindow
	stats  *TransferStats
	log    *EventLog
}

// NewSender wires a sender on conn with the given window size.
func NewSender(conn *Conn, windowSize int, log *EventLog) *Sender {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	return &Sender{
		conn:   conn,
		window: NewSendWindow(windowSize),
		stats:  NewTransferStats(),
		log:    log,
	}
}

func (s *Sender) Stats() *TransferStats {
	return s.stats
}

// SendFile transfers src to the peer. Fatal errors abort the connection
// with an RST instead of a FIN exchange.
func (s *Sender) SendFile(src io.Reader) error {
	if err := s.conn.Connect(); err != nil {
		return err
	}
	if err := s.transfer(src); err != nil {
		s.conn.Abort()
		return err
	}
	return s.conn.CloseActive()
}

// transfer runs the data phase. One retransmission timer covers the
// whole window: armed when the window leaves empty, rearmed when the
// base advances or the window is retransmitted, and disarmed when the
// window drains. ACK reads borrow the timer's remaining time as their
// deadline, so a timeout on the read is exactly a timer expiry.
func (s *Sender) transfer(src io.Reader) error {
	s.log.Infof("data transfer:")
	chunks := NewChunkReader(src, MaxPayloadSize)
	var (
		nextSeq  = Seq(1)
		deadline time.Time
		srcDone  bool
	)
	for {
		for !srcDone && !s.window.Full() {
			payload, err := chunks.Next()
			if err == io.EOF {
				srcDone = true
				break
			}
			if err != nil {
				return err
			}
			if err := s.conn.Send(NewData(nextSeq, payload)); err != nil {
				return err
			}
			if s.window.Empty() {
				deadline = time.Now().Add(s.conn.timeout)
			}
			s.window.Push(nextSeq, payload)
			s.stats.Account(len(payload))
			s.log.Infof("packet with seq = %d is sent, sliding window = %v", nextSeq, s.window.Seqs())
			nextSeq = nextSeq.Next()
		}
		if srcDone && s.window.Empty() {
			s.log.Infof("DATA finished")
			s.log.Debugf("sent %d packets (%d bytes), %d retransmitted",
				s.stats.Packets(), s.stats.Bytes(), s.stats.Retransmits())
			return nil
		}
		pkt, err := s.conn.Recv(deadline)
		if errors.Is(err, ErrSocketTimeout) {
			if err := s.retransmit(&deadline); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		switch {
		case pkt.Has(FlagRST):
			return ErrConnectionReset
		case pkt.Flags == FlagACK:
			if n := s.window.Ack(pkt.Ack); n > 0 {
				s.log.Infof("ACK for packet = %d is received", pkt.Ack)
				if s.window.Empty() {
					deadline = time.Time{}
				} else {
					deadline = time.Now().Add(s.conn.timeout)
				}
			} else {
				// A duplicate ACK for an already released sequence.
				// It must not touch the timer.
				s.log.Debugf("stale ACK for packet = %d ignored", pkt.Ack)
			}
		default:
			s.log.Debugf("ignoring packet with flags %#x during data transfer", pkt.Flags)
		}
	}
}

// retransmit resends every in-flight packet, oldest first, and rearms
// the timer.
func (s *Sender) retransmit(deadline *time.Time) error {
	s.log.Infof("timeout occurred, retransmitting")
	var sendErr error
	resent := 0
	s.window.Each(func(seq Seq, payload []byte) {
		if sendErr != nil {
			return
		}
		if err := s.conn.Send(NewData(seq, payload)); err != nil {
			sendErr = err
			return
		}
		resent++
		s.log.Infof("packet with seq = %d is retransmitted", seq)
	})
	if sendErr != nil {
		return sendErr
	}
	s.stats.Retransmit(resent)
	*deadline = time.Now().Add(s.conn.timeout)
	return nil
}

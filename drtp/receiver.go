package drtp

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Receiver drives the passive side of a transfer: answer the handshake,
// deliver chunks to the sink strictly in order, acknowledge
// cumulatively, answer the FIN and report throughput.
type Receiver struct {
	conn    *Conn
	stats   *TransferStats
	log     *EventLog
	discard int
}

// NewReceiver wires a receiver on conn. A discardSeq >= 0 arms the
// one-shot diagnostic drop of that sequence number; -1 leaves it off.
func NewReceiver(conn *Conn, discardSeq int, log *EventLog) *Receiver {
	return &Receiver{
		conn:    conn,
		stats:   NewTransferStats(),
		log:     log,
		discard: discardSeq,
	}
}

func (r *Receiver) Stats() *TransferStats {
	return r.stats
}

// ReceiveFile accepts one transfer and streams its payload into sink.
// Fatal errors abort the connection with an RST instead of a FIN
// exchange.
func (r *Receiver) ReceiveFile(sink io.Writer) error {
	if err := r.conn.Accept(); err != nil {
		return err
	}
	if err := r.receive(sink); err != nil {
		r.conn.Abort()
		return err
	}
	if err := r.conn.ClosePassive(); err != nil {
		return err
	}
	r.log.Infof("the throughput is %.2f Mbps", r.stats.ThroughputMbps())
	r.log.Infof("connection closes")
	return nil
}

// receive runs the data phase until the FIN arrives. The cursor only
// advances on an exact in-order match; everything else earns a duplicate
// cumulative ACK for the last accepted sequence.
func (r *Receiver) receive(sink io.Writer) error {
	expected := Seq(1)
	for {
		pkt, err := r.conn.Recv(time.Now().Add(r.conn.timeout))
		if errors.Is(err, ErrSocketTimeout) {
			// Silence is a normal poll outcome during the data phase,
			// not the end of the transfer.
			r.log.Debugf("no data within %v, waiting", r.conn.timeout)
			continue
		}
		if err != nil {
			return err
		}
		switch {
		case pkt.Has(FlagRST):
			return ErrConnectionReset
		case pkt.Has(FlagFIN):
			r.log.Infof("FIN packet is received")
			r.stats.Finish()
			return nil
		case pkt.IsData():
			if r.discard >= 0 && Seq(r.discard) == pkt.Seq {
				r.discard = -1
				r.log.Debugf("packet %d discarded once by request", pkt.Seq)
				continue
			}
			r.log.Infof("packet %d is received", pkt.Seq)
			if pkt.Seq == expected {
				if _, err := sink.Write(pkt.Payload); err != nil {
					return errors.WithMessage(ErrSinkWrite, err.Error())
				}
				r.stats.Account(len(pkt.Payload))
				if err := r.conn.Send(NewACK(pkt.Seq)); err != nil {
					return err
				}
				expected = expected.Next()
			} else {
				r.stats.Duplicate()
				last := expected - 1
				if err := r.conn.Send(NewACK(last)); err != nil {
					return err
				}
				r.log.Debugf("out-of-order packet %d, expected %d, ACK %d sent again", pkt.Seq, expected, last)
			}
		default:
			// A strayed handshake ACK or other stale control packet.
			r.log.Debugf("ignoring packet with flags %#x during data transfer", pkt.Flags)
		}
	}
}

package drtp

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds every blocking socket read and doubles as
	// the sender's retransmission timer. Compiled in, not configurable.
	DefaultTimeout = 500 * time.Millisecond

	// Total attempts before a handshake or teardown gives up.
	handshakeAttempts = 3
	teardownAttempts  = 3
)

// State tracks a connection through its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSynSent
	StateSynRcvd
	StateEstablished
	StateFinSent
	StateFinRcvd
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSynSent:
		return "SYN_SENT"
	case StateSynRcvd:
		return "SYN_RCVD"
	case StateEstablished:
		return "ESTABLISHED"
	case StateFinSent:
		return "FIN_SENT"
	case StateFinRcvd:
		return "FIN_RCVD"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one endpoint of a transfer: a UDP socket pinned to a single
// peer, deadline-bounded reads, and the handshake and teardown halves of
// the state machine. A single goroutine owns a Conn for the whole
// transfer, so it carries no lock.
type Conn struct {
	sock    *net.UDPConn
	peer    *net.UDPAddr
	timeout time.Duration
	state   State
	log     *EventLog
	readBuf []byte
}

// Dial opens the active side toward addr. The socket binds an ephemeral
// local port; no packet is sent until Connect.
func Dial(addr string, timeout time.Duration, log *EventLog) (*Conn, error) {
	peer, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	sock, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, errors.Wrap(err, "open udp socket")
	}
	return newConn(sock, peer, timeout, log), nil
}

// Listen opens the passive side on addr. The peer is adopted from the
// first valid SYN during Accept.
func Listen(addr string, timeout time.Duration, log *EventLog) (*Conn, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	sock, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrapf(err, "bind %s", addr)
	}
	return newConn(sock, nil, timeout, log), nil
}

func newConn(sock *net.UDPConn, peer *net.UDPAddr, timeout time.Duration, log *EventLog) *Conn {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Conn{
		sock:    sock,
		peer:    peer,
		timeout: timeout,
		log:     log,
		// One byte over the limit so an oversize datagram arrives
		// intact and is rejected, instead of being truncated.
		readBuf: make([]byte, MaxPacketSize+1),
	}
}

// State reports the connection's current lifecycle state.
func (c *Conn) State() State {
	return c.state
}

// LocalAddr returns the bound socket address.
func (c *Conn) LocalAddr() net.Addr {
	return c.sock.LocalAddr()
}

// Close releases the socket.
func (c *Conn) Close() error {
	return c.sock.Close()
}

// Send encodes and transmits one packet to the peer.
func (c *Conn) Send(p *Packet) error {
	buf, err := p.Encode()
	if err != nil {
		return err
	}
	if c.peer == nil {
		return errors.New("send before the peer is known")
	}
	if _, err := c.sock.WriteToUDP(buf, c.peer); err != nil {
		return errors.Wrap(err, "udp write")
	}
	return nil
}

// Recv returns the next well-formed packet from the peer, dropping
// datagrams from other sources and undecodable ones. ErrSocketTimeout
// reports that the deadline passed first.
func (c *Conn) Recv(deadline time.Time) (*Packet, error) {
	pkt, _, err := c.recvFrom(deadline)
	return pkt, err
}

func (c *Conn) recvFrom(deadline time.Time) (*Packet, *net.UDPAddr, error) {
	for {
		if err := c.sock.SetReadDeadline(deadline); err != nil {
			return nil, nil, errors.Wrap(err, "set read deadline")
		}
		n, from, err := c.sock.ReadFromUDP(c.readBuf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return nil, nil, ErrSocketTimeout
			}
			return nil, nil, errors.Wrap(err, "udp read")
		}
		if c.peer != nil && !sameAddr(from, c.peer) {
			c.log.Debugf("ignoring datagram from %s, transfer peer is %s", from, c.peer)
			continue
		}
		pkt, err := Decode(c.readBuf[:n])
		if err == nil {
			err = pkt.Validate()
		}
		if err != nil {
			c.log.Debugf("dropping datagram from %s: %v", from, err)
			continue
		}
		return pkt, from, nil
	}
}

// Connect runs the active side of the three-way handshake: SYN out, a
// SYN-ACK checked against the expected acknowledgment, pure ACK back.
// The SYN is resent on timeout, a bounded number of attempts in total.
func (c *Conn) Connect() error {
	syn := NewSYN()
	c.state = StateSynSent
	c.log.Infof("connection establishment phase:")
	for attempt := 1; attempt <= handshakeAttempts; attempt++ {
		if err := c.Send(syn); err != nil {
			return err
		}
		c.log.Infof("SYN packet is sent")
		deadline := time.Now().Add(c.timeout)
		for {
			pkt, err := c.Recv(deadline)
			if errors.Is(err, ErrSocketTimeout) {
				c.log.Debugf("no SYN-ACK within %v, attempt %d of %d", c.timeout, attempt, handshakeAttempts)
				break
			}
			if err != nil {
				return err
			}
			if pkt.Has(FlagRST) {
				c.state = StateClosed
				return ErrConnectionReset
			}
			if pkt.Has(FlagSYN) && pkt.Has(FlagACK) && pkt.Ack == syn.Seq.Next() {
				c.log.Infof("SYN-ACK packet is received")
				if err := c.Send(NewACK(pkt.Seq.Next())); err != nil {
					return err
				}
				c.log.Infof("ACK packet is sent")
				c.log.Infof("connection established")
				c.state = StateEstablished
				return nil
			}
			c.log.Debugf("ignoring packet with flags %#x while waiting for SYN-ACK", pkt.Flags)
		}
	}
	c.state = StateClosed
	return ErrHandshakeTimeout
}

// Accept runs the passive side: wait for a SYN in timeout-sized polls,
// answer with SYN-ACK, wait for the closing ACK. A duplicate SYN while
// waiting means the SYN-ACK was lost and is answered again.
func (c *Conn) Accept() error {
	c.log.Infof("server is listening...")
	var synAck *Packet
	for {
		pkt, from, err := c.recvFrom(time.Now().Add(c.timeout))
		if errors.Is(err, ErrSocketTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		switch {
		case pkt.Flags == FlagSYN:
			if c.state == StateIdle {
				c.peer = from
				c.state = StateSynRcvd
				c.log.Infof("SYN packet is received")
				synAck = NewSYNACK(pkt.Seq)
			} else {
				c.log.Debugf("duplicate SYN, answering again")
			}
			if err := c.Send(synAck); err != nil {
				return err
			}
			c.log.Infof("SYN-ACK packet is sent")
		case c.state == StateSynRcvd && pkt.Flags == FlagACK:
			c.log.Infof("ACK packet is received")
			c.log.Infof("connection established")
			c.state = StateEstablished
			return nil
		case pkt.Has(FlagRST):
			c.state = StateClosed
			return ErrConnectionReset
		default:
			c.log.Debugf("ignoring packet with flags %#x during handshake", pkt.Flags)
		}
	}
}

// CloseActive runs the sender's half of the teardown: FIN out, await the
// FIN-ACK, final ACK back. The FIN is resent on timeout; once the
// attempts are exhausted the connection closes unilaterally.
func (c *Conn) CloseActive() error {
	c.log.Infof("connection teardown:")
	c.state = StateFinSent
	fin := NewFIN()
	for attempt := 1; attempt <= teardownAttempts; attempt++ {
		if err := c.Send(fin); err != nil {
			return err
		}
		c.log.Infof("FIN packet is sent")
		deadline := time.Now().Add(c.timeout)
		for {
			pkt, err := c.Recv(deadline)
			if errors.Is(err, ErrSocketTimeout) {
				c.log.Debugf("no FIN-ACK within %v, attempt %d of %d", c.timeout, attempt, teardownAttempts)
				break
			}
			if err != nil {
				return err
			}
			if pkt.Has(FlagRST) {
				c.state = StateClosed
				return ErrConnectionReset
			}
			if pkt.Has(FlagFIN) && pkt.Has(FlagACK) {
				c.log.Infof("FIN-ACK packet is received")
				if err := c.Send(NewACK(pkt.Seq.Next())); err != nil {
					return err
				}
				c.log.Infof("connection closes")
				c.state = StateClosed
				return nil
			}
			// Stale cumulative ACKs may still trickle in here.
			c.log.Debugf("ignoring packet with flags %#x while waiting for FIN-ACK", pkt.Flags)
		}
	}
	c.log.Infof("no FIN-ACK after %d attempts, closing anyway", teardownAttempts)
	c.state = StateClosed
	return nil
}

// ClosePassive answers a received FIN with FIN-ACK, then lingers for a
// grace period so a retransmitted FIN (a lost FIN-ACK) is answered too.
// The peer's final ACK ends the linger early.
func (c *Conn) ClosePassive() error {
	c.state = StateFinRcvd
	finAck := NewFINACK()
	if err := c.Send(finAck); err != nil {
		return err
	}
	c.log.Infof("FIN ACK packet is sent")
	grace := time.Now().Add(2 * c.timeout)
	for {
		pkt, err := c.Recv(grace)
		if errors.Is(err, ErrSocketTimeout) {
			break
		}
		if err != nil {
			c.log.Debugf("read during close grace period: %v", err)
			break
		}
		if pkt.Has(FlagFIN) && !pkt.Has(FlagACK) {
			if err := c.Send(finAck); err != nil {
				break
			}
			c.log.Infof("FIN ACK packet is sent")
			continue
		}
		if pkt.Flags == FlagACK && pkt.Ack == finAck.Seq.Next() {
			c.log.Debugf("final ACK received")
			break
		}
	}
	c.state = StateClosed
	return nil
}

// Abort tears the connection down without a FIN exchange, firing one
// best-effort RST at the peer.
func (c *Conn) Abort() {
	if c.peer != nil && c.state != StateClosed {
		if err := c.Send(NewRST()); err != nil {
			c.log.Debugf("rst send: %v", err)
		} else {
			c.log.Infof("RST packet is sent")
		}
	}
	c.state = StateClosed
}

func sameAddr(a, b *net.UDPAddr) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

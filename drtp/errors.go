package drtp

import "github.com/pkg/errors"

// Transfer error taxonomy. Callers match with errors.Is; the protocol
// paths wrap these with context.
var (
	// ErrMalformedPacket marks datagrams that cannot be decoded or whose
	// flags contradict each other. Receive paths drop such datagrams.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrHandshakeTimeout reports that no valid SYN-ACK arrived within
	// the bounded number of attempts. Fatal, no transfer is attempted.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrSocketTimeout reports that a read deadline passed. Not fatal:
	// the sender answers it with a retransmission, the receiver with
	// another poll.
	ErrSocketTimeout = errors.New("socket read timed out")

	// ErrSourceRead marks a failure to read the payload source. Fatal,
	// aborts without a FIN exchange.
	ErrSourceRead = errors.New("source read failed")

	// ErrSinkWrite marks a failure to write the payload sink. Fatal,
	// aborts without a FIN exchange.
	ErrSinkWrite = errors.New("sink write failed")

	// ErrConnectionReset reports an RST from the peer.
	ErrConnectionReset = errors.New("connection reset by peer")
)

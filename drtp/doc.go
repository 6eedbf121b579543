// Package drtp implements DRTP, a reliable ordered file transfer
// protocol layered on UDP datagrams.
//
// A transfer runs between exactly one sender and one receiver. The
// sender opens the connection with a three-way handshake, streams the
// file as numbered chunks through a go-back-n sliding window with
// cumulative acknowledgments and a single retransmission timer, and
// closes with a FIN exchange. The receiver delivers chunks to its sink
// strictly in sequence order and answers anything else with a duplicate
// cumulative ACK.
//
// Every packet starts with a 6-byte header in network byte order,
// followed by at most 994 payload bytes:
//
// 0                   1
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |        Sequence Number        |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |     Acknowledgment Number     |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |             Flags             |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                               |
// +            Payload            +
// |                               |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
package drtp

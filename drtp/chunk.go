package drtp

import (
	"io"

	"github.com/pkg/errors"
)

// ChunkReader slices a byte source into transfer-sized payloads: every
// chunk is full-size except a possibly shorter final one.
type ChunkReader struct {
	src  io.Reader
	size int
}

// NewChunkReader wraps src. size is clamped into [1, MaxPayloadSize].
func NewChunkReader(src io.Reader, size int) *ChunkReader {
	if size < 1 || size > MaxPayloadSize {
		size = MaxPayloadSize
	}
	return &ChunkReader{src: src, size: size}
}

// Next returns the next chunk as a freshly allocated slice the caller may
// retain. io.EOF follows the final chunk; any other source failure comes
// back as ErrSourceRead.
func (c *ChunkReader) Next() ([]byte, error) {
	buf := make([]byte, c.size)
	n, err := io.ReadFull(c.src, buf)
	switch err {
	case nil:
		return buf, nil
	case io.ErrUnexpectedEOF:
		return buf[:n], nil
	case io.EOF:
		return nil, io.EOF
	default:
		return nil, errors.WithMessage(ErrSourceRead, err.Error())
	}
}

// ChunkCount returns how many chunks of at most chunkSize bytes cover
// size bytes.
func ChunkCount(size int64, chunkSize int) int64 {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return (size + int64(chunkSize) - 1) / int64(chunkSize)
}

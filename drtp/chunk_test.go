package drtp

import (
	"bytes"
	"crypto/md5"
	"io"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
)

func TestChunkReaderExactMultiple(t *testing.T) {
	c := NewChunkReader(bytes.NewReader([]byte("abcdef")), 3)
	for _, want := range []string{"abc", "def"} {
		chunk, err := c.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if string(chunk) != want {
			t.Errorf("chunk = %q, want %q", chunk, want)
		}
	}
	if _, err := c.Next(); err != io.EOF {
		t.Errorf("after the last chunk err = %v, want io.EOF", err)
	}
}

func TestChunkReaderRemainder(t *testing.T) {
	c := NewChunkReader(bytes.NewReader([]byte("abcdefgh")), 3)
	var sizes []int
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		sizes = append(sizes, len(chunk))
	}
	want := []int{3, 3, 2}
	if len(sizes) != len(want) {
		t.Fatalf("chunk sizes %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("chunk sizes %v, want %v", sizes, want)
		}
	}
}

func TestChunkReaderEmptySource(t *testing.T) {
	c := NewChunkReader(bytes.NewReader(nil), 3)
	if _, err := c.Next(); err != io.EOF {
		t.Errorf("empty source err = %v, want io.EOF", err)
	}
}

func TestChunkReaderReassembly(t *testing.T) {
	in := make([]byte, 2500)
	rand.New(rand.NewSource(42)).Read(in)
	inHash := md5.Sum(in)

	c := NewChunkReader(bytes.NewReader(in), 0)
	var out []byte
	chunks := 0
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, chunk...)
		chunks++
	}
	if want := ChunkCount(int64(len(in)), MaxPayloadSize); int64(chunks) != want {
		t.Errorf("read %d chunks, want %d", chunks, want)
	}
	if md5.Sum(out) != inHash {
		t.Error("reassembly failed, hash mismatch")
	}
}

func TestChunkReaderSourceError(t *testing.T) {
	c := NewChunkReader(failingReader{}, 3)
	if _, err := c.Next(); !errors.Is(err, ErrSourceRead) {
		t.Errorf("err = %v, want ErrSourceRead", err)
	}
}

func TestChunkCount(t *testing.T) {
	cases := []struct {
		size  int64
		chunk int
		want  int64
	}{
		{0, 994, 0},
		{1, 994, 1},
		{994, 994, 1},
		{995, 994, 2},
		{1988, 994, 2},
		{2500, 994, 3},
	}
	for _, c := range cases {
		if got := ChunkCount(c.size, c.chunk); got != c.want {
			t.Errorf("ChunkCount(%d, %d) = %d, want %d", c.size, c.chunk, got, c.want)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("backing store gone")
}

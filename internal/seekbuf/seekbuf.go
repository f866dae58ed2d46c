// Package seekbuf adapts a plain io.Reader to the io.ReadSeeker the
// go-audio container parsers require, buffering the stream in memory
// when the underlying reader cannot seek on its own.
package seekbuf

import (
	"fmt"
	"io"
)

// ReadSeeker returns r itself when it already seeks, otherwise a
// memory-backed substitute holding the reader's full contents.
func ReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering stream: %w", err)
	}
	return &memSeeker{data: data}, nil
}

type memSeeker struct {
	data   []byte
	offset int64
}

func (m *memSeeker) Read(p []byte) (int, error) {
	if m.offset >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.offset:])
	m.offset += int64(n)
	return n, nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = m.offset + offset
	case io.SeekEnd:
		next = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position")
	}
	m.offset = next
	return next, nil
}

package main

import (
	"io"
	"sync"

	"github.com/c360/semring/errors"
	"github.com/c360/semring/pkg/sendbuf"
)

// sink serializes worker output into a send buffer and flushes it to w
// whenever the buffer runs out of frame slots.
type sink struct {
	mu  sync.Mutex
	buf *sendbuf.Buffer
	w   io.Writer
}

func newSink(buf *sendbuf.Buffer, w io.Writer) *sink {
	return &sink{buf: buf, w: w}
}

func (s *sink) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.buf.Queue(frame)
	if !errors.Is(err, sendbuf.ErrBufferFull) {
		return err
	}
	if _, err := s.buf.WriteTo(s.w); err != nil {
		return err
	}
	return s.buf.Queue(frame)
}

func (s *sink) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.buf.WriteTo(s.w)
	return err
}

func (s *sink) close() error {
	if err := s.flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Close()
}

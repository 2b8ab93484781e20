// Package stream provides the byte streams that connect pipeline stages.
package stream

import (
	"io"
	"sync"
)

// DefaultCapacity is the buffer size of a pipe created with a non-positive
// capacity.
const DefaultCapacity = 64 * 1024

// pipe is a bounded in-memory byte queue shared by a Reader and a Writer.
type pipe struct {
	mu       sync.Mutex
	readable *sync.Cond
	writable *sync.Cond
	buf      []byte
	capacity int

	readerClosed bool
	writerClosed bool
	writeErr     error
}

// Pipe creates a connected pair of stream ends. Writes block once capacity
// bytes are buffered until the reader drains them. Closing the writer makes
// reads return io.EOF after the buffer empties; closing the reader makes
// pending and future writes fail with io.ErrClosedPipe.
func Pipe(capacity int) (*Reader, *Writer) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &pipe{capacity: capacity}
	p.readable = sync.NewCond(&p.mu)
	p.writable = sync.NewCond(&p.mu)
	return &Reader{p: p}, &Writer{p: p}
}

type Reader struct {
	p *pipe
}

func (r *Reader) Read(b []byte) (int, error) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 {
		if p.readerClosed {
			return 0, io.ErrClosedPipe
		}
		if p.writerClosed {
			if p.writeErr != nil {
				return 0, p.writeErr
			}
			return 0, io.EOF
		}
		if len(b) == 0 {
			return 0, nil
		}
		p.readable.Wait()
	}

	n := copy(b, p.buf)
	p.buf = p.buf[:copy(p.buf, p.buf[n:])]
	p.writable.Broadcast()
	return n, nil
}

// Close stops the reader. Buffered bytes are discarded.
func (r *Reader) Close() error {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readerClosed = true
	p.buf = nil
	p.readable.Broadcast()
	p.writable.Broadcast()
	return nil
}

type Writer struct {
	p *pipe
}

func (w *Writer) Write(b []byte) (int, error) {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()

	written := 0
	for written < len(b) {
		if p.writerClosed {
			return written, io.ErrClosedPipe
		}
		for len(p.buf) >= p.capacity && !p.readerClosed && !p.writerClosed {
			p.writable.Wait()
		}
		if p.readerClosed {
			return written, io.ErrClosedPipe
		}
		if p.writerClosed {
			continue
		}

		n := p.capacity - len(p.buf)
		if n > len(b)-written {
			n = len(b) - written
		}
		p.buf = append(p.buf, b[written:written+n]...)
		written += n
		p.readable.Broadcast()
	}
	return written, nil
}

// Close signals end of stream to the reader.
func (w *Writer) Close() error {
	return w.CloseWithError(nil)
}

// CloseWithError closes the writer; once the buffer drains, reads return err
// instead of io.EOF.
func (w *Writer) CloseWithError(err error) error {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.writerClosed {
		p.writerClosed = true
		p.writeErr = err
	}
	p.readable.Broadcast()
	p.writable.Broadcast()
	return nil
}

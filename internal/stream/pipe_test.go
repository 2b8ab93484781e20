package stream

import (
	"errors"
	"io"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestPipeTransfersAcrossSmallBuffer(t *testing.T) {
	r, w := Pipe(1)
	payload := strings.Repeat("abc", 100)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := io.WriteString(w, payload); err != nil {
			t.Errorf("Write: %v", err)
		}
		w.Close()
	}()

	got, err := io.ReadAll(r)
	wg.Wait()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != payload {
		t.Errorf("got %d bytes, want %d", len(got), len(payload))
	}
}

func TestPipeWriteBlocksWhenFull(t *testing.T) {
	r, w := Pipe(2)

	done := make(chan struct{})
	go func() {
		w.Write([]byte("abcd"))
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Write of 4 bytes into a 2-byte pipe returned without a reader")
	case <-time.After(50 * time.Millisecond):
	}

	buf := make([]byte, 4)
	n, _ := io.ReadFull(r, buf)
	if n != 4 {
		t.Errorf("read %d bytes, want 4", n)
	}
	<-done
}

func TestPipeReaderCloseFailsWrites(t *testing.T) {
	r, w := Pipe(1)

	errc := make(chan error, 1)
	go func() {
		_, err := w.Write([]byte("too long"))
		errc <- err
	}()

	r.Close()
	if err := <-errc; !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Write after reader close = %v, want ErrClosedPipe", err)
	}
	if _, err := w.Write([]byte("x")); !IsBrokenPipe(err) {
		t.Errorf("later Write = %v, want broken pipe", err)
	}
}

func TestPipeCloseWithError(t *testing.T) {
	r, w := Pipe(0)
	boom := errors.New("boom")

	w.Write([]byte("ok"))
	w.CloseWithError(boom)

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	if n != 2 || err != nil {
		t.Fatalf("first Read = %d, %v", n, err)
	}
	if _, err := r.Read(buf); !errors.Is(err, boom) {
		t.Errorf("Read after drain = %v, want boom", err)
	}
}

func TestIsBrokenPipe(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{io.ErrClosedPipe, true},
		{syscall.EPIPE, true},
		{io.EOF, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsBrokenPipe(tt.err); got != tt.want {
			t.Errorf("IsBrokenPipe(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

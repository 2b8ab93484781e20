package stream

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"
)

// Stdio bundles the three standard streams of an execution context.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OS returns the process's standard streams.
func OS() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// IsTerminal reports whether r is a file attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsBrokenPipe reports whether err means the reading side of a stream went
// away.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, syscall.EPIPE)
}

package cli

import (
	"fmt"
	"io"
)

// IO bundles the streams a command reads and writes.
type IO struct {
	// In is the command's input stream (the REPL reads it in
	// non-terminal mode).
	In io.Reader

	out    io.Writer
	errOut io.Writer
}

// NewIO creates an IO over the given streams.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{In: in, out: out, errOut: errOut}
}

// Println writes a line to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes a line to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Warn writes a "warning:" line to stderr.
func (o *IO) Warn(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, append([]any{"warning:"}, a...)...)
}

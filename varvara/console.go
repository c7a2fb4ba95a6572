package varvara

import (
	"io"

	"github.com/go-faster/errors"
)

// ErrNoStream is returned by Console methods whose stream is not connected.
var ErrNoStream = errors.New("console stream not connected")

// Console connects the Console device to three independent byte streams.
// Calls are forwarded to the streams without buffering.
type Console struct {
	out, err io.Writer
	in       io.Reader
}

// NewConsole returns a Console writing to out and errOut and reading from in.
// Any of the streams may be nil.
func NewConsole(out, errOut io.Writer, in io.Reader) *Console {
	return &Console{out: out, err: errOut, in: in}
}

// Write writes p to the output stream.
func (c *Console) Write(p []byte) (int, error) {
	if c.out == nil {
		return 0, ErrNoStream
	}
	return c.out.Write(p)
}

// WriteError writes p to the error stream.
func (c *Console) WriteError(p []byte) (int, error) {
	if c.err == nil {
		return 0, ErrNoStream
	}
	return c.err.Write(p)
}

// Read reads up to len(p) bytes from the input stream.
func (c *Console) Read(p []byte) (int, error) {
	if c.in == nil {
		return 0, ErrNoStream
	}
	return c.in.Read(p)
}

// ReadFull reads exactly len(p) bytes from the input stream.
// It returns io.EOF if no bytes were read and io.ErrUnexpectedEOF
// if the stream ended part way through.
func (c *Console) ReadFull(p []byte) error {
	if c.in == nil {
		return ErrNoStream
	}
	_, err := io.ReadFull(c.in, p)
	return err
}

// HasInput reports whether an input stream is connected.
func (c *Console) HasInput() bool { return c.in != nil }

// Package prompt asks yes/no questions on the controlling terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Terminal implements domain.Prompter over a reader and writer.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

// New returns a prompter on stdin/stdout.
func New() *Terminal {
	tty := isTerminal(os.Stdin) && isTerminal(os.Stdout)
	return NewWith(os.Stdin, os.Stdout, tty)
}

// NewWith builds a prompter on arbitrary streams. interactive reports
// whether a human is expected to answer.
func NewWith(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, tty: interactive}
}

// Interactive reports whether questions can be answered.
func (t *Terminal) Interactive() bool { return t.tty }

// Confirm prints question and accepts y or yes. Anything else, including
// end of input, is a no.
func (t *Terminal) Confirm(question string) (bool, error) {
	if !t.tty {
		return false, nil
	}
	if _, err := fmt.Fprintf(t.out, "%s [y/N] ", question); err != nil {
		return false, err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool { return isTerminal(f) }

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

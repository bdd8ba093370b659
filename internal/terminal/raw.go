// Package terminal puts the local terminal into raw passthrough mode and
// relays bytes between it and a connected console socket.
package terminal

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on a descriptor
// that is not a TTY. Callers must not fall back to cooked mode: line
// buffering and echo would corrupt the console byte stream.
var ErrNotTerminal = errors.New("not a terminal")

// WithRaw snapshots f's terminal attributes, applies raw passthrough mode,
// runs fn, and restores the snapshot on every exit path. Raw mode disables
// input/output processing, echo, canonical buffering, and signal generation
// from control characters, so Ctrl+C and friends reach the remote console
// unmodified. Reads return immediately with whatever is available
// (VMIN=0, VTIME=0).
//
// The terminal attribute set is process-wide state; nesting two raw
// sessions on the same terminal is undefined and callers must hold at most
// one at a time.
func WithRaw(f *os.File, fn func() error) error {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("%w: fd %d", ErrNotTerminal, fd)
	}

	saved, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return fmt.Errorf("get terminal attributes: %w", err)
	}

	raw := *saved
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer unix.IoctlSetTermios(fd, ioctlWriteTermios, saved)

	return fn()
}

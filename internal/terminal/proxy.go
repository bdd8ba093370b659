package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// EscapeByte ends a console session when typed by the operator
	// (Ctrl+], the telnet convention). It is never forwarded.
	EscapeByte = 0x1D

	// blockSize bounds each direction's in-flight data.
	blockSize = 64 * 1024
)

// ErrTunnelBroken reports that the remote end of a proxy closed or failed
// mid-session. The reconnect layer treats it as retryable; everything else
// is fatal for the attempt.
var ErrTunnelBroken = errors.New("tunnel broken")

// pipe is one direction's buffer. Bytes between start and end have been
// read but not yet written to the destination.
type pipe struct {
	buf        []byte
	start, end int
}

func (p *pipe) pending() bool { return p.start < p.end }

// Proxy relays bytes between the local terminal (in/out, conventionally
// stdin/stdout) and a connected console socket until the operator types
// EscapeByte or the remote side goes away.
//
// Each direction buffers at most blockSize bytes, and buffered data is
// always flushed before more is read for that direction, so a fast
// producer is throttled against a slow consumer and nothing already read
// is ever dropped. When neither buffer has work the loop blocks in poll
// over both sources.
//
// Returns nil when the operator escapes (after draining buffered output),
// ErrTunnelBroken when the remote side closes or fails, and other errors
// for local I/O failures.
func Proxy(in, out, conn *os.File) error {
	var (
		toRemote = pipe{buf: make([]byte, blockSize)}
		toLocal  = pipe{buf: make([]byte, blockSize)}
		finished bool
	)

	for {
		switch {
		case toRemote.pending():
			n, err := conn.Write(toRemote.buf[toRemote.start:toRemote.end])
			if err != nil {
				return fmt.Errorf("%w: write console: %v", ErrTunnelBroken, err)
			}
			toRemote.start += n

		case toLocal.pending():
			n, err := out.Write(toLocal.buf[toLocal.start:toLocal.end])
			if err != nil {
				return fmt.Errorf("write terminal: %w", err)
			}
			toLocal.start += n

		case finished:
			return nil

		default:
			fds := []unix.PollFd{
				{Fd: int32(in.Fd()), Events: unix.POLLIN},
				{Fd: int32(conn.Fd()), Events: unix.POLLIN},
			}
			if _, err := unix.Poll(fds, -1); err != nil {
				if err == unix.EINTR {
					continue
				}
				return fmt.Errorf("poll: %w", err)
			}

			if fds[0].Revents != 0 {
				n, err := in.Read(toRemote.buf)
				if err == io.EOF {
					// Local end of input: treat like the escape so
					// buffered output still drains.
					finished = true
					break
				}
				if err != nil {
					return fmt.Errorf("read terminal: %w", err)
				}
				toRemote.start, toRemote.end = 0, n
				if i := bytes.IndexByte(toRemote.buf[:n], EscapeByte); i >= 0 {
					toRemote.end = i
					finished = true
				}
			}

			if fds[1].Revents != 0 {
				n, err := conn.Read(toLocal.buf)
				if err == io.EOF || (err == nil && n == 0) {
					// Orderly remote close.
					return ErrTunnelBroken
				}
				if err != nil {
					return fmt.Errorf("%w: read console: %v", ErrTunnelBroken, err)
				}
				toLocal.start, toLocal.end = 0, n
			}
		}
	}
}

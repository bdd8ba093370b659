// Package bridge exposes a unix-domain console socket as a loopback TCP
// port, for graphical viewers that only speak TCP.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Bridge is a single-use transport adapter: it accepts exactly one TCP
// client and relays bytes between it and the unix-domain console socket
// until either side closes. It never reconnects and never serves a second
// client.
type Bridge struct {
	port int
	done chan struct{}
	err  error
}

// Open connects to the console socket at path and starts listening on an
// ephemeral loopback port. The port is usable as soon as Open returns; the
// accept and relay run in the background so the caller can hand the port
// to a viewer immediately.
func Open(path string) (*Bridge, error) {
	sock, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect console socket: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	b := &Bridge{
		port: ln.Addr().(*net.TCPAddr).Port,
		done: make(chan struct{}),
	}
	go b.serve(ln, sock)
	return b, nil
}

// Port returns the loopback TCP port the bridge listens on.
func (b *Bridge) Port() int { return b.port }

// Wait blocks until the bridge has torn down and returns the error that
// ended it, if any. Either relay direction finishing counts as the end of
// the whole bridge.
func (b *Bridge) Wait() error {
	<-b.done
	return b.err
}

func (b *Bridge) serve(ln net.Listener, sock net.Conn) {
	defer close(b.done)
	defer sock.Close()

	client, err := ln.Accept()
	// Single-use: once the one client is in (or accept failed), stop
	// listening so later connection attempts are refused.
	ln.Close()
	if err != nil {
		b.err = fmt.Errorf("accept: %w", err)
		return
	}
	defer client.Close()

	ended := make(chan error, 2)
	go func() {
		_, err := io.Copy(sock, client)
		ended <- err
	}()
	go func() {
		_, err := io.Copy(client, sock)
		ended <- err
	}()

	// The first direction to finish ends the bridge; the deferred closes
	// unblock the other copy.
	if err := <-ended; err != nil && !closedErr(err) {
		b.err = err
	}
}

// closedErr reports errors that just mean the other side went away while
// we were tearing down.
func closedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

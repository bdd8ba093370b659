// Package tunnel maintains an interactive text console session across
// transient connection failures.
//
// The connect sequence retries with exponential backoff: the delay starts
// at 100ms, doubles after every failed attempt, and the tunnel gives up
// once the delay would exceed the retry ceiling. A session that breaks
// after a successful connect restarts the sequence with a fresh delay,
// which rides out daemon restarts and socket-not-yet-ready races without
// retrying forever.
package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/javanstorm/vmconsole/internal/terminal"
)

const (
	// initialDelay is the first backoff step of a connect sequence.
	initialDelay = 100 * time.Millisecond

	// DefaultRetryCeiling bounds the backoff ladder: once the next delay
	// would exceed it, the tunnel gives up.
	DefaultRetryCeiling = 5 * time.Second
)

// Target identifies a text console endpoint.
type Target struct {
	Network string // "unix" or "tcp"
	Addr    string // socket path, or host:port
}

// UnixTarget is a console reachable at a unix-domain socket path.
func UnixTarget(path string) Target {
	return Target{Network: "unix", Addr: path}
}

// TCPTarget is a console reachable at a loopback TCP port.
func TCPTarget(port int) Target {
	return Target{Network: "tcp", Addr: net.JoinHostPort("127.0.0.1", strconv.Itoa(port))}
}

func (t Target) String() string { return t.Addr }

// The tunnel is an iterative state machine rather than a recursive retry
// loop: a pure transition function maps (state, event) to the next state,
// and run drives it.

type stateKind int

const (
	stateDisconnected stateKind = iota
	stateConnected
	stateGaveUp
	stateDone
)

type state struct {
	kind  stateKind
	delay time.Duration // next backoff step while disconnected
}

type event int

const (
	evConnected event = iota
	evConnectFailed
	evSessionBroken
	evSessionEnded
)

// advance is the pure transition function. It never sleeps or dials; the
// caller performs the action implied by the state it returns.
func advance(s state, ev event, ceiling time.Duration) state {
	switch ev {
	case evConnected:
		return state{kind: stateConnected, delay: initialDelay}
	case evConnectFailed:
		if s.delay > ceiling {
			return state{kind: stateGaveUp}
		}
		return state{kind: stateDisconnected, delay: s.delay * 2}
	case evSessionBroken:
		// A working session that broke gets a fresh connect sequence,
		// not a continuation of the previous backoff.
		return state{kind: stateDisconnected, delay: initialDelay}
	case evSessionEnded:
		return state{kind: stateDone}
	}
	return s
}

// Tunnel connects the local terminal to one text console target.
type Tunnel struct {
	target  Target
	ceiling time.Duration

	in, out *os.File
	dial    func(network, addr string) (net.Conn, error)
	sleep   func(time.Duration)
}

// New returns a tunnel for target. A ceiling of 0 selects
// DefaultRetryCeiling.
func New(target Target, ceiling time.Duration) *Tunnel {
	if ceiling <= 0 {
		ceiling = DefaultRetryCeiling
	}
	return &Tunnel{
		target:  target,
		ceiling: ceiling,
		in:      os.Stdin,
		out:     os.Stdout,
		dial:    net.Dial,
		sleep:   time.Sleep,
	}
}

// Attach runs the tunnel inside a single raw-mode session. The terminal is
// switched to raw once for the whole retry loop, not per attempt, so it is
// not repeatedly toggled while the console comes up.
//
// Returns nil when the operator ends the session with Ctrl+]; the retry
// ceiling and non-connect errors surface as errors.
func (t *Tunnel) Attach() error {
	fmt.Fprintf(os.Stderr, "Escape character is '^]'\n")
	return terminal.WithRaw(t.in, t.run)
}

// run drives the state machine until it reaches a terminal state.
func (t *Tunnel) run() error {
	st := state{kind: stateDisconnected, delay: initialDelay}
	var lastErr error

	for {
		switch st.kind {
		case stateDisconnected:
			conn, err := t.dial(t.target.Network, t.target.Addr)
			if err != nil {
				if !isConnectError(err) {
					return fmt.Errorf("connect %s: %w", t.target, err)
				}
				lastErr = err
				prev := st
				st = advance(st, evConnectFailed, t.ceiling)
				if st.kind != stateGaveUp {
					t.sleep(prev.delay)
				}
				continue
			}
			st = advance(st, evConnected, t.ceiling)
			var sessionErr error
			st, sessionErr = t.session(conn, st)
			if sessionErr != nil {
				return sessionErr
			}

		case stateGaveUp:
			return fmt.Errorf("connect %s: %w", t.target, lastErr)

		case stateDone:
			return nil
		}
	}
}

// session proxies one established connection and returns the next state.
// A non-nil error ends the whole tunnel: only a broken remote end is
// something a reconnect can fix.
func (t *Tunnel) session(conn net.Conn, st state) (state, error) {
	defer conn.Close()

	f, err := connFile(conn)
	if err != nil {
		return st, fmt.Errorf("connect %s: %w", t.target, err)
	}
	defer f.Close()

	err = terminal.Proxy(t.in, t.out, f)
	switch {
	case err == nil:
		return advance(st, evSessionEnded, t.ceiling), nil
	case errors.Is(err, terminal.ErrTunnelBroken):
		fmt.Fprintf(os.Stderr, "console connection lost, reconnecting\r\n")
		return advance(st, evSessionBroken, t.ceiling), nil
	default:
		return st, err
	}
}

// connFile extracts an *os.File from a stream connection so the proxy loop
// can poll its descriptor. The dup keeps its own lifetime; both the conn
// and the file are closed by the caller.
func connFile(conn net.Conn) (*os.File, error) {
	type filer interface {
		File() (*os.File, error)
	}
	fc, ok := conn.(filer)
	if !ok {
		return nil, fmt.Errorf("connection type %T has no file descriptor", conn)
	}
	return fc.File()
}

// isConnectError reports whether err belongs to the connection-establishment
// class that backoff can ride out: the daemon restarting, the socket path
// not created yet, or the endpoint briefly unreachable.
func isConnectError(err error) bool {
	for _, transient := range []error{
		syscall.ECONNREFUSED,
		syscall.ENOENT,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.ETIMEDOUT,
		syscall.ECONNRESET,
	} {
		if errors.Is(err, transient) {
			return true
		}
	}
	return false
}

package console

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
)

// ViewerLauncher starts the external graphical viewer against a
// loopback-reachable TCP port and blocks until it exits.
type ViewerLauncher interface {
	Launch(port int) error
}

// ExecViewer runs a viewer binary (remote-viewer, vncviewer, ...) with a
// host:port address on the loopback interface.
type ExecViewer struct {
	Binary string
}

func (v ExecViewer) Launch(port int) error {
	bin, err := exec.LookPath(v.Binary)
	if err != nil {
		return fmt.Errorf("viewer %q not found: %w", v.Binary, err)
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	cmd := exec.Command(bin, addr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("viewer %s: %w", v.Binary, err)
	}
	return nil
}

// errFallbackUnavailable means none of the well-known fallback attacher
// paths exist on this host.
var errFallbackUnavailable = errors.New("fallback console attacher unavailable")

// DefaultFallbackPaths are the well-known locations of the out-of-process
// text console attacher.
var DefaultFallbackPaths = []string{
	"/usr/lib/xen/bin/xenconsole",
	"/usr/local/lib/xen/bin/xenconsole",
}

// FallbackAttacher hands the session to an external console attacher when
// no descriptor yielded a session of our own.
type FallbackAttacher struct {
	Paths []string
}

// locate returns the first existing attacher path, or "".
func (f FallbackAttacher) locate() string {
	for _, p := range f.Paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Attach runs the attacher with the decimal domain id as its only
// argument, inheriting our stdio so it owns the terminal for the duration.
func (f FallbackAttacher) Attach(domainID int) error {
	bin := f.locate()
	if bin == "" {
		return errFallbackUnavailable
	}

	cmd := exec.Command(bin, strconv.Itoa(domainID))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fallback console %s: %w", bin, err)
	}
	return nil
}

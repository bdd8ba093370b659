package console

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/javanstorm/vmconsole/internal/bridge"
	"github.com/javanstorm/vmconsole/internal/tunnel"
)

// ErrNoConsole is returned when no descriptor yielded a session and the
// fallback attacher is unavailable. The CLI turns it into a non-zero exit.
var ErrNoConsole = errors.New("no console found")

// Selector ties the resolver, tunnel, bridge, viewer, and fallback
// together into one attach policy.
type Selector struct {
	resolver Resolver
	viewer   ViewerLauncher
	fallback FallbackAttacher
	ceiling  time.Duration
	filter   Kind // zero value: both kinds

	runTunnel func(t tunnel.Target, ceiling time.Duration) error
	runBridge func(path string) (int, error)
}

// NewSelector builds a selector with the real tunnel and bridge behind it.
// A ceiling of 0 selects tunnel.DefaultRetryCeiling.
func NewSelector(r Resolver, v ViewerLauncher, f FallbackAttacher, ceiling time.Duration) *Selector {
	return &Selector{
		resolver: r,
		viewer:   v,
		fallback: f,
		ceiling:  ceiling,
		runTunnel: func(t tunnel.Target, ceiling time.Duration) error {
			return tunnel.New(t, ceiling).Attach()
		},
		runBridge: func(path string) (int, error) {
			b, err := bridge.Open(path)
			if err != nil {
				return 0, err
			}
			return b.Port(), nil
		},
	}
}

// SetFilter restricts the selector to one console kind.
func (s *Selector) SetFilter(k Kind) { s.filter = k }

// Attach resolves the VM's consoles and attaches to the first one that
// yields a session, preferring text over graphical. It blocks until that
// session ends. When every attempt fails to start, the external fallback
// attacher gets the VM's domain id; ErrNoConsole means that was
// unavailable too.
func (s *Selector) Attach(name string) error {
	m, err := s.resolver.Resolve(name)
	if err != nil {
		return err
	}
	return s.attach(m)
}

func (s *Selector) attach(m *Machine) error {
	for _, d := range Ordered(m.Consoles) {
		if s.filter != "" && d.Kind != s.filter {
			continue
		}

		var err error
		switch {
		case d.Kind == Text && d.Path != "":
			err = s.runTunnel(tunnel.UnixTarget(d.Path), s.ceiling)
		case d.Kind == Text && d.Port > 0:
			err = s.runTunnel(tunnel.TCPTarget(d.Port), s.ceiling)
		case d.Kind == Graphical && d.Path != "":
			var port int
			port, err = s.runBridge(d.Path)
			if err == nil {
				err = s.viewer.Launch(port)
			}
		case d.Kind == Graphical && d.Port > 0:
			err = s.viewer.Launch(d.Port)
		default:
			continue
		}

		if err == nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "%s console %s: %v\n", d.Kind, endpoint(d), err)
	}

	if err := s.fallback.Attach(m.DomainID); err != nil {
		if errors.Is(err, errFallbackUnavailable) {
			return fmt.Errorf("%w for %s", ErrNoConsole, m.Name)
		}
		return err
	}
	return nil
}

// endpoint renders the transport half of a descriptor for diagnostics.
func endpoint(d Descriptor) string {
	if d.Path != "" {
		return d.Path
	}
	if d.Port > 0 {
		return fmt.Sprintf("port %d", d.Port)
	}
	return "(no endpoint)"
}

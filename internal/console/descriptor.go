// Package console resolves a VM's console endpoints and attaches the
// operator to the best one: text consoles through the reconnecting tunnel,
// graphical consoles through the socket bridge and an external viewer.
package console

import "sort"

// Kind distinguishes character-stream consoles from framebuffer consoles.
type Kind string

const (
	// Text is a serial/terminal-emulation console.
	Text Kind = "text"

	// Graphical is a framebuffer-protocol console consumed by an
	// external viewer.
	Graphical Kind = "graphical"
)

// Descriptor describes one way to reach a VM's console. A zero Port or an
// empty Path means the console is not available by that transport.
// Descriptors are read-only snapshots for the duration of one attach.
type Descriptor struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"`
	Port int    `json:"port,omitempty"`
}

// usable reports whether the descriptor names at least one transport.
func (d Descriptor) usable() bool {
	return d.Path != "" || d.Port > 0
}

// Ordered sorts usable text consoles ahead of graphical ones. The sort is
// stable and the key is deliberately that weak: among consoles of the same
// kind the resolver's preference order is preserved.
func Ordered(ds []Descriptor) []Descriptor {
	out := make([]Descriptor, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind == Text && out[i].usable() && out[j].Kind == Graphical
	})
	return out
}

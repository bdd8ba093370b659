package console

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Machine is one resolvable VM: its hypervisor-assigned domain id and the
// consoles it exposes, in the hypervisor's preference order.
type Machine struct {
	Name     string       `json:"name"`
	DomainID int          `json:"domain_id"`
	Consoles []Descriptor `json:"consoles"`
}

// Resolver maps a VM name to its runtime console record.
type Resolver interface {
	Resolve(name string) (*Machine, error)
}

// RuntimeResolver reads the per-VM console.json record the hypervisor side
// drops next to its sockets under the runtime directory:
//
//	<dir>/<vm>/console.json
//	<dir>/<vm>/serial.sock
//	<dir>/<vm>/vnc.sock
//
// Socket paths in the record may be relative; they resolve against the
// record's own directory.
type RuntimeResolver struct {
	Dir string
}

func (r *RuntimeResolver) Resolve(name string) (*Machine, error) {
	path := filepath.Join(r.Dir, name, "console.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no runtime record for %q (is the VM running?)", name)
		}
		return nil, fmt.Errorf("read runtime record: %w", err)
	}

	var m Machine
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse runtime record %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = name
	}

	base := filepath.Dir(path)
	for i, c := range m.Consoles {
		if c.Path != "" && !filepath.IsAbs(c.Path) {
			m.Consoles[i].Path = filepath.Join(base, c.Path)
		}
	}
	return &m, nil
}

package console

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRecord(t *testing.T, dir, name, body string) {
	t.Helper()
	vmDir := filepath.Join(dir, name)
	if err := os.MkdirAll(vmDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(vmDir, "console.json"), []byte(body), 0644); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

func TestRuntimeResolverResolve(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "web1", `{
		"domain_id": 7,
		"consoles": [
			{"kind": "text", "path": "serial.sock"},
			{"kind": "graphical", "port": 5901}
		]
	}`)

	r := &RuntimeResolver{Dir: dir}
	m, err := r.Resolve("web1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if m.Name != "web1" {
		t.Errorf("name = %q, want %q (filled from lookup)", m.Name, "web1")
	}
	if m.DomainID != 7 {
		t.Errorf("domain id = %d, want 7", m.DomainID)
	}
	if len(m.Consoles) != 2 {
		t.Fatalf("got %d consoles, want 2", len(m.Consoles))
	}

	// Relative socket paths resolve against the record's directory.
	wantPath := filepath.Join(dir, "web1", "serial.sock")
	if m.Consoles[0].Path != wantPath {
		t.Errorf("text console path = %q, want %q", m.Consoles[0].Path, wantPath)
	}
	if m.Consoles[1].Port != 5901 {
		t.Errorf("graphical console port = %d, want 5901", m.Consoles[1].Port)
	}
}

func TestRuntimeResolverAbsolutePathKept(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "db1", `{"domain_id": 3, "consoles": [{"kind": "text", "path": "/var/run/db1.sock"}]}`)

	r := &RuntimeResolver{Dir: dir}
	m, err := r.Resolve("db1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.Consoles[0].Path != "/var/run/db1.sock" {
		t.Errorf("absolute path rewritten to %q", m.Consoles[0].Path)
	}
}

func TestRuntimeResolverMissingRecord(t *testing.T) {
	r := &RuntimeResolver{Dir: t.TempDir()}
	_, err := r.Resolve("ghost")
	if err == nil {
		t.Fatal("expected error for a VM without a runtime record")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("diagnostic should name the VM, got %q", err)
	}
}

func TestRuntimeResolverMalformedRecord(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "bad", `{not json`)

	r := &RuntimeResolver{Dir: dir}
	if _, err := r.Resolve("bad"); err == nil {
		t.Fatal("expected error for a malformed runtime record")
	}
}

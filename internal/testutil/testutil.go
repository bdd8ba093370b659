// Package testutil provides common test helpers for vmconsole tests.
package testutil

import (
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
)

// StartEchoSocket starts a unix-domain socket server that echoes every
// byte back to the client, serving one connection at a time. The socket
// lives in a temporary directory and is cleaned up with the test.
func StartEchoSocket(t *testing.T) string {
	t.Helper()

	// Socket paths have a low length limit; keep the name short.
	path := filepath.Join(t.TempDir(), "echo.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on %s: %v", path, err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()

	return path
}

// WriteRuntimeRecord writes a per-VM console.json record under dir the way
// the hypervisor side does, marshaling record as JSON, and returns the
// record's path.
func WriteRuntimeRecord(t *testing.T, dir, name string, record any) string {
	t.Helper()

	vmDir := filepath.Join(dir, name)
	if err := os.MkdirAll(vmDir, 0755); err != nil {
		t.Fatalf("create VM runtime directory: %v", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		t.Fatalf("marshal runtime record: %v", err)
	}

	path := filepath.Join(vmDir, "console.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write runtime record: %v", err)
	}
	return path
}

// OpenPTY allocates a pty pair for tests that need a real terminal, and
// skips the test on hosts without pty support. Both ends are closed with
// the test.
func OpenPTY(t *testing.T) (ptmx, tty *os.File) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	t.Cleanup(func() {
		ptmx.Close()
		tty.Close()
	})
	return ptmx, tty
}

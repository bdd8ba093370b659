package cli

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/javanstorm/vmconsole/internal/config"
	"github.com/javanstorm/vmconsole/internal/console"
	"github.com/javanstorm/vmconsole/internal/testutil"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// what it printed.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	runErr := fn()
	w.Close()
	out, _ := io.ReadAll(r)
	r.Close()

	if runErr != nil {
		t.Fatalf("command failed: %v", runErr)
	}
	return string(out)
}

func TestRunConsolesListsInAttachOrder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteRuntimeRecord(t, dir, "vm1", &console.Machine{
		Name:     "vm1",
		DomainID: 5,
		Consoles: []console.Descriptor{
			{Kind: console.Graphical, Port: 5901},
			{Kind: console.Text, Path: "/run/vm1/serial.sock"},
		},
	})

	prev := config.Global
	config.Global = &config.Config{RuntimeDir: dir, RetryCeiling: time.Second}
	defer func() { config.Global = prev }()

	out := captureStdout(t, func() error {
		return runConsoles(consolesCmd, []string{"vm1"})
	})

	if !strings.Contains(out, "vm1 (domain 5)") {
		t.Errorf("output missing VM header: %q", out)
	}

	textAt := strings.Index(out, "/run/vm1/serial.sock")
	graphicalAt := strings.Index(out, "port 5901")
	if textAt < 0 || graphicalAt < 0 {
		t.Fatalf("output missing endpoints: %q", out)
	}
	if textAt > graphicalAt {
		t.Errorf("text console should be listed before graphical:\n%s", out)
	}
}

func TestRunConsolesUnknownVM(t *testing.T) {
	prev := config.Global
	config.Global = &config.Config{RuntimeDir: t.TempDir(), RetryCeiling: time.Second}
	defer func() { config.Global = prev }()

	if err := runConsoles(consolesCmd, []string{"ghost"}); err == nil {
		t.Fatal("expected an error for an unknown VM")
	}
}

package bridge_test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/javanstorm/vmconsole/internal/bridge"
	"github.com/javanstorm/vmconsole/internal/testutil"
)

func TestBridgeRelaysBothWays(t *testing.T) {
	path := testutil.StartEchoSocket(t)

	b, err := bridge.Open(path)
	if err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	if b.Port() <= 0 {
		t.Fatalf("bridge port = %d, want a bound ephemeral port", b.Port())
	}

	client, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", b.Port()))
	if err != nil {
		t.Fatalf("dial bridge: %v", err)
	}
	defer client.Close()

	msg := []byte("framebuffer handshake")
	if _, err := client.Write(msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, len(msg))
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	total := 0
	for total < len(msg) {
		n, err := client.Read(buf[total:])
		if err != nil {
			t.Fatalf("read echo: %v", err)
		}
		total += n
	}
	if string(buf) != string(msg) {
		t.Errorf("echoed %q, want %q", buf, msg)
	}

	client.Close()
	if err := b.Wait(); err != nil {
		t.Errorf("bridge should end cleanly when the client closes, got %v", err)
	}
}

func TestBridgeServesExactlyOneClient(t *testing.T) {
	path := testutil.StartEchoSocket(t)

	b, err := bridge.Open(path)
	if err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	addr := fmt.Sprintf("127.0.0.1:%d", b.Port())

	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer first.Close()

	// Prove the first client is live before probing for a second slot.
	if _, err := first.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	one := make([]byte, 1)
	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := first.Read(one); err != nil {
		t.Fatalf("read echo: %v", err)
	}

	// The listener is closed after the single accept: a second client is
	// refused, or at best connects to a dead backlog slot and sees an
	// immediate close. Either way it is never serviced.
	second, err := net.Dial("tcp", addr)
	if err == nil {
		second.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, rerr := second.Read(one); rerr == nil {
			t.Error("second client received data; bridge must serve exactly one client")
		}
		second.Close()
	}

	first.Close()
	if err := b.Wait(); err != nil {
		t.Errorf("bridge end: %v", err)
	}
}

func TestBridgeMissingSocket(t *testing.T) {
	if _, err := bridge.Open(t.TempDir() + "/absent.sock"); err == nil {
		t.Fatal("expected error for a missing console socket")
	}
}

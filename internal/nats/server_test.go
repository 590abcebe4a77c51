package nats

import (
	"path/filepath"
	"testing"
)

func TestPortFileRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nats")

	if _, err := ReadPort(dir); err == nil {
		t.Fatal("expected error reading port before any write")
	}

	if err := WritePort(dir, 4333); err != nil {
		t.Fatalf("failed to write port: %v", err)
	}

	port, err := ReadPort(dir)
	if err != nil {
		t.Fatalf("failed to read port: %v", err)
	}
	if port != 4333 {
		t.Errorf("expected port 4333, got %d", port)
	}

	RemovePort(dir)
	if _, err := ReadPort(dir); err == nil {
		t.Fatal("expected error reading port after removal")
	}
}

func TestStartEmbeddedNATSListening(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nats")

	ns, err := StartEmbeddedNATSListening(dir)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(ns.Shutdown)

	port, err := ReadPort(dir)
	if err != nil {
		t.Fatalf("expected port file after start: %v", err)
	}

	nc, err := ConnectToPort(port)
	if err != nil {
		t.Fatalf("failed to connect over TCP: %v", err)
	}
	defer nc.Close()

	if err := nc.Flush(); err != nil {
		t.Errorf("connection not usable: %v", err)
	}
}

func TestStartEmbeddedNATSInProcess(t *testing.T) {
	ns, err := StartEmbeddedNATS(filepath.Join(t.TempDir(), "nats"))
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(ns.Shutdown)

	nc, err := ConnectInProcess(ns)
	if err != nil {
		t.Fatalf("failed to connect in-process: %v", err)
	}
	defer nc.Close()

	if _, err := CreateJetStream(nc); err != nil {
		t.Errorf("failed to create JetStream context: %v", err)
	}
}

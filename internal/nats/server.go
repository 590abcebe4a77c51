package nats

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const portFileName = "port"

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled.
// The store dir only holds JetStream metadata; selection streams themselves
// use memory storage, so session state never outlives the process.
func StartEmbeddedNATS(storeDir string) (*server.Server, error) {
	logger.Debug("Starting embedded NATS server with store dir: %s", storeDir)

	opts := &server.Options{
		JetStream:  true,
		StoreDir:   storeDir,
		DontListen: true, // No network ports - in-process only
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, err
	}

	// Start server in background goroutine
	go ns.Start()

	// Wait for server to be ready with timeout
	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		return nil, errors.New("nats server failed to start within timeout")
	}

	logger.Debug("NATS server ready for connections")
	return ns, nil
}

// StartEmbeddedNATSListening starts an embedded NATS server like
// StartEmbeddedNATS, but bound to a random localhost port, and records the
// port in a file under the store dir so that "docweaver tool" invocations in
// other processes can attach to the running session.
func StartEmbeddedNATSListening(storeDir string) (*server.Server, error) {
	logger.Debug("Starting embedded NATS server (listening) with store dir: %s", storeDir)

	opts := &server.Options{
		JetStream: true,
		StoreDir:  storeDir,
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		return nil, errors.New("nats server failed to start within timeout")
	}

	addr, ok := ns.Addr().(*net.TCPAddr)
	if !ok {
		ns.Shutdown()
		return nil, errors.New("nats server has no TCP address")
	}
	if err := WritePort(storeDir, addr.Port); err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to write port file: %w", err)
	}

	logger.Debug("NATS server listening on 127.0.0.1:%d", addr.Port)
	return ns, nil
}

// WritePort records the server's client port under the store dir.
func WritePort(storeDir string, port int) error {
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(storeDir, portFileName), []byte(strconv.Itoa(port)), 0644)
}

// ReadPort reads the client port recorded by a running session.
func ReadPort(storeDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(storeDir, portFileName))
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid port file: %w", err)
	}
	return port, nil
}

// RemovePort deletes the port file. Called on session shutdown so stale
// files do not point tool invocations at a dead server.
func RemovePort(storeDir string) {
	_ = os.Remove(filepath.Join(storeDir, portFileName))
}

// ConnectToPort connects to a locally running session's NATS server over TCP.
func ConnectToPort(port int) (*nats.Conn, error) {
	return nats.Connect(fmt.Sprintf("nats://127.0.0.1:%d", port))
}

// ConnectInProcess creates an in-process connection to the embedded NATS server.
// This connection does not use network ports and communicates directly with the server.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}
	return conn, nil
}

// CreateJetStream creates a JetStream context from a NATS connection.
func CreateJetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Shutdown gracefully shuts down the NATS connection and server.
// It first drains and closes the connection, then shuts down the server
// with a timeout to allow in-flight operations to complete.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	logger.Debug("Starting NATS shutdown")

	// Close the connection first (drain buffered messages)
	if nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			nc.Close()
		}
	}

	// Shutdown the server with a grace period
	if ns != nil {
		ns.Shutdown()

		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
			logger.Debug("NATS server shut down cleanly")
		case <-time.After(5 * time.Second):
			logger.Error("NATS server shutdown timed out after 5s")
			return errors.New("NATS server shutdown timed out")
		}
	}

	return nil
}

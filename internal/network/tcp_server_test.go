package network

import (
	"net"
	"testing"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"
)

// a no-op actor stands in for the simulation actor: these tests only
// exercise the accept-loop/spawn-per-connection/graceful-stop behavior of
// TCPServer, not simulation logic.
type noopActor struct{}

func (noopActor) Receive(ctx protoactor.Context) {}

func TestTCPServerAcceptsConnectionsAndStops(t *testing.T) {
	system := protoactor.NewActorSystem()
	simPID := system.Root.Spawn(protoactor.PropsFromProducer(func() protoactor.Actor { return noopActor{} }))

	srv := NewTCPServer(0, system, simPID)
	// port 0 lets the OS choose a free port; discover it after listening.
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	srv.port = port
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, err := net.DialTimeout("tcp", listener.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// Give the accept loop a moment to process the connection before
	// stopping, so Stop() exercises the "already idle" shutdown path.
	time.Sleep(50 * time.Millisecond)

	srv.Stop()
}

func TestTCPServerStartFailsOnInvalidPort(t *testing.T) {
	system := protoactor.NewActorSystem()
	simPID := system.Root.Spawn(protoactor.PropsFromProducer(func() protoactor.Actor { return noopActor{} }))

	srv := NewTCPServer(-1, system, simPID)
	if err := srv.Start(); err == nil {
		t.Errorf("Start() with an invalid port should return an error")
	}
}

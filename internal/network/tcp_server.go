// Package network implements the TCP accept loop that spawns one
// SessionActor per connection, grounded on the teacher's own
// internal/network.TCPServer but driven by the framed protocol codec
// instead of a newline/length-prefixed JSON chat stream.
package network

import (
	"net"
	"strconv"
	"sync"

	protoactor "github.com/asynkron/protoactor-go/actor"

	sessionactor "github.com/rlbot-go/matchserver/internal/actor"
	"github.com/rlbot-go/matchserver/internal/actor/messages"
	"github.com/rlbot-go/matchserver/internal/utils"
)

// TCPServer owns the listening socket and spawns a SessionActor for each
// accepted connection (spec §4.1, §4.3).
type TCPServer struct {
	listener    net.Listener
	port        int
	actorSystem *protoactor.ActorSystem
	simPID      *protoactor.PID
	wg          sync.WaitGroup
	shutdown    chan struct{}
}

// NewTCPServer constructs a TCPServer bound to the given simulation actor.
func NewTCPServer(port int, system *protoactor.ActorSystem, simPID *protoactor.PID) *TCPServer {
	return &TCPServer{
		port:        port,
		actorSystem: system,
		simPID:      simPID,
		shutdown:    make(chan struct{}),
	}
}

// Start begins listening and accepting connections in a background
// goroutine.
func (s *TCPServer) Start() error {
	listenAddr := ":" + strconv.Itoa(s.port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener
	utils.LogInfof("TCP server listening on %s", listenAddr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *TCPServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				utils.LogInfo("TCP accept loop shutting down.")
				return
			default:
				utils.LogWarnf("Error accepting connection: %v", err)
				continue
			}
		}
		utils.LogInfof("Accepted connection from %s", conn.RemoteAddr())
		s.spawnSession(conn)
	}
}

func (s *TCPServer) spawnSession(conn net.Conn) {
	props := sessionactor.PropsForSession(s.simPID)
	pid := s.actorSystem.Root.Spawn(props)
	s.actorSystem.Root.Send(pid, &messages.ClientConnected{Conn: conn})
}

// Stop closes the listener and waits for the accept loop to exit.
func (s *TCPServer) Stop() {
	close(s.shutdown)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	utils.LogInfo("TCP server stopped.")
}

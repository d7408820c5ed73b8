// Package visualizer implements the optional UDP bridge to an external
// match viewer, grounded on original_source/exe/src/viser.rs's
// ExternalManager and the teacher's own BroadcasterActor fan-out idiom.
package visualizer

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os/exec"

	"github.com/rlbot-go/matchserver/internal/protocol"
	"github.com/rlbot-go/matchserver/internal/utils"
)

// packetType is the 1-byte discriminator prefixing every datagram exchanged
// with the visualizer process (spec §4.6).
type packetType byte

const (
	packetQuit             packetType = 0
	packetGameState        packetType = 1
	packetHandshake        packetType = 2
	packetPaused           packetType = 3
	packetSpeed            packetType = 4
	packetRenderGroup      packetType = 5
)

// Bridge owns the UDP socket used to push GameState snapshots and render
// groups to, and receive Paused/Speed control messages from, an external
// visualizer process (spec §4.6).
type Bridge struct {
	conn   *net.UDPConn
	peer   *net.UDPAddr
	onPause func(bool)
	onSpeed func(float32)
}

// Dial binds a UDP socket on listenAddr, optionally spawns the external
// viewer binary, and blocks until it sends the single-byte handshake
// datagram (spec §4.6, grounded on viser.rs's ExternalManager::new).
func Dial(listenAddr, viewerPath string) (*Bridge, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving visualizer listen address %s: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding visualizer socket %s: %w", listenAddr, err)
	}

	if viewerPath != "" {
		cmd := exec.Command(viewerPath)
		if err := cmd.Start(); err != nil {
			utils.LogWarnf("visualizer: failed to launch %s: %v", viewerPath, err)
		} else {
			go func() { _ = cmd.Wait() }()
		}
	}

	buf := make([]byte, 1)
	n, peer, err := conn.ReadFromUDP(buf)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("waiting for visualizer handshake: %w", err)
	}
	if n != 1 || packetType(buf[0]) != packetHandshake {
		conn.Close()
		return nil, fmt.Errorf("unexpected visualizer handshake byte %v", buf[:n])
	}

	utils.LogInfof("Visualizer connected from %s", peer)
	return &Bridge{conn: conn, peer: peer}, nil
}

// OnPause/OnSpeed register callbacks invoked when the visualizer requests
// a pause toggle or a simulation-speed change (spec §4.6).
func (b *Bridge) OnPause(cb func(paused bool)) { b.onPause = cb }
func (b *Bridge) OnSpeed(cb func(speed float32)) { b.onSpeed = cb }

// Listen runs the inbound read loop until the socket closes; call it in
// its own goroutine.
func (b *Bridge) Listen() {
	buf := make([]byte, 65536)
	for {
		n, _, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		b.handleInbound(buf[0], buf[1:n])
	}
}

func (b *Bridge) handleInbound(kind byte, payload []byte) {
	switch packetType(kind) {
	case packetPaused:
		if len(payload) >= 1 && b.onPause != nil {
			b.onPause(payload[0] != 0)
		}
	case packetSpeed:
		if len(payload) >= 4 && b.onSpeed != nil {
			bits := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
			b.onSpeed(math.Float32frombits(bits))
		}
	default:
		utils.LogWarnf("visualizer: unexpected inbound packet type %d", kind)
	}
}

// SendGameState pushes one GamePacket snapshot to the visualizer as a
// type-prefixed JSON datagram (spec §4.6). JSON stands in for the native
// binary GameState encoding the same way it does for the client protocol
// (internal/protocol.Codec).
func (b *Bridge) SendGameState(pkt protocol.GamePacket) {
	body, err := json.Marshal(pkt)
	if err != nil {
		utils.LogErrorf("visualizer: failed to encode game state: %v", err)
		return
	}
	b.send(packetGameState, body)
}

// SendRenderGroup forwards a debug-draw render group verbatim.
func (b *Bridge) SendRenderGroup(content []byte) {
	b.send(packetRenderGroup, content)
}

// Close sends the quit datagram and releases the socket.
func (b *Bridge) Close() error {
	b.send(packetQuit, nil)
	return b.conn.Close()
}

func (b *Bridge) send(kind packetType, body []byte) {
	if _, err := b.conn.WriteToUDP([]byte{byte(kind)}, b.peer); err != nil {
		utils.LogWarnf("visualizer: failed to send packet type %d: %v", kind, err)
		return
	}
	if len(body) == 0 {
		return
	}
	if _, err := b.conn.WriteToUDP(body, b.peer); err != nil {
		utils.LogWarnf("visualizer: failed to send payload for packet type %d: %v", kind, err)
	}
}

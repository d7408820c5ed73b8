package actor

import (
	"net"
	"testing"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rlbot-go/matchserver/internal/actor/messages"
	"github.com/rlbot-go/matchserver/internal/metrics"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

// newPipedSessionActor wires a SessionActor directly to one end of a
// net.Pipe, bypassing onConnected's protoactor.Context dependency so
// handleConnectionSettingsAck/writeFrame/writeRaw can be exercised without a
// running actor system. The caller gets a codec over the other end of the
// pipe to read whatever the session writes.
func newPipedSessionActor(t *testing.T) (*SessionActor, *protocol.Codec) {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	a := &SessionActor{conn: serverConn, codec: protocol.NewCodec(serverConn)}
	a.outbound = make(chan outboundFrame, outboundQueueSize)
	a.stopWriting = make(chan struct{})
	a.writerDone = make(chan struct{})
	a.startWriter()

	t.Cleanup(func() {
		close(a.stopWriting)
		<-a.writerDone
		serverConn.Close()
		clientConn.Close()
	})
	return a, protocol.NewCodec(clientConn)
}

func TestHandleConnectionSettingsAckWritesMatchConfigFieldInfoAndControllableTeamInfo(t *testing.T) {
	a, clientCodec := newPipedSessionActor(t)

	fieldInfo := &protocol.FieldInfo{Goals: [2]protocol.GoalInfo{{TeamNum: 0}, {TeamNum: 1}}}
	teamInfo := &protocol.ControllableTeamInfoPayload{Team: 0}

	a.handleConnectionSettingsAck(&messages.ConnectionSettingsAck{
		MatchConfig:          []byte(`{"game_mode":"soccer"}`),
		FieldInfo:            fieldInfo,
		ControllableTeamInfo: teamInfo,
	})

	msgType, payload := readClientFrame(t, clientCodec)
	if msgType != protocol.MsgMatchConfig {
		t.Fatalf("first frame type = %v, want MsgMatchConfig", msgType)
	}
	if string(payload) != `{"game_mode":"soccer"}` {
		t.Errorf("MatchConfig payload = %s, want verbatim raw bytes", payload)
	}

	msgType, _ = readClientFrame(t, clientCodec)
	if msgType != protocol.MsgFieldInfo {
		t.Fatalf("second frame type = %v, want MsgFieldInfo", msgType)
	}

	msgType, _ = readClientFrame(t, clientCodec)
	if msgType != protocol.MsgControllableTeamInfo {
		t.Fatalf("third frame type = %v, want MsgControllableTeamInfo", msgType)
	}
}

// readClientFrame reads one frame with a generous timeout, failing the test
// on error. Used where the test only has a *protocol.Codec (not the raw
// net.Conn) to set a read deadline on.
func readClientFrame(t *testing.T, codec *protocol.Codec) (protocol.MessageType, []byte) {
	t.Helper()
	type result struct {
		msgType protocol.MessageType
		payload []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		msgType, payload, err := codec.ReadFrame()
		done <- result{msgType, payload, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("ReadFrame: %v", r.err)
		}
		return r.msgType, r.payload
	case <-time.After(time.Second):
		t.Fatalf("ReadFrame: timed out waiting for a frame")
		return 0, nil
	}
}

func TestHandleConnectionSettingsAckSkipsAbsentFields(t *testing.T) {
	a, clientCodec := newPipedSessionActor(t)

	a.handleConnectionSettingsAck(&messages.ConnectionSettingsAck{
		MatchConfig: []byte(`{}`),
		// FieldInfo and ControllableTeamInfo left nil: no match applied yet,
		// no reservation found for this session's agent_id.
	})

	msgType, _ := readClientFrame(t, clientCodec)
	if msgType != protocol.MsgMatchConfig {
		t.Fatalf("frame type = %v, want MsgMatchConfig", msgType)
	}

	done := make(chan struct{})
	go func() {
		codec := clientCodec
		codec.ReadFrame()
		close(done)
	}()
	select {
	case <-done:
		t.Errorf("a second frame was written, but FieldInfo/ControllableTeamInfo were both nil")
	case <-time.After(150 * time.Millisecond):
		// expected: nothing further was written.
	}
}

func TestEnqueueDropsOldestOnOverflow(t *testing.T) {
	a := &SessionActor{outbound: make(chan outboundFrame, 2)}
	before := testutil.ToFloat64(metrics.DroppedBroadcastFrames)

	a.writeRaw(protocol.MsgGamePacket, []byte("1"))
	a.writeRaw(protocol.MsgGamePacket, []byte("2"))
	a.writeRaw(protocol.MsgGamePacket, []byte("3")) // queue is full; "1" must be dropped, not "3"

	if len(a.outbound) != 2 {
		t.Fatalf("queue length = %d, want 2 (bounded, never blocks the caller)", len(a.outbound))
	}
	oldestSurviving := <-a.outbound
	if string(oldestSurviving.payload) != "2" {
		t.Errorf("oldest surviving frame payload = %q, want %q (frame \"1\" should have been evicted)", oldestSurviving.payload, "2")
	}
	newest := <-a.outbound
	if string(newest.payload) != "3" {
		t.Errorf("newest frame payload = %q, want %q", newest.payload, "3")
	}

	after := testutil.ToFloat64(metrics.DroppedBroadcastFrames)
	if after <= before {
		t.Errorf("DroppedBroadcastFrames did not increment on overflow: before=%v after=%v", before, after)
	}
}

func TestWriteRawIsNoopBeforeOutboundQueueExists(t *testing.T) {
	a := &SessionActor{}
	// Should not panic: a session with no connection yet (outbound is nil)
	// silently drops writes rather than blocking or crashing.
	a.writeRaw(protocol.MsgGamePacket, []byte("x"))
}

// noopSimActor stands in for the simulation actor in tests that only
// exercise SessionActor's own message handling.
type noopSimActor struct{}

func (noopSimActor) Receive(ctx protoactor.Context) {}

func TestStopCommandBroadcastClosesSessionOnlyWhenCloseIsSet(t *testing.T) {
	system := protoactor.NewActorSystem()
	simPID := system.Root.Spawn(protoactor.PropsFromProducer(func() protoactor.Actor { return noopSimActor{} }))

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	clientCodec := protocol.NewCodec(clientConn)

	sessionPID := system.Root.Spawn(PropsForSession(simPID))
	system.Root.Send(sessionPID, &messages.ClientConnected{Conn: serverConn})
	time.Sleep(20 * time.Millisecond)

	system.Root.Send(sessionPID, &messages.StopCommandBroadcast{Forced: false, Close: false})

	// A non-closing StopCommand still writes the frame but must not tear
	// down the connection.
	msgType, _ := readClientFrame(t, clientCodec)
	if msgType != protocol.MsgStopCommand {
		t.Fatalf("frame type = %v, want MsgStopCommand", msgType)
	}

	clientConn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	buf := make([]byte, 1)
	if _, err := clientConn.Read(buf); err == nil {
		t.Errorf("connection produced more data; want it to stay open and idle after a non-closing StopCommand")
	}

	system.Root.Send(sessionPID, &messages.StopCommandBroadcast{Forced: false, Close: true})

	// Drain the second StopCommand frame (the one that should trigger a
	// close), then the connection must be torn down by the session's own
	// cleanup — surfacing as a read error once there is nothing left to
	// flush.
	readClientFrame(t, clientCodec)
	clientConn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := clientConn.Read(buf); err == nil {
		t.Errorf("connection should be closed after a Close=true StopCommandBroadcast")
	}
}

package actor

import (
	"io"
	"net"

	protoactor "github.com/asynkron/protoactor-go/actor"

	"github.com/rlbot-go/matchserver/internal/actor/messages"
	"github.com/rlbot-go/matchserver/internal/metrics"
	"github.com/rlbot-go/matchserver/internal/protocol"
	"github.com/rlbot-go/matchserver/internal/utils"
)

// outboundQueueSize bounds each session's pending-write queue (spec §5, §9:
// the simulation actor must never wait on a slow client).
const outboundQueueSize = 256

// outboundFrame is one already-encoded frame waiting to be written to the
// socket by the writer goroutine.
type outboundFrame struct {
	msgType protocol.MessageType
	payload []byte
}

// SessionActor manages one client's TCP connection: decoding inbound
// frames, routing them to the simulation actor, and re-framing outbound
// broadcasts back onto the socket. Grounded on the teacher's
// PlayerSessionActor, generalized from its JSON-over-length-prefix chat
// protocol to the typed (type, payload) frame taxonomy of this domain.
type SessionActor struct {
	simPID *protoactor.PID

	conn  net.Conn
	codec *protocol.Codec

	agentID     string
	stopReading chan struct{}

	outbound    chan outboundFrame
	stopWriting chan struct{}
	writerDone  chan struct{}
}

// NewSessionActor constructs a SessionActor bound to a simulation actor.
func NewSessionActor(simPID *protoactor.PID) protoactor.Actor {
	return &SessionActor{simPID: simPID}
}

// PropsForSession builds actor.Props for a SessionActor.
func PropsForSession(simPID *protoactor.PID) *protoactor.Props {
	return protoactor.PropsFromProducer(func() protoactor.Actor {
		return NewSessionActor(simPID)
	})
}

func (a *SessionActor) Receive(ctx protoactor.Context) {
	switch msg := ctx.Message().(type) {
	case *protoactor.Started:
		utils.LogDebugf("[%s] SessionActor started.", ctx.Self().Id)

	case *protoactor.Stopping:
		a.cleanup(ctx)

	case *messages.ClientConnected:
		a.onConnected(ctx, msg.Conn)

	case *messages.ClientFrame:
		a.handleFrame(ctx, protocol.MessageType(msg.Type), msg.Payload)

	case *messages.ClientDisconnected:
		utils.LogInfof("[%s] Session disconnected: %s", ctx.Self().Id, msg.Reason)
		ctx.Stop(ctx.Self())

	case *messages.ConnectionSettingsAck:
		a.handleConnectionSettingsAck(msg)

	case *messages.GamePacketBroadcast:
		a.writeFrame(protocol.MsgGamePacket, msg.Packet)

	case *messages.BallPredictionBroadcast:
		a.writeFrame(protocol.MsgBallPrediction, msg.Prediction)

	case *messages.MatchConfigBroadcast:
		a.writeRaw(protocol.MsgMatchConfig, msg.Bytes)

	case *messages.FieldInfoBroadcast:
		a.writeFrame(protocol.MsgFieldInfo, msg.FieldInfo)

	case *messages.MatchCommBroadcast:
		a.writeFrame(protocol.MsgMatchComm, msg.Payload)

	case *messages.StopCommandBroadcast:
		a.writeFrame(protocol.MsgStopCommand, protocol.StopCommandPayload{ShutdownServer: msg.Forced})
		if msg.Close {
			ctx.Stop(ctx.Self())
		}

	default:
		utils.LogWarnf("[%s] SessionActor received unhandled message type %T", ctx.Self().Id, msg)
	}
}

func (a *SessionActor) onConnected(ctx protoactor.Context, conn net.Conn) {
	a.conn = conn
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	a.codec = protocol.NewCodec(conn)
	a.stopReading = make(chan struct{})
	a.outbound = make(chan outboundFrame, outboundQueueSize)
	a.stopWriting = make(chan struct{})
	a.writerDone = make(chan struct{})
	a.startWriter()

	ctx.Send(a.simPID, &messages.RegisterSession{SessionPID: ctx.Self()})

	self := ctx.Self()
	system := ctx.ActorSystem()
	codec := a.codec
	stop := a.stopReading
	go func() {
		for {
			msgType, payload, err := codec.ReadFrame()
			if err != nil {
				reason := "read error"
				if err == protocol.ErrDisconnected || err == io.EOF {
					reason = "client closed connection"
				}
				select {
				case <-stop:
					return
				default:
				}
				system.Root.Send(self, &messages.ClientDisconnected{Reason: reason})
				return
			}
			system.Root.Send(self, &messages.ClientFrame{Type: uint16(msgType), Payload: payload})
		}
	}()

	utils.LogInfof("[%s] Session connected: %s", ctx.Self().Id, conn.RemoteAddr())
}

// startWriter drains a.outbound onto the socket on its own goroutine, so a
// slow or stalled client blocks only this goroutine's write call, never the
// SessionActor's own mailbox dispatch. On stop it flushes whatever was
// already queued (e.g. a StopCommand frame enqueued right before shutdown)
// before exiting, so cleanup's conn.Close never races a pending write.
func (a *SessionActor) startWriter() {
	codec := a.codec
	outbound := a.outbound
	stop := a.stopWriting
	done := a.writerDone
	go func() {
		defer close(done)
		for {
			select {
			case frame, ok := <-outbound:
				if !ok {
					return
				}
				if err := codec.WriteFrame(frame.msgType, frame.payload); err != nil {
					utils.LogWarnf("writing %s frame failed: %v", frame.msgType, err)
					return
				}
			case <-stop:
				for {
					select {
					case frame := <-outbound:
						if err := codec.WriteFrame(frame.msgType, frame.payload); err != nil {
							utils.LogWarnf("writing %s frame failed: %v", frame.msgType, err)
							return
						}
					default:
						return
					}
				}
			}
		}
	}()
}

func (a *SessionActor) handleFrame(ctx protoactor.Context, msgType protocol.MessageType, payload []byte) {
	switch msgType {
	case protocol.MsgConnectionSettings:
		var settings protocol.ConnectionSettingsPayload
		if err := protocol.Decode(payload, &settings); err != nil {
			utils.LogWarnf("[%s] malformed ConnectionSettings: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		a.agentID = settings.AgentID
		ctx.Request(a.simPID, &messages.ConnectionSettingsMsg{SessionPID: ctx.Self(), Settings: settings})

	case protocol.MsgStartCommand:
		var p protocol.StartCommandPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed StartCommand: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.StartCommandMsg{ConfigPath: p.ConfigPath})

	case protocol.MsgPlayerInput:
		var p protocol.PlayerInputPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed PlayerInput: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.PlayerInputMsg{Payload: p})

	case protocol.MsgDesiredGameState:
		var p protocol.DesiredGameStatePayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed DesiredGameState: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.DesiredGameStateMsg{Payload: p})

	case protocol.MsgRenderGroup:
		var p protocol.RenderGroupPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed RenderGroup: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.RenderGroupMsg{Payload: p})

	case protocol.MsgRemoveRenderGroup:
		var p protocol.RemoveRenderGroupPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed RemoveRenderGroup: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.RemoveRenderGroupMsg{Payload: p})

	case protocol.MsgSetLoadout:
		var p protocol.SetLoadoutPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed SetLoadout: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.SetLoadoutMsg{Payload: p})

	case protocol.MsgMatchComm:
		var p protocol.MatchCommPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed MatchComm: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.MatchCommMsg{SenderPID: ctx.Self(), Payload: p})

	case protocol.MsgStopCommand:
		var p protocol.StopCommandPayload
		if err := protocol.Decode(payload, &p); err != nil {
			utils.LogWarnf("[%s] malformed StopCommand: %v (%s)", ctx.Self().Id, err, protocol.Summarize(payload))
			return
		}
		ctx.Send(a.simPID, &messages.StopCommandMsg{ShutdownServer: p.ShutdownServer})

	default:
		utils.LogWarnf("[%s] unexpected inbound message type %s", ctx.Self().Id, msgType)
	}
}

// handleConnectionSettingsAck writes the one-shot MatchConfig/FieldInfo/
// ControllableTeamInfo reply sequence (spec §4.3, §9).
func (a *SessionActor) handleConnectionSettingsAck(ack *messages.ConnectionSettingsAck) {
	if ack.MatchConfig != nil {
		a.writeRaw(protocol.MsgMatchConfig, ack.MatchConfig)
	}
	if ack.FieldInfo != nil {
		a.writeFrame(protocol.MsgFieldInfo, *ack.FieldInfo)
	}
	if ack.ControllableTeamInfo != nil {
		a.writeFrame(protocol.MsgControllableTeamInfo, *ack.ControllableTeamInfo)
	}
}

func (a *SessionActor) writeFrame(msgType protocol.MessageType, v interface{}) {
	payload, err := protocol.Encode(msgType, v)
	if err != nil {
		utils.LogErrorf("encoding %s for session: %v", msgType, err)
		return
	}
	a.writeRaw(msgType, payload)
}

func (a *SessionActor) writeRaw(msgType protocol.MessageType, payload []byte) {
	if a.outbound == nil {
		return
	}
	a.enqueue(outboundFrame{msgType: msgType, payload: payload})
}

// enqueue pushes a frame onto the bounded outbound queue, dropping the
// oldest queued frame to make room on overflow (spec §5, §9: a slow client
// loses stale frames rather than ever blocking the broadcaster). Called
// only from the actor's own goroutine, so there is exactly one producer.
func (a *SessionActor) enqueue(frame outboundFrame) {
	select {
	case a.outbound <- frame:
		return
	default:
	}

	select {
	case <-a.outbound:
		metrics.DroppedBroadcastFrames.Inc()
	default:
	}

	select {
	case a.outbound <- frame:
	default:
		metrics.DroppedBroadcastFrames.Inc()
	}
}

func (a *SessionActor) cleanup(ctx protoactor.Context) {
	if a.stopReading != nil {
		close(a.stopReading)
	}
	if a.stopWriting != nil {
		close(a.stopWriting)
		<-a.writerDone // let the writer flush anything already queued first
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
	ctx.Send(a.simPID, &messages.UnregisterSession{SessionPID: ctx.Self()})
}

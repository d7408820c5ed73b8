package messages

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/rlbot-go/matchserver/internal/configs"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

// RegisterSession tells the SimulationActor a new session has subscribed
// to broadcasts; SessionPID carries the SessionActor's PID so the simulation
// actor can Send GamePacket/BallPrediction/MatchComm frames directly.
type RegisterSession struct {
	SessionPID *actor.PID
}

// UnregisterSession removes a session from the broadcast subscriber set,
// sent when a SessionActor stops.
type UnregisterSession struct {
	SessionPID *actor.PID
}

// ConnectionSettingsMsg carries a session's freshly received
// ConnectionSettings to the simulation actor, which uses it both to filter
// future broadcasts to that session and to answer the one-shot
// MatchConfig/FieldInfo/ControllableTeamInfo request dance (spec §4.3).
type ConnectionSettingsMsg struct {
	SessionPID *actor.PID
	Settings   protocol.ConnectionSettingsPayload
}

// ConnectionSettingsAck is the simulation actor's one-shot reply to
// ConnectionSettingsMsg: cached MatchConfig/FieldInfo bytes (nil if no
// match yet) and a ControllableTeamInfo reply (nil if agent_id is empty
// or nothing matched).
type ConnectionSettingsAck struct {
	MatchConfig          []byte
	FieldInfo            *protocol.FieldInfo
	ControllableTeamInfo *protocol.ControllableTeamInfoPayload
}

// StartCommandMsg asks the simulation actor to parse a match-configuration
// file and apply it (spec §4.2, §6).
type StartCommandMsg struct {
	ConfigPath string
}

// MatchConfigMsg carries a client-supplied, already-deserialized match
// configuration to apply directly (as opposed to StartCommandMsg's
// file-path indirection).
type MatchConfigMsg struct {
	Config *configs.MatchConfig
}

// PlayerInputMsg forwards one controllable's control vector for the
// current tick.
type PlayerInputMsg struct {
	Payload protocol.PlayerInputPayload
}

// DesiredGameStateMsg forwards a partial state-edit request.
type DesiredGameStateMsg struct {
	Payload protocol.DesiredGameStatePayload
}

// RenderGroupMsg/RemoveRenderGroupMsg/SetLoadoutMsg/MatchCommMsg are opaque
// to the simulation core (spec §4.4): RenderGroupMsg is forwarded to the
// visualizer bridge when one is attached, MatchCommMsg is rebroadcast
// verbatim to every session that opted in to comms (the sender included),
// and RemoveRenderGroupMsg/SetLoadoutMsg are accepted and dropped.
type RenderGroupMsg struct {
	Payload protocol.RenderGroupPayload
}

type RemoveRenderGroupMsg struct {
	Payload protocol.RemoveRenderGroupPayload
}

type SetLoadoutMsg struct {
	Payload protocol.SetLoadoutPayload
}

type MatchCommMsg struct {
	SenderPID *actor.PID
	Payload   protocol.MatchCommPayload
}

// StopCommandMsg requests session/server shutdown; ShutdownServer mirrors
// shutdown_server, the wire flag the simulation actor received (spec §4.3,
// §4.4). Whether any individual session actually closes is decided
// per-session against ShutdownServer OR that session's own
// close_between_matches preference — see StopCommandBroadcast.Close.
type StopCommandMsg struct {
	ShutdownServer bool
}

// VisualizerPauseMsg/VisualizerSpeedMsg carry a control request the
// visualizer bridge received on its own read-loop goroutine back into the
// simulation actor's mailbox, keeping all arena-state mutation inside
// Receive (spec §4.6).
type VisualizerPauseMsg struct {
	Paused bool
}

type VisualizerSpeedMsg struct {
	Speed float32
}

// GamePacketBroadcast/BallPredictionBroadcast/MatchConfigBroadcast/
// FieldInfoBroadcast/MatchCommBroadcast/StopCommandBroadcast are pushed
// from the simulation actor to registered sessions. GamePacket, MatchComm,
// and BallPrediction are only ever sent to sessions whose ConnectionSettings
// already opted in (the simulation actor filters before Send — spec §4.3);
// a SessionActor that receives one always forwards it to its socket.
type GamePacketBroadcast struct {
	Packet protocol.GamePacket
}

type BallPredictionBroadcast struct {
	Prediction protocol.BallPrediction
}

type MatchConfigBroadcast struct {
	Bytes []byte
}

type FieldInfoBroadcast struct {
	FieldInfo protocol.FieldInfo
}

type MatchCommBroadcast struct {
	SenderPID *actor.PID
	Payload   protocol.MatchCommPayload
}

// StopCommandBroadcast carries the wire-level Forced flag (shutdown_server,
// sent to every session unchanged) plus a per-recipient Close decision:
// true when this session must disconnect, either because the stop was
// forced or because this particular session asked for
// close_between_matches (spec §4.3, §9).
type StopCommandBroadcast struct {
	Forced bool
	Close  bool
}

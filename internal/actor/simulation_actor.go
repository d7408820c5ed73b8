// Package actor hosts the protoactor-go actors that make up the
// match-coordination server: the simulation actor (this file) and the
// per-connection session actor (session_actor.go), grounded on the
// teacher's RoomActor/PlayerSessionActor pair but generalized to the
// vehicle-soccer domain.
package actor

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"github.com/rlbot-go/matchserver/internal/arena"
	"github.com/rlbot-go/matchserver/internal/actor/messages"
	"github.com/rlbot-go/matchserver/internal/configs"
	"github.com/rlbot-go/matchserver/internal/metrics"
	"github.com/rlbot-go/matchserver/internal/protocol"
	"github.com/rlbot-go/matchserver/internal/utils"
	"github.com/rlbot-go/matchserver/internal/visualizer"
)

// GameStatus is the lifecycle enum driving the simulation actor's state
// machine (spec §3, §4.4).
type GameStatus string

const (
	StatusInactive  GameStatus = "Inactive"
	StatusCountdown GameStatus = "Countdown"
	StatusKickoff   GameStatus = "Kickoff"
	StatusActive    GameStatus = "Active"
	StatusPaused    GameStatus = "Paused"
	StatusEnded     GameStatus = "Ended"
)

// TPS is the fixed tick rate, 120 Hz (spec §4.4).
const TPS = 120

// countdownTicks is 3 seconds of countdown = 3·TPS ticks.
const countdownTicks = 3 * TPS

// tickMsg is the internal self-message a ticker goroutine sends into the
// actor's own mailbox, grounded on lguibr-pongo's GameActor: the tick
// driver lives outside the actor (a goroutine around time.Ticker) so the
// actor's Receive stays the single place that ever mutates arena state.
type tickMsg struct{}

// sessionSub is one registered broadcast subscriber: its PID plus the
// ConnectionSettings it has sent (a zero value means "no settings yet",
// meaning no GamePacket is pushed, per spec §4.3).
type sessionSub struct {
	pid      *protoactor.PID
	settings protocol.ConnectionSettingsPayload
	hasSettings bool
}

// SimulationActor is the single authoritative owner of arena state: the
// physics arena, the lifecycle state machine, the agent-reservation
// table, the packet assembler, and the prediction sub-arena (spec §4.4).
type SimulationActor struct {
	arenaFactory arena.Factory
	visBridge    *visualizer.Bridge

	self *protoactor.PID

	matchID     uuid.UUID
	mode        configs.GameMode
	status      GameStatus
	arena       arena.Arena
	predictor   *BallPredictor
	reservation *AgentReservation

	countdownTicksLeft int
	countdownEndTick   uint64
	gameSpeed          float32

	matchConfigBytes []byte
	fieldInfo        *protocol.FieldInfo

	blueScore   uint32 // atomic
	orangeScore uint32 // atomic
	needsReset  int32  // atomic bool

	sessions map[string]*sessionSub

	stopTicker chan struct{}
}

// NewSimulationActor constructs a SimulationActor. visBridge may be nil if
// no visualizer is attached.
func NewSimulationActor(factory arena.Factory, visBridge *visualizer.Bridge) protoactor.Actor {
	return &SimulationActor{
		arenaFactory: factory,
		visBridge:    visBridge,
		status:       StatusInactive,
		reservation:  NewAgentReservation(),
		gameSpeed:    1.0,
		sessions:     make(map[string]*sessionSub),
	}
}

// PropsForSimulation builds actor.Props for a SimulationActor.
func PropsForSimulation(factory arena.Factory, visBridge *visualizer.Bridge) *protoactor.Props {
	return protoactor.PropsFromProducer(func() protoactor.Actor {
		return NewSimulationActor(factory, visBridge)
	})
}

func (a *SimulationActor) Receive(ctx protoactor.Context) {
	switch msg := ctx.Message().(type) {
	case *protoactor.Started:
		a.self = ctx.Self()
		a.startTicker(ctx)
		a.wireVisualizerCallbacks(ctx)
		utils.LogInfo("SimulationActor started.")

	case *protoactor.Stopping:
		a.stopTickerFn()
		utils.LogInfo("SimulationActor stopping.")

	case *tickMsg:
		a.handleTick(ctx)

	case *messages.RegisterSession:
		a.sessions[msg.SessionPID.String()] = &sessionSub{pid: msg.SessionPID}
		metrics.ConnectedSessions.Inc()

	case *messages.UnregisterSession:
		delete(a.sessions, msg.SessionPID.String())
		metrics.ConnectedSessions.Dec()

	case *messages.ConnectionSettingsMsg:
		a.handleConnectionSettings(ctx, msg)

	case *messages.StartCommandMsg:
		cfg, err := configs.ParseMatchConfigFile(msg.ConfigPath)
		if err != nil {
			utils.LogErrorf("StartCommand: failed to parse %s: %v", msg.ConfigPath, err)
			return
		}
		a.applyMatchConfig(ctx, cfg)

	case *messages.MatchConfigMsg:
		a.applyMatchConfig(ctx, msg.Config)

	case *messages.PlayerInputMsg:
		a.handlePlayerInput(msg.Payload)

	case *messages.DesiredGameStateMsg:
		a.handleDesiredGameState(msg.Payload)

	case *messages.MatchCommMsg:
		a.broadcastMatchComm(ctx, &messages.MatchCommBroadcast{SenderPID: msg.SenderPID, Payload: msg.Payload})

	case *messages.RenderGroupMsg:
		if a.visBridge != nil {
			a.visBridge.SendRenderGroup(msg.Payload.Content)
		}

	case *messages.RemoveRenderGroupMsg:
		// Opaque to the simulation core; no bridge-side removal primitive
		// is defined by spec §4.6, so this is a semantic no-op absent a
		// visualizer render-group clear call.

	case *messages.SetLoadoutMsg:
		// Accepted and dropped: the simulation core never interprets
		// loadout contents and forwards them nowhere (spec §4.2).

	case *messages.StopCommandMsg:
		utils.LogInfof("StopCommand received: shutdown_server=%t", msg.ShutdownServer)
		a.status = StatusEnded
		a.broadcastStopCommand(ctx, msg.ShutdownServer)

	case *messages.VisualizerPauseMsg:
		if msg.Paused && a.status == StatusActive {
			a.status = StatusPaused
		} else if !msg.Paused && a.status == StatusPaused {
			a.status = StatusActive
		}

	case *messages.VisualizerSpeedMsg:
		a.gameSpeed = msg.Speed

	default:
		utils.LogWarnf("SimulationActor received unhandled message type %T", msg)
	}
}

func (a *SimulationActor) startTicker(ctx protoactor.Context) {
	a.stopTicker = make(chan struct{})
	self := ctx.Self()
	system := ctx.ActorSystem()
	stop := a.stopTicker
	go func() {
		ticker := time.NewTicker(time.Second / TPS)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				system.Root.Send(self, &tickMsg{})
			case <-stop:
				return
			}
		}
	}()
}

// wireVisualizerCallbacks bridges the visualizer's own read-loop goroutine
// (internal/visualizer.Bridge.Listen) back into the actor's mailbox, so a
// Paused/Speed datagram from the external viewer is applied inside Receive
// like any other message rather than racing arena state from another
// goroutine (spec §4.6).
func (a *SimulationActor) wireVisualizerCallbacks(ctx protoactor.Context) {
	if a.visBridge == nil {
		return
	}
	self := ctx.Self()
	system := ctx.ActorSystem()
	a.visBridge.OnPause(func(paused bool) {
		system.Root.Send(self, &messages.VisualizerPauseMsg{Paused: paused})
	})
	a.visBridge.OnSpeed(func(speed float32) {
		system.Root.Send(self, &messages.VisualizerSpeedMsg{Speed: speed})
	})
}

func (a *SimulationActor) stopTickerFn() {
	if a.stopTicker != nil {
		close(a.stopTicker)
		a.stopTicker = nil
	}
}

// handleTick performs the six per-tick responsibilities of spec §4.4:
// reconcile NEEDS_RESET, advance lifecycle, step the arena if appropriate,
// assemble and broadcast a GamePacket, rebuild and broadcast a
// BallPrediction, and push to the visualizer bridge.
func (a *SimulationActor) handleTick(ctx protoactor.Context) {
	if a.arena == nil {
		return // Inactive: no match applied yet.
	}

	if atomic.CompareAndSwapInt32(&a.needsReset, 1, 0) {
		a.status = StatusCountdown
		a.countdownTicksLeft = countdownTicks
		utils.LogInfo("Goal scored; resetting to Countdown.")
	}

	a.advanceLifecycle()

	if a.status == StatusKickoff || a.status == StatusActive {
		a.arena.Step(1)
	}

	metrics.TicksTotal.Inc()
	metrics.TeamScore.WithLabelValues("blue").Set(float64(atomic.LoadUint32(&a.blueScore)))
	metrics.TeamScore.WithLabelValues("orange").Set(float64(atomic.LoadUint32(&a.orangeScore)))

	state := a.arena.GetState()
	tickCount := a.arena.TickCount()

	pkt := assembleGamePacket(
		tickCount, a.status, a.arena.GetMutators(), a.arena.GetPadConfig(), state,
		a.reservation, atomic.LoadUint32(&a.blueScore), atomic.LoadUint32(&a.orangeScore), a.gameSpeed,
	)
	a.broadcastGamePacket(ctx, pkt)

	if a.predictor != nil {
		prediction := a.predictor.Recompute(tickCount, state.Ball)
		a.broadcastPrediction(ctx, prediction)
	}

	if a.visBridge != nil {
		a.visBridge.SendGameState(pkt)
	}
}

// advanceLifecycle runs the Countdown→Kickoff and Kickoff→Active
// transitions (spec §4.4's state-machine diagram).
func (a *SimulationActor) advanceLifecycle() {
	switch a.status {
	case StatusCountdown:
		a.countdownTicksLeft--
		if a.countdownTicksLeft%TPS == 0 {
			utils.LogInfof("Countdown: %d seconds remaining.", a.countdownTicksLeft/TPS)
		}
		if a.countdownTicksLeft <= 0 {
			a.status = StatusKickoff
			if a.arena != nil {
				a.countdownEndTick = a.arena.TickCount()
			}
		}
	case StatusKickoff:
		state := a.arena.GetState()
		for _, c := range state.Cars {
			if c.BallHitInfo.IsValid && c.BallHitInfo.TickCountWhenHit > a.countdownEndTick {
				a.status = StatusActive
				break
			}
		}
	}
}

// goalScoredCallback is registered on every new arena (spec §9): it must
// be allocation-free and re-entrancy-safe since the physics engine invokes
// it synchronously inside arena.Step. defendingTeam is the team whose goal
// the ball entered, so the opposing team's score is incremented.
func (a *SimulationActor) goalScoredCallback(defendingTeam arena.Team) {
	if defendingTeam == arena.TeamBlue {
		atomic.AddUint32(&a.orangeScore, 1)
	} else {
		atomic.AddUint32(&a.blueScore, 1)
	}
	atomic.StoreInt32(&a.needsReset, 1)
}

// applyMatchConfig runs the full match-settings-application sequence
// (spec §4.4 steps a–h).
func (a *SimulationActor) applyMatchConfig(ctx protoactor.Context, cfg *configs.MatchConfig) {
	if !configs.SupportedGameMode(cfg.GameMode) {
		utils.LogErrorf("applyMatchConfig: unsupported_game_mode %q", cfg.GameMode)
		return
	}

	newArena, err := a.arenaFactory(string(cfg.GameMode))
	if err != nil {
		utils.LogErrorf("applyMatchConfig: failed to create arena for mode %q: %v", cfg.GameMode, err)
		return
	}
	a.arena = newArena
	a.arena.SetGoalScoredCallback(a.goalScoredCallback)

	a.matchID = uuid.New()
	a.mode = cfg.GameMode
	a.reservation.SetPlayers(cfg.PlayerConfigs)

	const (
		defaultHitboxLength = 118.01
		defaultHitboxWidth  = 84.2
		defaultHitboxHeight = 36.16
	)
	hitbox := protocol.BoxShape{Length: defaultHitboxLength, Width: defaultHitboxWidth, Height: defaultHitboxHeight}
	offset := protocol.Vec3{}

	for _, slot := range a.reservation.Slots() {
		carID := a.arena.AddCar(slot.Team, hitbox, offset)
		a.reservation.BindCarID(slot.Index, carID, hitbox, offset)
	}

	a.arena.ResetKickoff()

	atomic.StoreUint32(&a.blueScore, 0)
	atomic.StoreUint32(&a.orangeScore, 0)
	atomic.StoreInt32(&a.needsReset, 0)

	if cfg.InstantStart {
		a.status = StatusKickoff
		a.countdownEndTick = a.arena.TickCount()
	} else {
		a.status = StatusCountdown
		a.countdownTicksLeft = countdownTicks
	}

	bytes, err := json.Marshal(cfg)
	if err != nil {
		utils.LogErrorf("applyMatchConfig: failed to serialize match config: %v", err)
	} else {
		a.matchConfigBytes = bytes
	}

	a.fieldInfo = buildFieldInfo(a.arena.GetPadConfig())

	predictor, err := NewBallPredictor(a.arenaFactory, string(cfg.GameMode))
	if err != nil {
		utils.LogErrorf("applyMatchConfig: failed to create prediction arena: %v", err)
	} else {
		a.predictor = predictor
	}

	a.broadcastAll(ctx, &messages.MatchConfigBroadcast{Bytes: a.matchConfigBytes})
	a.broadcastAll(ctx, &messages.FieldInfoBroadcast{FieldInfo: *a.fieldInfo})

	if cfg.AutoStartBots {
		launcher := configs.ExecLauncher{}
		for _, pc := range cfg.PlayerConfigs {
			if err := launcher.Launch(context.Background(), pc); err != nil {
				utils.LogWarnf("auto-start bot %s failed: %v", pc.Name, err)
			}
		}
	}

	utils.LogInfof("Match config applied: match_id=%s mode=%s players=%d", a.matchID, cfg.GameMode, len(cfg.PlayerConfigs))
}

func buildFieldInfo(pads []arena.PadState) *protocol.FieldInfo {
	fi := &protocol.FieldInfo{
		Goals: [2]protocol.GoalInfo{
			{TeamNum: 0, Location: arena.GoalPositions[0], Width: arena.GoalWidth, Height: arena.GoalHeight},
			{TeamNum: 1, Location: arena.GoalPositions[1], Width: arena.GoalWidth, Height: arena.GoalHeight},
		},
		BoostPads: make([]protocol.BoostPadInfo, len(pads)),
	}
	for i, p := range pads {
		fi.BoostPads[i] = protocol.BoostPadInfo{Location: p.Location, IsFullBoost: p.IsFullBoost}
	}
	return fi
}

// handlePlayerInput routes a control vector to exactly the controllable
// bound to its dense index, with no cross-talk (spec §8 property).
func (a *SimulationActor) handlePlayerInput(payload protocol.PlayerInputPayload) {
	if a.arena == nil {
		return
	}
	slot, ok := a.reservation.SlotByIndex(payload.PlayerIndex)
	if !ok {
		utils.LogWarnf("PlayerInput for unreserved index %d dropped.", payload.PlayerIndex)
		return
	}
	a.arena.SetControls(slot.CarID, payload.Controller)
}

// handleDesiredGameState applies tagged-absent partial overrides
// (spec §4.4 "Desired-game-state application").
func (a *SimulationActor) handleDesiredGameState(payload protocol.DesiredGameStatePayload) {
	if a.arena == nil {
		return
	}
	state := a.arena.GetState()

	if payload.Ball != nil {
		mergeBallState(&state.Ball, payload.Ball)
	}

	for _, carOverride := range payload.Cars {
		slot, ok := a.reservation.SlotByIndex(carOverride.Index)
		if !ok {
			continue // missing ID: silently skipped (spec §7).
		}
		for i := range state.Cars {
			if state.Cars[i].CarID == slot.CarID {
				mergeCarState(&state.Cars[i], &carOverride)
			}
		}
	}

	a.arena.SetState(state)

	if payload.GameInfo != nil {
		if payload.GameInfo.WorldGravityZ != nil {
			m := a.arena.GetMutators()
			m.GravityZ = *payload.GameInfo.WorldGravityZ
			a.arena.SetMutators(m)
		}
		if payload.GameInfo.Paused != nil {
			if *payload.GameInfo.Paused && a.status == StatusActive {
				a.status = StatusPaused
			} else if !*payload.GameInfo.Paused && a.status == StatusPaused {
				a.status = StatusActive
			}
		}
	}
}

func mergeBallState(ball *arena.BallState, override *protocol.DesiredBallState) {
	if override.Location != nil {
		ball.Physics.Location = *override.Location
	}
	if override.Rotation != nil {
		ball.Physics.Rotation = *override.Rotation
	}
	if override.Velocity != nil {
		ball.Physics.Velocity = *override.Velocity
	}
	if override.AngularVelocity != nil {
		ball.Physics.AngularVelocity = *override.AngularVelocity
	}
}

func mergeCarState(car *arena.CarState, override *protocol.DesiredCarState) {
	if override.Location != nil {
		car.Physics.Location = *override.Location
	}
	if override.Rotation != nil {
		car.Physics.Rotation = *override.Rotation
	}
	if override.Velocity != nil {
		car.Physics.Velocity = *override.Velocity
	}
	if override.AngularVelocity != nil {
		car.Physics.AngularVelocity = *override.AngularVelocity
	}
	if override.Boost != nil {
		car.Boost = *override.Boost
	}
}

// handleConnectionSettings stores a session's preferences and answers the
// one-shot MatchConfig/FieldInfo/ControllableTeamInfo request dance
// synchronously from cached bytes (spec §4.3, §9 "per-session one-shot
// request/reply").
func (a *SimulationActor) handleConnectionSettings(ctx protoactor.Context, msg *messages.ConnectionSettingsMsg) {
	sub, ok := a.sessions[msg.SessionPID.String()]
	if !ok {
		sub = &sessionSub{pid: msg.SessionPID}
		a.sessions[msg.SessionPID.String()] = sub
	}
	sub.settings = msg.Settings
	sub.hasSettings = true

	ack := messages.ConnectionSettingsAck{MatchConfig: a.matchConfigBytes, FieldInfo: a.fieldInfo}
	if msg.Settings.AgentID != "" {
		if info, found := a.reservation.ReservePlayer(msg.Settings.AgentID); found {
			ack.ControllableTeamInfo = info
		}
	}
	ctx.Respond(&ack)
}

func (a *SimulationActor) broadcastGamePacket(ctx protoactor.Context, pkt protocol.GamePacket) {
	for _, sub := range a.sessions {
		if !sub.hasSettings {
			continue
		}
		ctx.Send(sub.pid, &messages.GamePacketBroadcast{Packet: pkt})
	}
}

func (a *SimulationActor) broadcastPrediction(ctx protoactor.Context, prediction protocol.BallPrediction) {
	for _, sub := range a.sessions {
		if !sub.hasSettings || !sub.settings.WantsBallPredictions {
			continue
		}
		ctx.Send(sub.pid, &messages.BallPredictionBroadcast{Prediction: prediction})
	}
}

// broadcastMatchComm fans a chat message out only to sessions that opted in
// via wants_comms (spec §4.3's outbound-filtering table).
func (a *SimulationActor) broadcastMatchComm(ctx protoactor.Context, message *messages.MatchCommBroadcast) {
	for _, sub := range a.sessions {
		if !sub.hasSettings || !sub.settings.WantsComms {
			continue
		}
		ctx.Send(sub.pid, message)
	}
}

// broadcastStopCommand sends every session the same wire-level Forced flag
// but computes a per-recipient Close decision: a session closes iff the
// stop was forced or that session itself asked for close_between_matches
// (spec §4.3, §9) — never a single shared flag for every recipient.
func (a *SimulationActor) broadcastStopCommand(ctx protoactor.Context, forced bool) {
	for _, sub := range a.sessions {
		shouldClose := forced || sub.settings.CloseBetweenMatches
		ctx.Send(sub.pid, &messages.StopCommandBroadcast{Forced: forced, Close: shouldClose})
	}
}

// broadcastAll fans a message out to every registered session's mailbox
// unconditionally (used for MatchConfig/FieldInfo, which every session
// receives regardless of its ConnectionSettings). Per-message-type
// filtering — MatchComm on wants_comms, BallPrediction on
// wants_ball_predictions, StopCommand's forced-or-close-between-matches
// decision — lives in the dedicated broadcast* helpers above, not here.
// Slow-client tolerance (spec §5, §9) is enforced by each SessionActor's own
// bounded outbound queue (session_actor.go's enqueue), not by this method.
func (a *SimulationActor) broadcastAll(ctx protoactor.Context, message interface{}) {
	for _, sub := range a.sessions {
		ctx.Send(sub.pid, message)
	}
}

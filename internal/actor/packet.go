package actor

import (
	"math"

	"github.com/rlbot-go/matchserver/internal/arena"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

const (
	// gameDT is the fixed tick period, 1/120 s (spec §4.4).
	gameDT = 1.0 / 120.0
	// supersonicSpeedSquared is the threshold |velocity|² above which a
	// car is flagged supersonic (spec §4.4: |pos|² > 2200², the spec's own
	// wording names "pos" but the quantity being thresholded by a speed
	// constant is velocity magnitude — see DESIGN.md's open-question note).
	supersonicSpeedSquared = 2200.0 * 2200.0
	// doubleJumpMaxDelay bounds the dodge window; dodge_timeout counts
	// down from it (spec §4.4).
	doubleJumpMaxDelay = 1.25
)

// assembleGamePacket rebuilds a GamePacket from current arena state, the
// reservation/controllable table, and the score values the caller loaded
// from the SimulationActor's atomic counters (spec §4.4 "Packet assembly").
func assembleGamePacket(
	tickCount uint64,
	status GameStatus,
	mutators arena.Mutators,
	pads []arena.PadState,
	state arena.State,
	reservation *AgentReservation,
	blueScore, orangeScore uint32,
	gameSpeed float32,
) protocol.GamePacket {
	pkt := protocol.GamePacket{
		GameInfo: protocol.GameInfo{
			SecondsElapsed:    float64(tickCount) * gameDT,
			GameTimeRemaining: 0,
			GameSpeed:         gameSpeed,
			WorldGravityZ:     mutators.GravityZ,
			FrameNum:          tickCount,
			GameStatus:        string(status),
			IsOvertime:        false,
			IsUnlimitedTime:   true,
			IsRoundActive:     status == StatusKickoff || status == StatusActive,
			IsKickoffPause:    status == StatusKickoff,
			IsMatchEnded:      status == StatusEnded,
		},
		Teams: [2]protocol.TeamInfo{
			{TeamIndex: 0, Score: blueScore},
			{TeamIndex: 1, Score: orangeScore},
		},
		BoostPads: make([]protocol.BoostPadState, len(pads)),
		Balls: []protocol.BallInfo{
			{
				Physics: state.Ball.Physics,
				Shape:   protocol.SphereShape{Diameter: state.Ball.Radius * 2},
			},
		},
	}

	for i, p := range pads {
		pkt.BoostPads[i] = protocol.BoostPadState{IsActive: p.IsActive, Timer: p.Timer}
	}

	carsByID := make(map[uint32]arena.CarState, len(state.Cars))
	for _, c := range state.Cars {
		carsByID[c.CarID] = c
	}

	slots := reservation.Slots()
	pkt.Players = make([]protocol.PlayerInfo, len(slots))
	for i, slot := range slots {
		car, ok := carsByID[slot.CarID]
		if !ok {
			continue
		}
		pkt.Players[i] = buildPlayerInfo(slot, car)
	}

	return pkt
}

func buildPlayerInfo(slot *ControllableSlot, car arena.CarState) protocol.PlayerInfo {
	speedSquared := float64(car.Physics.Velocity.X*car.Physics.Velocity.X +
		car.Physics.Velocity.Y*car.Physics.Velocity.Y +
		car.Physics.Velocity.Z*car.Physics.Velocity.Z)

	info := protocol.PlayerInfo{
		Physics:           car.Physics,
		Name:              slot.Name,
		Team:              int(slot.Team),
		SpawnID:           slot.SpawnID,
		Hitbox:            slot.Hitbox,
		HitboxOffset:      slot.HitboxOffset,
		IsDemolished:      car.IsDemolished,
		DemolishedTimeout: car.DemolishedTimeout,
		HasWheelContact:   car.HasWheelContact,
		IsSupersonic:      speedSquared > supersonicSpeedSquared,
		IsBot:             true,
		AirState:          computeAirState(car),
		DodgeTimeout:      float32(math.Max(0, doubleJumpMaxDelay-float64(car.AirTimeSinceJump))),
		HasJumped:         car.HasJumped,
		HasDoubleJumped:   car.HasDoubleJumped,
		HasDodged:         car.HasDodged,
		DodgeElapsed:      car.AirTimeSinceJump,
		Boost:             car.Boost,
		LastInput:         car.LastInput,
	}

	if car.BallHitInfo.IsValid {
		info.LatestTouch = &protocol.Touch{
			PlayerName: slot.Name,
			Location: protocol.Vec3{
				X: car.Physics.Location.X + car.BallHitInfo.RelativeLocation.X,
				Y: car.Physics.Location.Y + car.BallHitInfo.RelativeLocation.Y,
				Z: car.Physics.Location.Z + car.BallHitInfo.RelativeLocation.Z,
			},
			Normal: car.BallHitInfo.RelativeNormal,
		}
	}

	return info
}

// computeAirState applies the precedence ordering from spec §4.4:
// OnGround ≻ DoubleJumping (is_jumping ∧ has_jumped) ≻ Jumping ≻ Dodging ≻ InAir.
func computeAirState(car arena.CarState) protocol.AirState {
	switch {
	case car.HasWheelContact:
		return protocol.AirStateOnGround
	case car.IsJumping && car.HasJumped:
		return protocol.AirStateDoubleJumping
	case car.IsJumping:
		return protocol.AirStateJumping
	case car.HasDodged:
		return protocol.AirStateDodging
	default:
		return protocol.AirStateInAir
	}
}

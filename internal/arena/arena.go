// Package arena defines the physics-engine boundary (spec §1): a black-box
// world with step/get_state/set_state/add_car/set_controls/
// set_goal_scored_callback/reset_kickoff/mutators/pad-config operations.
// Nothing in this repository depends on a concrete physics library; Arena
// is the interface the simulation actor programs against, and Stub (in
// stub.go) is the deterministic reference implementation used for tests
// and for running without a native engine attached.
package arena

import "github.com/rlbot-go/matchserver/internal/protocol"

// Team identifies which goal a car defends.
type Team int

const (
	TeamBlue   Team = 0
	TeamOrange Team = 1
)

// HitInfo is a car's last-touch record against the ball.
type HitInfo struct {
	IsValid        bool
	TickCountWhenHit uint64
	RelativeLocation protocol.Vec3
	RelativeNormal   protocol.Vec3
}

// CarState is one car's full physics + discrete state inside the arena.
type CarState struct {
	CarID             uint32
	Team              Team
	Physics           protocol.Physics
	Hitbox            protocol.BoxShape
	HitboxOffset      protocol.Vec3
	Boost             float32
	IsDemolished      bool
	DemolishedTimeout float32
	HasWheelContact   bool
	IsJumping         bool
	HasJumped         bool
	HasDoubleJumped   bool
	HasDodged         bool
	DodgeElapsed      float32
	AirTimeSinceJump  float32
	LastInput         protocol.ControllerState
	BallHitInfo       HitInfo
}

// BallState is the ball's physics plus its radius.
type BallState struct {
	Physics protocol.Physics
	Radius  float32
}

// Mutators are the tunable physics parameters attached to an arena.
type Mutators struct {
	GravityZ float32
}

// PadState is one boost pad's static position and per-tick availability.
type PadState struct {
	Location    protocol.Vec3
	IsFullBoost bool
	IsActive    bool
	Timer       float32
}

// GoalScoredCallback is invoked synchronously by Step when a goal is
// scored. Its argument is the team whose goal the ball entered (the
// defending team); the point belongs to the other team. Modeled as
// potentially re-entrant (spec §5, §9): it must not allocate or touch
// actor-owned state directly, only atomics.
type GoalScoredCallback func(defendingTeam Team)

// State is a full snapshot suitable for get_state/set_state round-trips
// and for seeding the prediction sub-arena's ball each tick.
type State struct {
	Ball BallState
	Cars []CarState
}

// Arena is the physics-engine boundary. Multiple instances exist
// concurrently (main arena, prediction arena) and never share state
// directly — only through explicit SetState calls.
type Arena interface {
	// Step advances the simulation by n ticks of 1/120s each.
	Step(n int)
	// GetState returns the current world state.
	GetState() State
	// SetState applies a full (or merged-then-full) world state.
	SetState(s State)
	// AddCar registers a new car on the given team with a hitbox, returning
	// its arena-assigned car_id.
	AddCar(team Team, hitbox protocol.BoxShape, hitboxOffset protocol.Vec3) uint32
	// SetControls sets the pending input for a car ahead of the next Step.
	SetControls(carID uint32, controls protocol.ControllerState)
	// SetGoalScoredCallback registers the callback invoked when a goal is
	// scored during Step.
	SetGoalScoredCallback(cb GoalScoredCallback)
	// ResetKickoff clears cars/ball back to a randomized kickoff formation.
	ResetKickoff()
	// GetMutators returns the arena's current tunable physics parameters.
	GetMutators() Mutators
	// SetMutators applies new tunable physics parameters.
	SetMutators(m Mutators)
	// GetPadConfig returns the arena's static boost pad layout, stable for
	// the arena's lifetime.
	GetPadConfig() []PadState
	// TickCount returns the number of ticks stepped so far.
	TickCount() uint64
}

// Factory constructs a fresh Arena for the given game mode. Soccer, Hoops,
// and Heatseeker are supported (spec §4.4); other modes return an error the
// caller surfaces as "unsupported_game_mode".
type Factory func(mode string) (Arena, error)

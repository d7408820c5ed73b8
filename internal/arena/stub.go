package arena

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rlbot-go/matchserver/internal/protocol"
)

// TickDT is the fixed simulation step, 1/120 s (spec §4.4).
const TickDT = 1.0 / 120.0

// Canonical field constants, grounded on original_source/exe/src/game.rs's
// build_fi_flat: two goal records at fixed positions/dimensions, ball
// radius, and a small fixed pad layout.
const (
	ballRadius = 91.25
	// GoalWidth and GoalHeight are the canonical goal dimensions, exported
	// for FieldInfo derivation outside this package (spec §4.4 step h).
	GoalWidth   = 892.755
	GoalHeight  = 642.775
	goalWidth   = GoalWidth
	goalHeight  = GoalHeight
	touchRadius = 150.0 // car-to-ball distance under which a touch registers
)

// GoalPositions holds the two canonical goal locations (team 0 then team
// 1), grounded on original_source/exe/src/game.rs's build_fi_flat.
var GoalPositions = [2]protocol.Vec3{
	{X: 0, Y: -5120, Z: goalHeight},
	{X: 0, Y: 5120, Z: goalHeight},
}

var goalPositions = GoalPositions

// defaultPadOffsets is a small fixed boost-pad layout, enough to exercise
// GetPadConfig/packet assembly without modeling the real field's full pad
// set (the pad table is opaque to this spec beyond its iteration order).
var defaultPadOffsets = []protocol.Vec3{
	{X: 0, Y: 0, Z: 0},
	{X: -3000, Y: -4100, Z: 0},
	{X: 3000, Y: -4100, Z: 0},
	{X: -3000, Y: 4100, Z: 0},
	{X: 3000, Y: 4100, Z: 0},
	{X: 0, Y: -2816, Z: 0},
	{X: 0, Y: 2816, Z: 0},
}

// Stub is a minimal deterministic kinematic Arena: linear integration of
// position by velocity, simple touch detection by distance, and goal
// detection by ball position crossing the goal plane. It exists to
// exercise every SimulationActor code path without a native physics
// engine, per SPEC_FULL's "Arena stub" addition.
type Stub struct {
	mode       string
	tickCount  uint64
	ball       BallState
	cars       []*CarState
	mutators   Mutators
	goalCB     GoalScoredCallback
	pads       []PadState
	rng        *rand.Rand
}

// NewStub constructs a Stub for the given game mode, seeded deterministically
// so repeated test runs are reproducible.
func NewStub(mode string) *Stub {
	s := &Stub{
		mode:     mode,
		mutators: Mutators{GravityZ: -650},
		rng:      rand.New(rand.NewSource(1)),
	}
	s.ball = BallState{Radius: ballRadius}
	s.pads = make([]PadState, len(defaultPadOffsets))
	for i, off := range defaultPadOffsets {
		s.pads[i] = PadState{Location: off, IsFullBoost: i == 0, IsActive: true}
	}
	s.ResetKickoff()
	return s
}

// NewStubFactory adapts NewStub to the arena.Factory signature, rejecting
// unsupported game modes per spec §4.4's match-settings-application step.
func NewStubFactory() Factory {
	return func(mode string) (Arena, error) {
		switch mode {
		case "Soccer", "Hoops", "Heatseeker":
			return NewStub(mode), nil
		default:
			return nil, fmt.Errorf("unsupported_game_mode %q", mode)
		}
	}
}

func (s *Stub) TickCount() uint64 { return s.tickCount }

func (s *Stub) Step(n int) {
	for i := 0; i < n; i++ {
		s.stepOnce()
	}
}

func (s *Stub) stepOnce() {
	s.tickCount++

	s.ball.Physics.Location.X += s.ball.Physics.Velocity.X * TickDT
	s.ball.Physics.Location.Y += s.ball.Physics.Velocity.Y * TickDT
	s.ball.Physics.Location.Z += s.ball.Physics.Velocity.Z * TickDT
	s.ball.Physics.Velocity.Z += s.mutators.GravityZ * TickDT
	if s.ball.Physics.Location.Z < ballRadius {
		s.ball.Physics.Location.Z = ballRadius
		s.ball.Physics.Velocity.Z = -s.ball.Physics.Velocity.Z * 0.6
	}

	for _, c := range s.cars {
		s.integrateCar(c)
		s.checkTouch(c)
	}

	s.checkGoal()

	for i := range s.pads {
		if !s.pads[i].IsActive {
			s.pads[i].Timer -= TickDT
			if s.pads[i].Timer <= 0 {
				s.pads[i].IsActive = true
				s.pads[i].Timer = 0
			}
		}
	}
}

func (s *Stub) integrateCar(c *CarState) {
	throttleAccel := float32(1500.0) * c.LastInput.Throttle
	c.Physics.Velocity.X += throttleAccel * TickDT * float32(math.Cos(float64(c.Physics.Rotation.Yaw)))
	c.Physics.Velocity.Y += throttleAccel * TickDT * float32(math.Sin(float64(c.Physics.Rotation.Yaw)))
	c.Physics.Rotation.Yaw += c.LastInput.Steer * TickDT * 2.0

	c.Physics.Location.X += c.Physics.Velocity.X * TickDT
	c.Physics.Location.Y += c.Physics.Velocity.Y * TickDT
	c.Physics.Location.Z += c.Physics.Velocity.Z * TickDT

	if c.Physics.Location.Z <= 17 {
		c.Physics.Location.Z = 17
		c.Physics.Velocity.Z = 0
		c.HasWheelContact = true
	} else {
		c.Physics.Velocity.Z += s.mutators.GravityZ * TickDT
		c.HasWheelContact = false
	}

	if c.LastInput.Jump && c.HasWheelContact && !c.IsJumping {
		c.IsJumping = true
		c.HasJumped = true
		c.Physics.Velocity.Z = 300
		c.AirTimeSinceJump = 0
	} else if !c.HasWheelContact {
		c.AirTimeSinceJump += TickDT
	} else {
		c.IsJumping = false
	}

	if c.LastInput.Boost && c.Boost > 0 {
		c.Boost -= 33.3 * TickDT
		if c.Boost < 0 {
			c.Boost = 0
		}
	}
}

func (s *Stub) checkTouch(c *CarState) {
	dx := c.Physics.Location.X - s.ball.Physics.Location.X
	dy := c.Physics.Location.Y - s.ball.Physics.Location.Y
	dz := c.Physics.Location.Z - s.ball.Physics.Location.Z
	dist := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
	if dist <= touchRadius {
		c.BallHitInfo = HitInfo{
			IsValid:          true,
			TickCountWhenHit: s.tickCount,
			RelativeLocation: protocol.Vec3{X: -dx, Y: -dy, Z: -dz},
		}
		s.ball.Physics.Velocity.X += (-dx / float32(dist+1)) * 50
		s.ball.Physics.Velocity.Y += (-dy / float32(dist+1)) * 50
	}
}

func (s *Stub) checkGoal() {
	loc := s.ball.Physics.Location
	if loc.Y <= goalPositions[0].Y+50 && math.Abs(float64(loc.X)) < goalWidth/2 {
		if s.goalCB != nil {
			s.goalCB(TeamBlue)
		}
		s.ResetKickoff()
		return
	}
	if loc.Y >= goalPositions[1].Y-50 && math.Abs(float64(loc.X)) < goalWidth/2 {
		if s.goalCB != nil {
			s.goalCB(TeamOrange)
		}
		s.ResetKickoff()
	}
}

func (s *Stub) GetState() State {
	cars := make([]CarState, len(s.cars))
	for i, c := range s.cars {
		cars[i] = *c
	}
	return State{Ball: s.ball, Cars: cars}
}

func (s *Stub) SetState(st State) {
	s.ball = st.Ball
	for _, override := range st.Cars {
		for _, c := range s.cars {
			if c.CarID == override.CarID {
				*c = override
			}
		}
	}
}

func (s *Stub) AddCar(team Team, hitbox protocol.BoxShape, hitboxOffset protocol.Vec3) uint32 {
	id := uint32(len(s.cars) + 1)
	car := &CarState{
		CarID:        id,
		Team:         team,
		Hitbox:       hitbox,
		HitboxOffset: hitboxOffset,
		Boost:        33,
	}
	s.placeAtKickoff(car, len(s.cars))
	s.cars = append(s.cars, car)
	return id
}

func (s *Stub) SetControls(carID uint32, controls protocol.ControllerState) {
	for _, c := range s.cars {
		if c.CarID == carID {
			c.LastInput = controls
			return
		}
	}
}

func (s *Stub) SetGoalScoredCallback(cb GoalScoredCallback) { s.goalCB = cb }

func (s *Stub) ResetKickoff() {
	jitter := float32(s.rng.Float64()*40 - 20)
	s.ball = BallState{Radius: ballRadius}
	s.ball.Physics.Location.X = jitter
	for i, c := range s.cars {
		c.BallHitInfo = HitInfo{}
		s.placeAtKickoff(c, i)
	}
}

func (s *Stub) placeAtKickoff(c *CarState, slot int) {
	side := float32(1)
	if c.Team == TeamOrange {
		side = -1
	}
	row := float32(slot/2 + 1)
	lane := float32(1)
	if slot%2 == 1 {
		lane = -1
	}
	c.Physics = protocol.Physics{
		Location: protocol.Vec3{X: lane * 500, Y: side * row * 1000, Z: 17},
		Rotation: protocol.Rotator{Yaw: float32(math.Pi/2) * -side},
	}
}

func (s *Stub) GetMutators() Mutators { return s.mutators }
func (s *Stub) SetMutators(m Mutators) { s.mutators = m }

func (s *Stub) GetPadConfig() []PadState {
	out := make([]PadState, len(s.pads))
	copy(out, s.pads)
	return out
}

package arena

import (
	"testing"

	"github.com/rlbot-go/matchserver/internal/protocol"
)

func TestNewStubPlacesCarsOnGroundAtKickoff(t *testing.T) {
	s := NewStub("Soccer")
	blueID := s.AddCar(TeamBlue, protocol.BoxShape{}, protocol.Vec3{})
	orangeID := s.AddCar(TeamOrange, protocol.BoxShape{}, protocol.Vec3{})

	state := s.GetState()
	for _, c := range state.Cars {
		if c.Physics.Location.Z != 17 {
			t.Errorf("car %d kickoff Z = %v, want 17", c.CarID, c.Physics.Location.Z)
		}
	}
	if blueID == orangeID {
		t.Errorf("AddCar returned duplicate ids: %d == %d", blueID, orangeID)
	}
}

func TestStepIsDeterministicAcrossFreshInstances(t *testing.T) {
	s1 := NewStub("Soccer")
	s1.AddCar(TeamBlue, protocol.BoxShape{}, protocol.Vec3{})
	s1.SetControls(1, protocol.ControllerState{Throttle: 1, Steer: 0.5})
	s1.Step(50)

	s2 := NewStub("Soccer")
	s2.AddCar(TeamBlue, protocol.BoxShape{}, protocol.Vec3{})
	s2.SetControls(1, protocol.ControllerState{Throttle: 1, Steer: 0.5})
	s2.Step(50)

	st1 := s1.GetState()
	st2 := s2.GetState()
	if st1.Ball.Physics.Location != st2.Ball.Physics.Location {
		t.Errorf("ball location diverged: %+v != %+v", st1.Ball.Physics.Location, st2.Ball.Physics.Location)
	}
	if st1.Cars[0].Physics.Location != st2.Cars[0].Physics.Location {
		t.Errorf("car location diverged: %+v != %+v", st1.Cars[0].Physics.Location, st2.Cars[0].Physics.Location)
	}
}

func TestTickCountIncrementsPerStep(t *testing.T) {
	s := NewStub("Soccer")
	s.Step(10)
	if s.TickCount() != 10 {
		t.Errorf("TickCount() = %d, want 10", s.TickCount())
	}
	s.Step(5)
	if s.TickCount() != 15 {
		t.Errorf("TickCount() = %d, want 15", s.TickCount())
	}
}

func TestCheckTouchRegistersWithinRadius(t *testing.T) {
	s := NewStub("Soccer")
	id := s.AddCar(TeamBlue, protocol.BoxShape{}, protocol.Vec3{})

	state := s.GetState()
	state.Cars[0].Physics.Location = state.Ball.Physics.Location
	state.Cars[0].Physics.Location.Z = state.Ball.Physics.Location.Z
	s.SetState(state)

	s.Step(1)

	after := s.GetState()
	var found bool
	for _, c := range after.Cars {
		if c.CarID == id && c.BallHitInfo.IsValid {
			found = true
		}
	}
	if !found {
		t.Errorf("expected BallHitInfo.IsValid after car is co-located with ball")
	}
}

func TestCheckGoalInvokesCallbackAndResets(t *testing.T) {
	s := NewStub("Soccer")
	var scored []Team
	s.SetGoalScoredCallback(func(team Team) {
		scored = append(scored, team)
	})

	state := s.GetState()
	state.Ball.Physics.Location = GoalPositions[0]
	state.Ball.Physics.Location.Y = GoalPositions[0].Y - 10
	state.Ball.Physics.Location.X = 0
	s.SetState(state)

	s.Step(1)

	if len(scored) != 1 || scored[0] != TeamBlue {
		t.Fatalf("scored = %+v, want [TeamBlue]", scored)
	}

	// ResetKickoff should have reset the ball to near-origin.
	after := s.GetState()
	if after.Ball.Physics.Location.Y == state.Ball.Physics.Location.Y {
		t.Errorf("ball position not reset after goal")
	}
}

func TestResetKickoffRestoresCarsToStartingFormation(t *testing.T) {
	s := NewStub("Soccer")
	id := s.AddCar(TeamBlue, protocol.BoxShape{}, protocol.Vec3{})
	s.SetControls(id, protocol.ControllerState{Throttle: 1})
	s.Step(60)

	s.ResetKickoff()
	state := s.GetState()
	if state.Cars[0].Physics.Location.Z != 17 {
		t.Errorf("car Z after ResetKickoff = %v, want 17", state.Cars[0].Physics.Location.Z)
	}
	if state.Cars[0].BallHitInfo.IsValid {
		t.Errorf("BallHitInfo should be cleared by ResetKickoff")
	}
}

func TestGetPadConfigReturnsCopyNotAlias(t *testing.T) {
	s := NewStub("Soccer")
	pads := s.GetPadConfig()
	if len(pads) == 0 {
		t.Fatalf("expected non-empty pad config")
	}
	pads[0].IsActive = false
	if s.GetPadConfig()[0].IsActive != true {
		t.Errorf("mutating returned slice affected internal pad state")
	}
}

func TestSetMutatorsGetMutatorsRoundTrip(t *testing.T) {
	s := NewStub("Soccer")
	s.SetMutators(Mutators{GravityZ: -1000})
	if got := s.GetMutators(); got.GravityZ != -1000 {
		t.Errorf("GetMutators().GravityZ = %v, want -1000", got.GravityZ)
	}
}

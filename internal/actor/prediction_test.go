package actor

import (
	"testing"

	"github.com/rlbot-go/matchserver/internal/arena"
)

func TestBallPredictorRecomputeProducesContiguousSlices(t *testing.T) {
	predictor, err := NewBallPredictor(arena.NewStubFactory(), "Soccer")
	if err != nil {
		t.Fatalf("NewBallPredictor: %v", err)
	}

	ball := arena.BallState{Radius: 92.75}
	prediction := predictor.Recompute(100, ball)

	if len(prediction.Slices) != predictionSliceCount {
		t.Fatalf("len(Slices) = %d, want %d", len(prediction.Slices), predictionSliceCount)
	}
	for i := 1; i < len(prediction.Slices); i++ {
		if prediction.Slices[i].GameSeconds <= prediction.Slices[i-1].GameSeconds {
			t.Fatalf("slice %d GameSeconds %v not strictly after slice %d's %v",
				i, prediction.Slices[i].GameSeconds, i-1, prediction.Slices[i-1].GameSeconds)
		}
	}
}

func TestBallPredictorRecomputeSeedsFromGivenBallEachCall(t *testing.T) {
	predictor, err := NewBallPredictor(arena.NewStubFactory(), "Soccer")
	if err != nil {
		t.Fatalf("NewBallPredictor: %v", err)
	}

	ballAtOrigin := arena.BallState{Radius: 92.75}
	first := predictor.Recompute(0, ballAtOrigin)

	movedBall := arena.BallState{Radius: 92.75}
	movedBall.Physics.Velocity.X = 5000
	second := predictor.Recompute(0, movedBall)

	if first.Slices[0].Physics.Location.X == second.Slices[0].Physics.Location.X {
		t.Errorf("second prediction did not reseed from the new ball state")
	}
}

func TestBallPredictorReturnsIndependentCopyEachCall(t *testing.T) {
	predictor, err := NewBallPredictor(arena.NewStubFactory(), "Soccer")
	if err != nil {
		t.Fatalf("NewBallPredictor: %v", err)
	}

	first := predictor.Recompute(0, arena.BallState{Radius: 92.75})
	second := predictor.Recompute(0, arena.BallState{Radius: 92.75})
	first.Slices[0].GameSeconds = -1
	if second.Slices[0].GameSeconds == -1 {
		t.Errorf("mutating a previously returned prediction affected a later one: buffer is shared, not copied")
	}
}

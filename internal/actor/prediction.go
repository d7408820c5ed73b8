package actor

import (
	"github.com/rlbot-go/matchserver/internal/arena"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

// predictionSliceCount is 720 slices at 1/120s = 6 seconds of lookahead
// (spec §3, §4.4).
const predictionSliceCount = 720

// BallPredictor owns the prediction sub-arena: a second, independent Arena
// pinned to the same game mode as the main arena, used only to forward-
// simulate the ball (spec §4.4 "Ball prediction").
type BallPredictor struct {
	sub    arena.Arena
	slices []protocol.PredictionSlice
}

// NewBallPredictor constructs a predictor for the given game mode.
func NewBallPredictor(factory arena.Factory, mode string) (*BallPredictor, error) {
	sub, err := factory(mode)
	if err != nil {
		return nil, err
	}
	return &BallPredictor{
		sub:    sub,
		slices: make([]protocol.PredictionSlice, predictionSliceCount),
	}, nil
}

// Recompute seeds the sub-arena's ball from the main arena's current ball
// state, steps it 720 times, and records each step's absolute game time
// and ball physics into the reused slice buffer (spec §4.4).
func (p *BallPredictor) Recompute(currentTick uint64, ball arena.BallState) protocol.BallPrediction {
	st := p.sub.GetState()
	st.Ball = ball
	p.sub.SetState(st)

	for i := 0; i < predictionSliceCount; i++ {
		p.sub.Step(1)
		snap := p.sub.GetState()
		p.slices[i] = protocol.PredictionSlice{
			GameSeconds: float64(currentTick+uint64(i+1)) * gameDT,
			Physics:     snap.Ball.Physics,
		}
	}

	out := make([]protocol.PredictionSlice, predictionSliceCount)
	copy(out, p.slices)
	return protocol.BallPrediction{Slices: out}
}

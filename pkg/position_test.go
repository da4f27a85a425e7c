package evb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionEngine_Weights(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)
	w1, w2 := p.Weights()
	assert.InDelta(t, 0.5, w1, 1e-12)
	assert.InDelta(t, 0.5, w2, 1e-12)

	d := DefaultPositionConfig().WireDistance
	p = NewPositionEngine(DefaultPositionConfig(), 1.0)
	w1, w2 = p.Weights()
	assert.InDelta(t, (d/2-1.0)/d, w1, 1e-12)
	assert.InDelta(t, 1.0, w1+w2, 1e-12)
}

func TestPositionEngine_FromReaction(t *testing.T) {
	reaction := Reaction{TargetZ: 6, TargetA: 12, BeamZ: 1, BeamA: 2, EjectileZ: 1, EjectileA: 1,
		BeamEnergy: 16, LabAngle: 35, Field: 8.7}
	var seen Reaction
	p := NewPositionEngineFromReaction(DefaultPositionConfig(), reaction, func(r Reaction) float64 {
		seen = r
		return 0.5
	})

	assert.Equal(t, reaction, seen)
	assert.Equal(t, NewPositionEngine(DefaultPositionConfig(), 0.5).w1, p.w1)
}

func TestPositionEngine_FrontPlane(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)
	hits := SelectFirstHits(CoincidenceEvent{
		DelayFrontLeft:  {hitAt(110)},
		DelayFrontRight: {hitAt(100)},
	})

	plane, ok := p.FrontPlane(hits).Get()
	require.True(t, ok)
	assert.InDelta(t, 5.0, plane.TDiff, 1e-12)
	assert.InDelta(t, 210.0, plane.TSum, 1e-12)
	assert.InDelta(t, 110.0, plane.MaxTime, 1e-12)
	assert.InDelta(t, 5.0/2.10, plane.X, 1e-9)
	assert.InDelta(t, 2.381, plane.X, 1e-3)
	assert.False(t, plane.TCheck.Present(), "tcheck needs the anode")
}

func TestPositionEngine_DelayLinePosition(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)

	plane, ok := p.Plane(Some(hitAt(105)), Some(hitAt(95)), None[Hit](), 2.10).Get()
	require.True(t, ok)
	assert.InDelta(t, 2.381, plane.X, 1e-3)
}

func TestPositionEngine_TCheck(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)
	hits := SelectFirstHits(CoincidenceEvent{
		DelayBackLeft:  {hitAt(300)},
		DelayBackRight: {hitAt(340)},
		AnodeBack:      {hitAt(250)},
	})

	plane, ok := p.BackPlane(hits).Get()
	require.True(t, ok)
	assert.InDelta(t, -20.0/1.98, plane.X, 1e-9)
	tcheck, ok := plane.TCheck.Get()
	require.True(t, ok)
	assert.InDelta(t, 320.0-250.0, tcheck, 1e-12)
}

func TestPositionEngine_SingleSidedPlane(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)
	hits := SelectFirstHits(CoincidenceEvent{
		DelayFrontLeft: {hitAt(110)},
		AnodeFront:     {hitAt(100)},
		DelayBackRight: {hitAt(90)},
	})

	assert.False(t, p.FrontPlane(hits).Present())
	assert.False(t, p.BackPlane(hits).Present())
}

func TestPositionEngine_Combine(t *testing.T) {
	p := NewPositionEngine(DefaultPositionConfig(), 0)

	xavg, theta := p.Combine(Some(2.0), Some(-2.0))
	v, ok := xavg.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-12)
	angle, ok := theta.Get()
	require.True(t, ok)
	assert.InDelta(t, math.Pi+math.Atan(-4.0/36.0), angle, 1e-12)
	assert.InDelta(t, 3.0309, angle, 1e-4)

	xavg, theta = p.Combine(Some(2.0), None[float64]())
	assert.False(t, xavg.Present())
	assert.False(t, theta.Present())

	xavg, theta = p.Combine(None[float64](), Some(1.0))
	assert.False(t, xavg.Present())
	assert.False(t, theta.Present())
}

func TestTheta(t *testing.T) {
	tests := []struct {
		name   string
		x1, x2 float64
		want   float64
	}{
		{"forward", 0, 36, math.Pi / 4},
		{"backward", 36, 0, 3 * math.Pi / 4},
		{"vertical", 5, 5, math.Pi / 2},
		{"small negative", 1, 0.5, math.Pi + math.Atan(-0.5/36)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Theta(tt.x1, tt.x2, 36)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Greater(t, got, 0.0)
			assert.Less(t, got, math.Pi)
		})
	}
}

package evb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGains(t *testing.T) *GainCalibrationMap {
	t.Helper()
	gains := NewGainCalibrationMap()
	gains.Add(5, 0, GainShift{
		T1:        0,
		T2:        100,
		Slope:     [NumCebra]float64{2, 1, 1, 1, 1},
		Intercept: [NumCebra]float64{1, 0, 0, 0, 0},
	})
	gains.SetValid(true)
	return gains
}

func fullEvent() CoincidenceEvent {
	return CoincidenceEvent{
		DelayFrontLeft:  {hitAt(105), hitAt(300)},
		DelayFrontRight: {hitAt(95)},
		DelayBackLeft:   {hitAt(96)},
		DelayBackRight:  {hitAt(100)},
		AnodeFront:      {{Channel: 0, LongEnergy: 800, Timestamp: 90}},
		AnodeBack:       {{Channel: 1, LongEnergy: 700, Timestamp: 92}},
		ScintLeft:       {{Channel: 2, LongEnergy: 1500, ShortEnergy: 300, Timestamp: 80}},
		ScintRight:      {{Channel: 3, LongEnergy: 1400, ShortEnergy: 280, Timestamp: 82}},
		CebraGroup(0):   {{Channel: 0, LongEnergy: 10, Timestamp: 50e9}},
	}
}

func TestAnalyzer_AnalyzeEvent(t *testing.T) {
	positions := NewPositionEngine(DefaultPositionConfig(), 0)
	timing := DefaultTimingConfig()
	timing.CebraTimeShift[0] = 5
	analyzer := NewAnalyzer(positions, testGains(t), timing)

	pevent := analyzer.AnalyzeEvent(fullEvent(), 5)

	x1, ok := pevent.X1.Get()
	require.True(t, ok)
	assert.InDelta(t, 5.0/2.10, x1, 1e-9, "first hit of each group is used")
	x2, ok := pevent.X2.Get()
	require.True(t, ok)
	assert.InDelta(t, -2.0/1.98, x2, 1e-9)

	xavg, ok := pevent.Xavg.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.5*x1+0.5*x2, xavg, 1e-9)
	theta, ok := pevent.Theta.Get()
	require.True(t, ok)
	assert.InDelta(t, Theta(x1, x2, 36), theta, 1e-12)
	assert.Greater(t, theta, math.Pi/2)

	front, ok := pevent.FrontPlane.Get()
	require.True(t, ok)
	tcheck, ok := front.TCheck.Get()
	require.True(t, ok)
	assert.InDelta(t, 100.0-90.0, tcheck, 1e-12)

	ecal, ok := pevent.CebraCalibrated[0].Get()
	require.True(t, ok)
	assert.InDelta(t, 21.0, ecal, 1e-12)
	rel, ok := pevent.CebraRelTime[0].Get()
	require.True(t, ok)
	assert.InDelta(t, 50e9-80+5, rel, 1e-3)
	assert.False(t, pevent.Cebra[1].Present())

	fp1y, ok := pevent.Fp1Y.Get()
	require.True(t, ok)
	assert.InDelta(t, 8.0, fp1y, 1e-12)
	fp2y, ok := pevent.Fp2Y.Get()
	require.True(t, ok)
	assert.InDelta(t, 10.0, fp2y, 1e-12)

	assert.False(t, pevent.Cathode.Present())
	assert.False(t, pevent.Monitor.Present())
}

func TestAnalyzer_IsStateless(t *testing.T) {
	analyzer := NewAnalyzer(NewPositionEngine(DefaultPositionConfig(), 0), testGains(t), DefaultTimingConfig())

	first := analyzer.AnalyzeEvent(fullEvent(), 5)
	empty := analyzer.AnalyzeEvent(CoincidenceEvent{}, 5)
	assert.Equal(t, ProcessedEvent{}, empty, "nothing leaks from the previous event")
	assert.Equal(t, first, analyzer.AnalyzeEvent(fullEvent(), 5))
}

func TestAnalyzer_WithoutGains(t *testing.T) {
	analyzer := NewAnalyzer(NewPositionEngine(DefaultPositionConfig(), 0), nil, DefaultTimingConfig())

	pevent := analyzer.AnalyzeEvent(CoincidenceEvent{
		CebraGroup(2): {{Channel: 2, LongEnergy: 333, Timestamp: 10}},
	}, 5)
	ecal, ok := pevent.CebraCalibrated[2].Get()
	require.True(t, ok)
	assert.Equal(t, 333.0, ecal)
	assert.False(t, pevent.CebraRelTime[2].Present(), "relative time needs scintLeft")
}

func TestAnalyzer_UncoveredTimeIsPassedThrough(t *testing.T) {
	analyzer := NewAnalyzer(NewPositionEngine(DefaultPositionConfig(), 0), testGains(t), DefaultTimingConfig())

	pevent := analyzer.AnalyzeEvent(CoincidenceEvent{
		CebraGroup(0): {{Channel: 0, LongEnergy: 10, Timestamp: 500e9}},
	}, 5)
	assert.Equal(t, 10.0, pevent.CebraCalibrated[0].Or(0))
}

func TestProcessedEvent_Flat(t *testing.T) {
	flat := ProcessedEvent{}.Flat()

	assert.Equal(t, SentinelEnergy, flat.AnodeFront)
	assert.Equal(t, SentinelEnergy, flat.ScintLeftShort)
	assert.Equal(t, SentinelEnergy, flat.DelayBackRightTime)
	for i := 0; i < NumCebra; i++ {
		assert.Equal(t, SentinelEnergy, flat.CebraE[i])
		assert.Equal(t, -1, flat.CebraChannel[i])
		assert.Equal(t, SentinelEnergy, flat.CebraECal[i])
		assert.Equal(t, SentinelPosition, flat.CebraRelTime[i])
	}
	assert.Equal(t, SentinelPosition, flat.Fp1TDiff)
	assert.Equal(t, SentinelPosition, flat.Fp2TCheck)
	assert.Equal(t, SentinelPosition, flat.X1)
	assert.Equal(t, SentinelPosition, flat.Xavg)
	assert.Equal(t, SentinelPosition, flat.Theta)
	assert.Equal(t, SentinelPosition, flat.Fp1Y)
}

func TestProcessedEvent_FlatPresent(t *testing.T) {
	analyzer := NewAnalyzer(NewPositionEngine(DefaultPositionConfig(), 0), testGains(t), DefaultTimingConfig())
	flat := analyzer.AnalyzeEvent(fullEvent(), 5).Flat()

	assert.Equal(t, 1500.0, flat.ScintLeft)
	assert.Equal(t, 300.0, flat.ScintLeftShort)
	assert.Equal(t, 80.0, flat.ScintLeftTime)
	assert.Equal(t, 0, flat.CebraChannel[0])
	assert.InDelta(t, 21.0, flat.CebraECal[0], 1e-12)
	assert.Equal(t, -1, flat.CebraChannel[1])
	assert.InDelta(t, 5.0/2.10, flat.X1, 1e-9)
	assert.InDelta(t, 105.0, flat.DelayFrontMaxTime, 1e-12)
	assert.Equal(t, SentinelEnergy, flat.Cathode)
}

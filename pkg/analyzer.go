package evb

import "fmt"

type TimingConfig struct {
	// factor from hit timestamps to the time units of the gain table
	GainTimeScale float64
	// per detector shift applied to the CeBrA time relative to scintLeft
	CebraTimeShift [NumCebra]float64
}

func DefaultTimingConfig() TimingConfig {
	return TimingConfig{GainTimeScale: 1e-9}
}

// Analyzer turns coincidence events into processed events. It keeps no
// per-event state.
type Analyzer struct {
	positions *PositionEngine
	gains     *GainCalibrationMap
	timing    TimingConfig
}

// NewAnalyzer builds an analyzer. gains may be nil or invalid, in which case
// CeBrA energies are passed through uncalibrated.
func NewAnalyzer(positions *PositionEngine, gains *GainCalibrationMap, timing TimingConfig) *Analyzer {
	if gains == nil || !gains.IsValid() {
		logger.Info("No valid gain map, CeBrA energies will not be calibrated", "analyzer")
	}
	return &Analyzer{
		positions: positions,
		gains:     gains,
		timing:    timing,
	}
}

func (a *Analyzer) AnalyzeEvent(event CoincidenceEvent, run int) ProcessedEvent {
	hits := SelectFirstHits(event)

	pevent := ProcessedEvent{
		AnodeFront:      hits.reading(AnodeFront),
		AnodeBack:       hits.reading(AnodeBack),
		ScintLeft:       hits.reading(ScintLeft),
		ScintRight:      hits.reading(ScintRight),
		Cathode:         hits.reading(Cathode),
		Monitor:         hits.reading(Monitor),
		DelayFrontLeft:  hits.reading(DelayFrontLeft),
		DelayFrontRight: hits.reading(DelayFrontRight),
		DelayBackLeft:   hits.reading(DelayBackLeft),
		DelayBackRight:  hits.reading(DelayBackRight),
	}

	pevent.FrontPlane = a.positions.FrontPlane(hits)
	pevent.BackPlane = a.positions.BackPlane(hits)
	if plane, ok := pevent.FrontPlane.Get(); ok {
		pevent.X1 = Some(plane.X)
	}
	if plane, ok := pevent.BackPlane.Get(); ok {
		pevent.X2 = Some(plane.X)
	}
	pevent.Xavg, pevent.Theta = a.positions.Combine(pevent.X1, pevent.X2)

	scintLeft, hasScintLeft := pevent.ScintLeft.Get()
	for i, group := range CebraGroups {
		reading := hits.reading(group)
		pevent.Cebra[i] = reading
		r, ok := reading.Get()
		if !ok {
			continue
		}
		t := r.Time * a.timing.GainTimeScale
		pevent.CebraCalibrated[i] = Some(a.gains.CalibrateOrIdentity(run, t, i, r.Energy))
		if hasScintLeft {
			pevent.CebraRelTime[i] = Some(r.Time - scintLeft.Time + a.timing.CebraTimeShift[i])
		}
	}

	pevent.Fp1Y = timeDifference(pevent.AnodeFront, pevent.ScintRight)
	pevent.Fp2Y = timeDifference(pevent.AnodeBack, pevent.ScintRight)

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Analyzed event with %d hits in %d groups", event.NumHits(), len(hits))
		logger.Info(message, "analyzer")
	}
	return pevent
}

func timeDifference(a, b Optional[ChannelReading]) Optional[float64] {
	ra, okA := a.Get()
	rb, okB := b.Get()
	if !okA || !okB {
		return None[float64]()
	}
	return Some(ra.Time - rb.Time)
}

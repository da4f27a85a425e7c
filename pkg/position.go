package evb

import (
	"fmt"
	"math"
)

// PositionConfig holds the per-experiment delay-line constants.
type PositionConfig struct {
	// ns of time difference per unit of position, front and back planes
	FrontDelayScale float64
	BackDelayScale  float64
	// distance between the two delay-line wire planes
	WireDistance float64
	// baseline used to turn x2-x1 into an angle
	AngleBaseline float64
}

func DefaultPositionConfig() PositionConfig {
	return PositionConfig{
		FrontDelayScale: 2.10,
		BackDelayScale:  1.98,
		WireDistance:    4.28625,
		AngleBaseline:   36.0,
	}
}

// Reaction describes the reaction whose kinematic focal plane is used to
// weight the two wire planes. LabAngle in degrees, Field in kG, BeamEnergy
// in MeV.
type Reaction struct {
	TargetZ    int
	TargetA    int
	BeamZ      int
	BeamA      int
	EjectileZ  int
	EjectileA  int
	BeamEnergy float64
	LabAngle   float64
	Field      float64
}

// KinematicsFunc returns the kinematic focal plane offset zfp of a reaction.
type KinematicsFunc func(Reaction) float64

type PositionEngine struct {
	config PositionConfig
	zfp    float64
	w1, w2 float64
}

// NewPositionEngine builds the engine for a fixed focal plane offset.
// The weights are those of the line through the two plane positions
// intersected with the kinematic focal plane.
func NewPositionEngine(config PositionConfig, zfp float64) *PositionEngine {
	d := config.WireDistance
	w1 := (d/2.0 - zfp) / d
	p := &PositionEngine{
		config: config,
		zfp:    zfp,
		w1:     w1,
		w2:     1.0 - w1,
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Calculated xavg weights w1=%f w2=%f (zfp=%f)", p.w1, p.w2, zfp)
		logger.Info(message, "position")
	}
	return p
}

func NewPositionEngineFromReaction(config PositionConfig, reaction Reaction, kinematics KinematicsFunc) *PositionEngine {
	return NewPositionEngine(config, kinematics(reaction))
}

func (p *PositionEngine) Weights() (float64, float64) {
	return p.w1, p.w2
}

func (p *PositionEngine) Config() PositionConfig {
	return p.config
}

// Plane computes the delay-line quantities of one wire plane. Both ends of
// the line are needed; the anode hit only feeds the tcheck diagnostic.
func (p *PositionEngine) Plane(left, right, anode Optional[Hit], scale float64) Optional[PlaneReading] {
	l, okL := left.Get()
	r, okR := right.Get()
	if !okL || !okR {
		return None[PlaneReading]()
	}
	reading := PlaneReading{
		TDiff:   (l.Timestamp - r.Timestamp) * 0.5,
		TSum:    l.Timestamp + r.Timestamp,
		MaxTime: math.Max(l.Timestamp, r.Timestamp),
	}
	reading.X = reading.TDiff / scale
	if a, ok := anode.Get(); ok {
		reading.TCheck = Some(reading.TSum/2.0 - a.Timestamp)
	}
	return Some(reading)
}

func (p *PositionEngine) FrontPlane(hits FirstHits) Optional[PlaneReading] {
	return p.Plane(hits.Get(DelayFrontLeft), hits.Get(DelayFrontRight), hits.Get(AnodeFront), p.config.FrontDelayScale)
}

func (p *PositionEngine) BackPlane(hits FirstHits) Optional[PlaneReading] {
	return p.Plane(hits.Get(DelayBackLeft), hits.Get(DelayBackRight), hits.Get(AnodeBack), p.config.BackDelayScale)
}

// Combine returns xavg and theta. Both need x1 and x2.
func (p *PositionEngine) Combine(x1, x2 Optional[float64]) (xavg Optional[float64], theta Optional[float64]) {
	v1, ok1 := x1.Get()
	v2, ok2 := x2.Get()
	if !ok1 || !ok2 {
		return None[float64](), None[float64]()
	}
	return Some(v1*p.w1 + v2*p.w2), Some(Theta(v1, v2, p.config.AngleBaseline))
}

// Theta is the angle of the track through the two planes, in (0, pi).
// A vertical track (x1 == x2) gives exactly pi/2.
func Theta(x1, x2, baseline float64) float64 {
	diff := x2 - x1
	switch {
	case diff > 0:
		return math.Atan(diff / baseline)
	case diff < 0:
		return math.Pi + math.Atan(diff/baseline)
	default:
		return math.Pi / 2.0
	}
}

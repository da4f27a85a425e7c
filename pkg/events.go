package evb

import "fmt"

const NumCebra = 5

// Sentinels written to the output store for absent quantities.
const (
	SentinelEnergy   = -1.0
	SentinelPosition = -1e6
)

type Hit struct {
	Channel     int
	LongEnergy  float64
	ShortEnergy float64
	// Timestamp in ns
	Timestamp float64
}

// Group is a logical channel group of the spectrograph or the CeBrA array.
type Group string

const (
	AnodeFront      Group = "anodeFront"
	AnodeBack       Group = "anodeBack"
	ScintLeft       Group = "scintLeft"
	ScintRight      Group = "scintRight"
	Cathode         Group = "cathode"
	Monitor         Group = "monitor"
	DelayFrontLeft  Group = "delayFrontLeft"
	DelayFrontRight Group = "delayFrontRight"
	DelayBackLeft   Group = "delayBackLeft"
	DelayBackRight  Group = "delayBackRight"
)

// CebraGroup returns the group of CeBrA detector i.
func CebraGroup(i int) Group {
	return Group(fmt.Sprintf("cebra%d", i))
}

var FocalPlaneGroups = []Group{
	AnodeFront, AnodeBack, ScintLeft, ScintRight, Cathode, Monitor,
	DelayFrontLeft, DelayFrontRight, DelayBackLeft, DelayBackRight,
}

var CebraGroups = []Group{
	CebraGroup(0), CebraGroup(1), CebraGroup(2), CebraGroup(3), CebraGroup(4),
}

// AllGroups fixes the group codes of the binary hit stream: the code of a
// group is its index in this slice.
var AllGroups = append(append([]Group{}, FocalPlaneGroups...), CebraGroups...)

// CoincidenceEvent holds the hits of one trigger grouped by logical channel.
// Hits keep arrival order. A group with no hits has no key.
type CoincidenceEvent map[Group][]Hit

func (e CoincidenceEvent) Add(group Group, hit Hit) {
	e[group] = append(e[group], hit)
}

func (e CoincidenceEvent) NumHits() int {
	n := 0
	for _, hits := range e {
		n += len(hits)
	}
	return n
}

type Optional[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) Present() bool {
	return o.ok
}

// Or returns the value, or fallback when absent.
func (o Optional[T]) Or(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

type ChannelReading struct {
	Channel int
	Energy  float64
	Short   float64
	Time    float64
}

func readingFromHit(h Hit) ChannelReading {
	return ChannelReading{
		Channel: h.Channel,
		Energy:  h.LongEnergy,
		Short:   h.ShortEnergy,
		Time:    h.Timestamp,
	}
}

// PlaneReading is the delay-line result of one focal-plane wire plane.
type PlaneReading struct {
	TDiff   float64
	TSum    float64
	TCheck  Optional[float64]
	MaxTime float64
	X       float64
}

// EventInfo identifies the trigger a processed event comes from.
type EventInfo struct {
	RunNumber int
	EventID   uint32
	// index of the fast event within its slow event, 0 without fast sorting
	FastIndex int
	NHits     int
}

type ProcessedEvent struct {
	AnodeFront      Optional[ChannelReading]
	AnodeBack       Optional[ChannelReading]
	ScintLeft       Optional[ChannelReading]
	ScintRight      Optional[ChannelReading]
	Cathode         Optional[ChannelReading]
	Monitor         Optional[ChannelReading]
	DelayFrontLeft  Optional[ChannelReading]
	DelayFrontRight Optional[ChannelReading]
	DelayBackLeft   Optional[ChannelReading]
	DelayBackRight  Optional[ChannelReading]

	Cebra           [NumCebra]Optional[ChannelReading]
	CebraCalibrated [NumCebra]Optional[float64]
	CebraRelTime    [NumCebra]Optional[float64]

	FrontPlane Optional[PlaneReading]
	BackPlane  Optional[PlaneReading]
	X1         Optional[float64]
	X2         Optional[float64]
	Xavg       Optional[float64]
	Theta      Optional[float64]
	Fp1Y       Optional[float64]
	Fp2Y       Optional[float64]
}

// FlatEvent is the sentinel encoded row of a ProcessedEvent.
type FlatEvent struct {
	AnodeFront, AnodeFrontTime               float64
	AnodeBack, AnodeBackTime                 float64
	ScintLeft, ScintLeftShort, ScintLeftTime float64
	ScintRight, ScintRightShort              float64
	ScintRightTime                           float64
	Cathode, CathodeTime                     float64
	MonitorE, MonitorShort, MonitorTime      float64
	DelayFrontLeftE, DelayFrontLeftShort     float64
	DelayFrontLeftTime                       float64
	DelayFrontRightE, DelayFrontRightShort   float64
	DelayFrontRightTime                      float64
	DelayBackLeftE, DelayBackLeftShort       float64
	DelayBackLeftTime                        float64
	DelayBackRightE, DelayBackRightShort     float64
	DelayBackRightTime                       float64

	CebraE       [NumCebra]float64
	CebraChannel [NumCebra]int
	CebraTime    [NumCebra]float64
	CebraECal    [NumCebra]float64
	CebraRelTime [NumCebra]float64

	Fp1TDiff, Fp1TSum, Fp1TCheck, DelayFrontMaxTime float64
	Fp2TDiff, Fp2TSum, Fp2TCheck, DelayBackMaxTime  float64

	X1, X2, Xavg, Theta float64
	Fp1Y, Fp2Y          float64
}

// Flat converts the event into the sentinel encoded layout of the output
// store: -1 for absent energies, times and channels, -1e6 for absent
// positions and angles.
func (p ProcessedEvent) Flat() FlatEvent {
	var f FlatEvent
	f.AnodeFront, _, f.AnodeFrontTime = flatReading(p.AnodeFront)
	f.AnodeBack, _, f.AnodeBackTime = flatReading(p.AnodeBack)
	f.ScintLeft, f.ScintLeftShort, f.ScintLeftTime = flatReading(p.ScintLeft)
	f.ScintRight, f.ScintRightShort, f.ScintRightTime = flatReading(p.ScintRight)
	f.Cathode, _, f.CathodeTime = flatReading(p.Cathode)
	f.MonitorE, f.MonitorShort, f.MonitorTime = flatReading(p.Monitor)
	f.DelayFrontLeftE, f.DelayFrontLeftShort, f.DelayFrontLeftTime = flatReading(p.DelayFrontLeft)
	f.DelayFrontRightE, f.DelayFrontRightShort, f.DelayFrontRightTime = flatReading(p.DelayFrontRight)
	f.DelayBackLeftE, f.DelayBackLeftShort, f.DelayBackLeftTime = flatReading(p.DelayBackLeft)
	f.DelayBackRightE, f.DelayBackRightShort, f.DelayBackRightTime = flatReading(p.DelayBackRight)

	for i := 0; i < NumCebra; i++ {
		f.CebraE[i], _, f.CebraTime[i] = flatReading(p.Cebra[i])
		f.CebraChannel[i] = -1
		if r, ok := p.Cebra[i].Get(); ok {
			f.CebraChannel[i] = r.Channel
		}
		f.CebraECal[i] = p.CebraCalibrated[i].Or(SentinelEnergy)
		f.CebraRelTime[i] = p.CebraRelTime[i].Or(SentinelPosition)
	}

	f.Fp1TDiff, f.Fp1TSum, f.Fp1TCheck, f.DelayFrontMaxTime = flatPlane(p.FrontPlane)
	f.Fp2TDiff, f.Fp2TSum, f.Fp2TCheck, f.DelayBackMaxTime = flatPlane(p.BackPlane)

	f.X1 = p.X1.Or(SentinelPosition)
	f.X2 = p.X2.Or(SentinelPosition)
	f.Xavg = p.Xavg.Or(SentinelPosition)
	f.Theta = p.Theta.Or(SentinelPosition)
	f.Fp1Y = p.Fp1Y.Or(SentinelPosition)
	f.Fp2Y = p.Fp2Y.Or(SentinelPosition)
	return f
}

func flatReading(o Optional[ChannelReading]) (energy, short, time float64) {
	r, ok := o.Get()
	if !ok {
		return SentinelEnergy, SentinelEnergy, SentinelEnergy
	}
	return r.Energy, r.Short, r.Time
}

func flatPlane(o Optional[PlaneReading]) (tdiff, tsum, tcheck, maxTime float64) {
	r, ok := o.Get()
	if !ok {
		return SentinelPosition, SentinelPosition, SentinelPosition, SentinelPosition
	}
	return r.TDiff, r.TSum, r.TCheck.Or(SentinelPosition), r.MaxTime
}

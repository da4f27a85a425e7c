package evb

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"

	"golang.org/x/exp/slices"
)

// GainShift is the calibration of the CeBrA detectors for the time range
// [T1, T2] of a run.
type GainShift struct {
	T1        float64
	T2        float64
	Slope     [NumCebra]float64
	Intercept [NumCebra]float64
}

// Apply returns intercept + slope*raw for detector channel.
func (s GainShift) Apply(channel int, raw float64) float64 {
	return s.Intercept[channel] + s.Slope[channel]*raw
}

type rangeEntry struct {
	index int
	shift GainShift
}

// GainCalibrationMap resolves run -> range index -> GainShift. It is read
// only once loaded; the dither source is not safe for concurrent use.
type GainCalibrationMap struct {
	shifts   map[int]map[int]GainShift
	ranges   map[int][]rangeEntry
	monotone map[int]bool
	valid    bool
	rng      *rand.Rand
}

// tokens per record: run, range, t1, t2 and a slope/intercept pair per detector
const gainRecordTokens = 4 + 2*NumCebra

func NewGainCalibrationMap() *GainCalibrationMap {
	return &GainCalibrationMap{
		shifts:   make(map[int]map[int]GainShift),
		ranges:   make(map[int][]rangeEntry),
		monotone: make(map[int]bool),
	}
}

// LoadGainCalibrationMap reads a whitespace separated calibration table.
// If the file cannot be opened the returned map is invalid and the error
// is an *ErrOpenFile.
func LoadGainCalibrationMap(filename string) (*GainCalibrationMap, error) {
	gains := NewGainCalibrationMap()
	file, err := os.Open(filename)
	if err != nil {
		return gains, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	stored := gains.Fill(file)
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Read %d gain shift records for %d runs from %s", stored, len(gains.shifts), filename)
		logger.Info(message, "gains")
	}
	return gains, nil
}

// Fill consumes records until the input ends or a token fails to parse.
// A record cut short by a bad token or by the end of input is dropped with
// a warning and nothing after it is read. Fill marks the map valid and
// returns the number of records stored.
func (g *GainCalibrationMap) Fill(r io.Reader) int {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	stored := 0
	for record := 0; ; record++ {
		values, err := nextGainRecord(scanner)
		if err == io.EOF {
			break
		}
		if err != nil {
			message := fmt.Errorf("dropping gain record %d and everything after it: %w", record, err)
			logger.Error(message.Error())
			break
		}
		run, rangeIdx := int(values[0]), int(values[1])
		shift := GainShift{T1: values[2], T2: values[3]}
		for j := 0; j < NumCebra; j++ {
			shift.Slope[j] = values[4+2*j]
			shift.Intercept[j] = values[5+2*j]
		}
		g.set(run, rangeIdx, shift)
		stored++
	}
	if err := scanner.Err(); err != nil {
		logger.Error(fmt.Errorf("error reading gain table: %w", err).Error())
	}

	for run := range g.shifts {
		g.index(run)
	}
	g.valid = true
	return stored
}

// nextGainRecord returns io.EOF only when the input ends on a record
// boundary.
func nextGainRecord(scanner *bufio.Scanner) ([gainRecordTokens]float64, error) {
	var values [gainRecordTokens]float64
	for i := 0; i < gainRecordTokens; i++ {
		if !scanner.Scan() {
			if i == 0 {
				return values, io.EOF
			}
			return values, fmt.Errorf("truncated record, %d of %d fields", i, gainRecordTokens)
		}
		token := scanner.Text()
		var err error
		if i < 2 {
			var v int
			v, err = strconv.Atoi(token)
			values[i] = float64(v)
		} else {
			values[i], err = strconv.ParseFloat(token, 64)
		}
		if err != nil {
			return values, fmt.Errorf("field %d: %w", i, err)
		}
	}
	return values, nil
}

// Add stores one range. A later call for the same run and range replaces
// the earlier one.
func (g *GainCalibrationMap) Add(run int, rangeIdx int, shift GainShift) {
	g.set(run, rangeIdx, shift)
	g.index(run)
}

func (g *GainCalibrationMap) set(run int, rangeIdx int, shift GainShift) {
	if _, ok := g.shifts[run]; !ok {
		g.shifts[run] = make(map[int]GainShift)
	}
	g.shifts[run][rangeIdx] = shift
}

// index rebuilds the ordered range list of a run.
func (g *GainCalibrationMap) index(run int) {
	entries := make([]rangeEntry, 0, len(g.shifts[run]))
	for idx, shift := range g.shifts[run] {
		entries = append(entries, rangeEntry{index: idx, shift: shift})
	}
	slices.SortFunc(entries, func(a, b rangeEntry) int {
		return a.index - b.index
	})
	g.ranges[run] = entries
	g.monotone[run] = slices.IsSortedFunc(entries, func(a, b rangeEntry) int {
		switch {
		case a.shift.T2 < b.shift.T2:
			return -1
		case a.shift.T2 > b.shift.T2:
			return 1
		}
		return 0
	})
	if !g.monotone[run] && configuration.Verbosity > 0 {
		message := fmt.Sprintf("Gain ranges of run %d are not ordered in time, using linear lookup", run)
		logger.Info(message, "gains")
	}
}

func (g *GainCalibrationMap) IsValid() bool {
	return g.valid
}

// SetValid marks a map built with Add as usable.
func (g *GainCalibrationMap) SetValid(valid bool) {
	g.valid = valid
}

// SetDither enables the uniform [-0.5, 0.5) dither added to every
// calibrated value. A nil source disables it.
func (g *GainCalibrationMap) SetDither(rng *rand.Rand) {
	g.rng = rng
}

func (g *GainCalibrationMap) Runs() []int {
	runs := make([]int, 0, len(g.shifts))
	for run := range g.shifts {
		runs = append(runs, run)
	}
	slices.Sort(runs)
	return runs
}

// Range returns the shift stored for a run and range index.
func (g *GainCalibrationMap) Range(run int, rangeIdx int) (GainShift, bool) {
	shift, ok := g.shifts[run][rangeIdx]
	return shift, ok
}

// Lookup returns the first range of the run, by ascending index, whose T2
// is not before t.
func (g *GainCalibrationMap) Lookup(run int, t float64) (GainShift, error) {
	if !g.valid {
		return GainShift{}, ErrInvalidGainMap
	}
	if math.IsNaN(t) {
		return GainShift{}, &ErrRangeNotFound{Run: run, Time: t}
	}
	entries := g.ranges[run]
	if g.monotone[run] {
		pos, _ := slices.BinarySearchFunc(entries, t, func(e rangeEntry, t float64) int {
			switch {
			case e.shift.T2 < t:
				return -1
			case e.shift.T2 > t:
				return 1
			}
			return 0
		})
		if pos < len(entries) {
			return entries[pos].shift, nil
		}
	} else {
		pos := slices.IndexFunc(entries, func(e rangeEntry) bool {
			return t <= e.shift.T2
		})
		if pos >= 0 {
			return entries[pos].shift, nil
		}
	}
	return GainShift{}, &ErrRangeNotFound{Run: run, Time: t}
}

// Transform returns the slope and intercept of a detector at time t.
func (g *GainCalibrationMap) Transform(run int, t float64, channel int) (float64, float64, error) {
	if channel < 0 || channel >= NumCebra {
		return 0, 0, &ErrChannelOutOfRange{Channel: channel}
	}
	shift, err := g.Lookup(run, t)
	if err != nil {
		return 0, 0, err
	}
	return shift.Slope[channel], shift.Intercept[channel], nil
}

// Calibrate applies the gain shift of the detector at time t to raw and adds
// the dither, if enabled. On error raw is returned unchanged.
func (g *GainCalibrationMap) Calibrate(run int, t float64, channel int, raw float64) (float64, error) {
	slope, intercept, err := g.Transform(run, t, channel)
	if err != nil {
		return raw, err
	}
	return intercept + slope*raw + g.dither(), nil
}

// CalibrateOrIdentity is Calibrate with the raw value as fallback for an
// invalid map or a time no range covers.
func (g *GainCalibrationMap) CalibrateOrIdentity(run int, t float64, channel int, raw float64) float64 {
	if g == nil || !g.valid {
		return raw
	}
	value, err := g.Calibrate(run, t, channel, raw)
	if err != nil {
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Uncalibrated value for detector %d: %v", channel, err)
			logger.Info(message, "gains")
		}
		return raw
	}
	return value
}

func (g *GainCalibrationMap) dither() float64 {
	if g.rng == nil {
		return 0
	}
	return g.rng.Float64() - 0.5
}

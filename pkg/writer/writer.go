package writer

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	evb "github.com/sps-cebra/evb_go/pkg"
)

type RunInfoHDF5 struct {
	run_number int32
}

type EventDataHDF5 struct {
	evt_number int32
	fast_index int32
	n_hits     int32
}

type FocalPlaneHDF5 struct {
	anodeFront           float64
	anodeFrontTime       float64
	anodeBack            float64
	anodeBackTime        float64
	scintLeft            float64
	scintLeftShort       float64
	scintLeftTime        float64
	scintRight           float64
	scintRightShort      float64
	scintRightTime       float64
	cathode              float64
	cathodeTime          float64
	monitorE             float64
	monitorShort         float64
	monitorTime          float64
	delayFrontLeftE      float64
	delayFrontLeftShort  float64
	delayFrontLeftTime   float64
	delayFrontRightE     float64
	delayFrontRightShort float64
	delayFrontRightTime  float64
	delayBackLeftE       float64
	delayBackLeftShort   float64
	delayBackLeftTime    float64
	delayBackRightE      float64
	delayBackRightShort  float64
	delayBackRightTime   float64
}

type CebraHDF5 struct {
	cebraE       [evb.NumCebra]float64
	cebraChannel [evb.NumCebra]int32
	cebraTime    [evb.NumCebra]float64
	cebraECal    [evb.NumCebra]float64
	cebraRelTime [evb.NumCebra]float64
}

type DerivedHDF5 struct {
	fp1_tdiff         float64
	fp1_tsum          float64
	fp1_tcheck        float64
	delayFrontMaxTime float64
	fp2_tdiff         float64
	fp2_tsum          float64
	fp2_tcheck        float64
	delayBackMaxTime  float64
	x1                float64
	x2                float64
	xavg              float64
	theta             float64
	fp1_y             float64
	fp2_y             float64
}

// Writer stores processed events as HDF5 tables, one row per event in
// every table. Absent quantities are written as sentinels.
type Writer struct {
	File            *hdf5.File
	Filename        string
	FirstEvt        bool
	RunGroup        *hdf5.Group
	AnalyzedGroup   *hdf5.Group
	RunInfoTable    *hdf5.Dataset
	EventTable      *hdf5.Dataset
	FocalPlaneTable *hdf5.Dataset
	CebraTable      *hdf5.Dataset
	DerivedTable    *hdf5.Dataset
	EvtCounter      int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	var err error
	writer := &Writer{Filename: filename}
	writer.File, err = openFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error creating file %q: %w", filename, err)
	}
	if writer.RunGroup, err = createGroup(writer.File, "Run"); err != nil {
		return nil, errors.Join(err, writer.File.Close())
	}
	if writer.AnalyzedGroup, err = createGroup(writer.File, "Analyzed"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}

	tables := []struct {
		dset     **hdf5.Dataset
		group    *hdf5.Group
		name     string
		datatype interface{}
	}{
		{&writer.RunInfoTable, writer.RunGroup, "runInfo", RunInfoHDF5{}},
		{&writer.EventTable, writer.RunGroup, "events", EventDataHDF5{}},
		{&writer.FocalPlaneTable, writer.AnalyzedGroup, "focalPlane", FocalPlaneHDF5{}},
		{&writer.CebraTable, writer.AnalyzedGroup, "cebra", CebraHDF5{}},
		{&writer.DerivedTable, writer.AnalyzedGroup, "derived", DerivedHDF5{}},
	}
	for _, table := range tables {
		*table.dset, err = createTable(table.group, table.name, table.datatype, compressionLevel)
		if err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}
	return writer, nil
}

// WriteEvent appends one row to every event table. Either all tables get
// the row or, on error, the tables already extended are shrunk back so they
// keep the same number of rows.
func (w *Writer) WriteEvent(info evb.EventInfo, event evb.ProcessedEvent) error {
	if !w.FirstEvt {
		err := writeEntryToTable(w.RunInfoTable, RunInfoHDF5{run_number: int32(info.RunNumber)}, 0)
		if err != nil {
			return fmt.Errorf("error writing run info: %w", err)
		}
		w.FirstEvt = true
	}

	flat := event.Flat()
	rows := []struct {
		name  string
		dset  *hdf5.Dataset
		write func() error
	}{
		{"event table", w.EventTable, func() error {
			return writeEntryToTable(w.EventTable, EventDataHDF5{
				evt_number: int32(info.EventID),
				fast_index: int32(info.FastIndex),
				n_hits:     int32(info.NHits),
			}, w.EvtCounter)
		}},
		{"focal plane table", w.FocalPlaneTable, func() error {
			return writeEntryToTable(w.FocalPlaneTable, focalPlaneRow(flat), w.EvtCounter)
		}},
		{"CeBrA table", w.CebraTable, func() error {
			return writeEntryToTable(w.CebraTable, cebraRow(flat), w.EvtCounter)
		}},
		{"derived table", w.DerivedTable, func() error {
			return writeEntryToTable(w.DerivedTable, derivedRow(flat), w.EvtCounter)
		}},
	}

	for i, row := range rows {
		err := row.write()
		if err == nil {
			continue
		}
		errs := []error{fmt.Errorf("error writing %s: %w", row.name, err)}
		// the failed table may have been resized before the write failed
		for _, done := range rows[:i+1] {
			if err := truncateTable(done.dset, w.EvtCounter); err != nil {
				errs = append(errs, fmt.Errorf("error truncating %s: %w", done.name, err))
			}
		}
		return errors.Join(errs...)
	}

	w.EvtCounter++
	return nil
}

func focalPlaneRow(f evb.FlatEvent) FocalPlaneHDF5 {
	return FocalPlaneHDF5{
		anodeFront:           f.AnodeFront,
		anodeFrontTime:       f.AnodeFrontTime,
		anodeBack:            f.AnodeBack,
		anodeBackTime:        f.AnodeBackTime,
		scintLeft:            f.ScintLeft,
		scintLeftShort:       f.ScintLeftShort,
		scintLeftTime:        f.ScintLeftTime,
		scintRight:           f.ScintRight,
		scintRightShort:      f.ScintRightShort,
		scintRightTime:       f.ScintRightTime,
		cathode:              f.Cathode,
		cathodeTime:          f.CathodeTime,
		monitorE:             f.MonitorE,
		monitorShort:         f.MonitorShort,
		monitorTime:          f.MonitorTime,
		delayFrontLeftE:      f.DelayFrontLeftE,
		delayFrontLeftShort:  f.DelayFrontLeftShort,
		delayFrontLeftTime:   f.DelayFrontLeftTime,
		delayFrontRightE:     f.DelayFrontRightE,
		delayFrontRightShort: f.DelayFrontRightShort,
		delayFrontRightTime:  f.DelayFrontRightTime,
		delayBackLeftE:       f.DelayBackLeftE,
		delayBackLeftShort:   f.DelayBackLeftShort,
		delayBackLeftTime:    f.DelayBackLeftTime,
		delayBackRightE:      f.DelayBackRightE,
		delayBackRightShort:  f.DelayBackRightShort,
		delayBackRightTime:   f.DelayBackRightTime,
	}
}

func cebraRow(f evb.FlatEvent) CebraHDF5 {
	row := CebraHDF5{
		cebraE:       f.CebraE,
		cebraTime:    f.CebraTime,
		cebraECal:    f.CebraECal,
		cebraRelTime: f.CebraRelTime,
	}
	for i, ch := range f.CebraChannel {
		row.cebraChannel[i] = int32(ch)
	}
	return row
}

func derivedRow(f evb.FlatEvent) DerivedHDF5 {
	return DerivedHDF5{
		fp1_tdiff:         f.Fp1TDiff,
		fp1_tsum:          f.Fp1TSum,
		fp1_tcheck:        f.Fp1TCheck,
		delayFrontMaxTime: f.DelayFrontMaxTime,
		fp2_tdiff:         f.Fp2TDiff,
		fp2_tsum:          f.Fp2TSum,
		fp2_tcheck:        f.Fp2TCheck,
		delayBackMaxTime:  f.DelayBackMaxTime,
		x1:                f.X1,
		x2:                f.X2,
		xavg:              f.Xavg,
		theta:             f.Theta,
		fp1_y:             f.Fp1Y,
		fp2_y:             f.Fp2Y,
	}
}

func (w *Writer) Close() error {
	var errs []error

	datasets := []struct {
		name string
		dset *hdf5.Dataset
	}{
		{"run info table", w.RunInfoTable},
		{"event table", w.EventTable},
		{"focal plane table", w.FocalPlaneTable},
		{"CeBrA table", w.CebraTable},
		{"derived table", w.DerivedTable},
	}
	for _, d := range datasets {
		if d.dset == nil {
			continue
		}
		if err := d.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", d.name, err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.AnalyzedGroup != nil {
		if err := w.AnalyzedGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing analyzed group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

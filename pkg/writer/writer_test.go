//go:build hdf5

package writer

import (
	"path/filepath"
	"testing"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evb "github.com/sps-cebra/evb_go/pkg"
)

func processedEvent() evb.ProcessedEvent {
	analyzer := evb.NewAnalyzer(evb.NewPositionEngine(evb.DefaultPositionConfig(), 0), nil, evb.DefaultTimingConfig())
	return analyzer.AnalyzeEvent(evb.CoincidenceEvent{
		evb.ScintLeft:       {{Channel: 2, LongEnergy: 1500, Timestamp: 80}},
		evb.DelayFrontLeft:  {{Channel: 6, Timestamp: 105}},
		evb.DelayFrontRight: {{Channel: 7, Timestamp: 95}},
		evb.DelayBackLeft:   {{Channel: 8, Timestamp: 96}},
		evb.DelayBackRight:  {{Channel: 9, Timestamp: 100}},
		evb.CebraGroup(1):   {{Channel: 1, LongEnergy: 10, Timestamp: 90}},
	}, 3)
}

func readRows[T any](t *testing.T, file *hdf5.File, group string, table string, n int) []T {
	t.Helper()
	g, err := file.OpenGroup(group)
	require.NoError(t, err)
	defer g.Close()
	dset, err := g.OpenDataset(table)
	require.NoError(t, err)
	defer dset.Close()

	rows, err := tableRows(dset)
	require.NoError(t, err)
	require.Equal(t, n, rows, "%s/%s", group, table)

	data := make([]T, n)
	require.NoError(t, dset.Read(&data))
	return data
}

func TestWriter_Layout(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "run_3.h5")
	w, err := NewWriter(filename, 4)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(evb.EventInfo{RunNumber: 3, EventID: 10, NHits: 6}, processedEvent()))
	require.NoError(t, w.WriteEvent(evb.EventInfo{RunNumber: 3, EventID: 11, FastIndex: 1}, evb.ProcessedEvent{}))
	require.NoError(t, w.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	runInfo := readRows[RunInfoHDF5](t, file, "Run", "runInfo", 1)
	assert.Equal(t, int32(3), runInfo[0].run_number)

	events := readRows[EventDataHDF5](t, file, "Run", "events", 2)
	assert.Equal(t, EventDataHDF5{evt_number: 10, fast_index: 0, n_hits: 6}, events[0])
	assert.Equal(t, EventDataHDF5{evt_number: 11, fast_index: 1, n_hits: 0}, events[1])

	focalPlane := readRows[FocalPlaneHDF5](t, file, "Analyzed", "focalPlane", 2)
	assert.Equal(t, 1500.0, focalPlane[0].scintLeft)
	assert.Equal(t, evb.SentinelEnergy, focalPlane[1].scintLeft)

	cebra := readRows[CebraHDF5](t, file, "Analyzed", "cebra", 2)
	assert.Equal(t, int32(1), cebra[0].cebraChannel[1])
	assert.Equal(t, 10.0, cebra[0].cebraECal[1])
	assert.Equal(t, int32(-1), cebra[0].cebraChannel[0])

	derived := readRows[DerivedHDF5](t, file, "Analyzed", "derived", 2)
	assert.InDelta(t, 5.0/2.10, derived[0].x1, 1e-9)
	assert.NotEqual(t, evb.SentinelPosition, derived[0].xavg)
	assert.Equal(t, evb.SentinelPosition, derived[1].xavg)
	assert.Equal(t, evb.SentinelPosition, derived[1].theta)
}

func TestWriter_FailedWriteKeepsTablesAligned(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "run_3.h5")
	w, err := NewWriter(filename, 4)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(evb.EventInfo{RunNumber: 3, EventID: 1}, processedEvent()))

	// the last table of the row can no longer be written
	require.NoError(t, w.DerivedTable.Close())
	err = w.WriteEvent(evb.EventInfo{RunNumber: 3, EventID: 2}, processedEvent())
	assert.Error(t, err)
	assert.Equal(t, 1, w.EvtCounter)

	for name, dset := range map[string]*hdf5.Dataset{
		"events":     w.EventTable,
		"focalPlane": w.FocalPlaneTable,
		"cebra":      w.CebraTable,
	} {
		rows, err := tableRows(dset)
		require.NoError(t, err)
		assert.Equal(t, 1, rows, name)
	}

	w.DerivedTable = nil
	assert.NoError(t, w.Close())
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	evb "github.com/sps-cebra/evb_go/pkg"
)

type FileReader struct {
	Reader    io.Reader
	EvtCount  int
	Skip      int
	MaxEvents int
}

func NewFileReader(r io.Reader, skip int, maxEvents int) *FileReader {
	return &FileReader{Reader: bufio.NewReader(r), EvtCount: -1, Skip: skip, MaxEvents: maxEvents}
}

func (f *FileReader) getNextEvent() (evb.EventHeaderStruct, evb.CoincidenceEvent, error) {
	for {
		header, event, err := evb.ReadEventFromFile(f.Reader)
		if err != nil {
			return header, nil, err
		}
		f.EvtCount++
		if f.EvtCount >= f.MaxEvents {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return header, nil, io.EOF
		}
		if f.EvtCount < f.Skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, header.EventId)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, header.EventId)
			logger.Info(message, "fileReader")
		}
		return header, event, nil
	}
}

// countEvents scans the whole file and returns the number of events and the
// run number of the last one, then rewinds.
func countEvents(file *os.File) (int, int, error) {
	evtCount := 0
	runNumber := 0
	reader := bufio.NewReader(file)
	for {
		header, _, err := evb.ReadEventFromFile(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return evtCount, runNumber, fmt.Errorf("error reading event %d counting events: %w", evtCount, err)
		}
		runNumber = int(header.EventRunNb)
		evtCount++
	}
	// Go back to the beginning of the file
	_, err := file.Seek(0, io.SeekStart)
	return evtCount, runNumber, err
}

var runPattern = regexp.MustCompile(`run_(\d+)`)

// runNumberFromFilename extracts N from names like "run_182.evb".
func runNumberFromFilename(filename string) (int, bool) {
	match := runPattern.FindStringSubmatch(filepath.Base(filename))
	if match == nil {
		return 0, false
	}
	run, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return run, true
}

func numberOfEventsToProcess(fileEvtCount int, skipEvts int, maxEvtCount int) int {
	evtsToRead := maxEvtCount - skipEvts
	if evtsToRead > fileEvtCount-skipEvts {
		evtsToRead = fileEvtCount - skipEvts
	}
	if evtsToRead < 0 {
		evtsToRead = 0
	}
	return evtsToRead
}

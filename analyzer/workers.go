package main

import (
	"fmt"
	"io"

	evb "github.com/sps-cebra/evb_go/pkg"
)

type WorkerData struct {
	Header evb.EventHeaderStruct
	Event  evb.CoincidenceEvent
}

// sendEvents runs on its own goroutine. There is a single producer and a
// single consumer, so events arrive in file order.
func sendEvents(fileReader *FileReader, jobs chan<- WorkerData, readErr chan<- error) {
	defer close(jobs)
	for {
		header, event, err := fileReader.getNextEvent()
		if err == io.EOF {
			readErr <- nil
			return
		}
		if err != nil {
			readErr <- fmt.Errorf("error reading event: %w", err)
			return
		}
		jobs <- WorkerData{Header: header, Event: event}
	}
}

// EventSink receives every processed event in input order.
type EventSink interface {
	WriteEvent(info evb.EventInfo, event evb.ProcessedEvent) error
}

type Stats struct {
	SlowEvents  int
	FastEvents  int
	Written     int
	WriteErrors int
	WithXavg    int
}

// processEvents drains jobs, analyzes every event (or every fast event when
// sorter is not nil) and hands the result to sink. The first write error
// stops the processing; the remaining jobs are discarded so the reader can
// finish.
func processEvents(jobs <-chan WorkerData, analyzer *evb.Analyzer, sorter *evb.FastSorter,
	runNumber int, sink EventSink, progress func(done int)) (Stats, error) {
	var stats Stats
	for job := range jobs {
		stats.SlowEvents++

		events := []evb.CoincidenceEvent{job.Event}
		if sorter != nil {
			events = sorter.GetFastEvents(job.Event)
		}

		for i, event := range events {
			stats.FastEvents++
			pevent := analyzer.AnalyzeEvent(event, runNumber)
			if pevent.Xavg.Present() {
				stats.WithXavg++
			}
			if sink == nil {
				continue
			}
			info := evb.EventInfo{
				RunNumber: runNumber,
				EventID:   job.Header.EventId,
				FastIndex: i,
				NHits:     event.NumHits(),
			}
			if err := sink.WriteEvent(info, pevent); err != nil {
				stats.WriteErrors++
				for range jobs {
				}
				return stats, fmt.Errorf("error writing event %d: %w", job.Header.EventId, err)
			}
			stats.Written++
		}
		if progress != nil {
			progress(stats.SlowEvents)
		}
	}
	return stats, nil
}

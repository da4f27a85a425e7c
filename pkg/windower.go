package evb

import (
	"fmt"
	"math"
)

// WindowPolicy is the fixed coincidence window of one detector subsystem.
// HalfWidth is in the units of Hit.Timestamp.
type WindowPolicy struct {
	Subsystem string
	HalfWidth float64
	Groups    []Group
}

type CoincidenceWindower struct {
	policy  WindowPolicy
	buffers map[Group][]Hit
}

func NewCoincidenceWindower(policy WindowPolicy) *CoincidenceWindower {
	w := &CoincidenceWindower{
		policy:  policy,
		buffers: make(map[Group][]Hit, len(policy.Groups)),
	}
	for _, group := range policy.Groups {
		w.buffers[group] = make([]Hit, 0, 4)
	}
	return w
}

func (w *CoincidenceWindower) Policy() WindowPolicy {
	return w.policy
}

// Window keeps, for every group of the policy, the hits of streams that lie
// within HalfWidth of reference (boundary included). Groups left without
// hits are absent from the result.
func (w *CoincidenceWindower) Window(reference float64, streams CoincidenceEvent) CoincidenceEvent {
	w.reset()

	for _, group := range w.policy.Groups {
		for _, hit := range streams[group] {
			if math.Abs(hit.Timestamp-reference) <= w.policy.HalfWidth {
				w.buffers[group] = append(w.buffers[group], hit)
			}
		}
	}

	event := make(CoincidenceEvent)
	for group, hits := range w.buffers {
		if len(hits) == 0 {
			continue
		}
		event[group] = append([]Hit(nil), hits...)
	}

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("%s window around %.1f: %d of %d groups kept",
			w.policy.Subsystem, reference, len(event), len(w.policy.Groups))
		logger.Info(message, "windower")
	}
	return event
}

func (w *CoincidenceWindower) reset() {
	for group := range w.buffers {
		w.buffers[group] = w.buffers[group][:0]
	}
}

// Merge joins events built from disjoint groups.
func Merge(events ...CoincidenceEvent) CoincidenceEvent {
	merged := make(CoincidenceEvent)
	for _, event := range events {
		for group, hits := range event {
			merged[group] = append(merged[group], hits...)
		}
	}
	return merged
}

// FastSorter splits a slow event into fast events, one per reference hit,
// using an ion chamber window for the focal plane and a CeBrA window for
// the gamma detectors.
type FastSorter struct {
	reference  Group
	focalPlane *CoincidenceWindower
	cebra      *CoincidenceWindower
}

func NewFastSorter(cebraWindow float64, ionWindow float64) *FastSorter {
	fpGroups := make([]Group, 0, len(FocalPlaneGroups))
	for _, group := range FocalPlaneGroups {
		if group != ScintLeft {
			fpGroups = append(fpGroups, group)
		}
	}
	return &FastSorter{
		reference: ScintLeft,
		focalPlane: NewCoincidenceWindower(WindowPolicy{
			Subsystem: "focalPlane",
			HalfWidth: ionWindow,
			Groups:    fpGroups,
		}),
		cebra: NewCoincidenceWindower(WindowPolicy{
			Subsystem: "cebra",
			HalfWidth: cebraWindow,
			Groups:    CebraGroups,
		}),
	}
}

// GetFastEvents returns one event per hit of the reference group. A slow
// event without reference hits yields no fast events.
func (f *FastSorter) GetFastEvents(slow CoincidenceEvent) []CoincidenceEvent {
	references := slow[f.reference]
	fastEvents := make([]CoincidenceEvent, 0, len(references))
	for _, ref := range references {
		fpEvent := f.focalPlane.Window(ref.Timestamp, slow)
		cebraEvent := f.cebra.Window(ref.Timestamp, slow)
		event := Merge(fpEvent, cebraEvent)
		event[f.reference] = []Hit{ref}
		fastEvents = append(fastEvents, event)
	}
	return fastEvents
}

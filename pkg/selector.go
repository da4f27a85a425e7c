package evb

// FirstHits holds the earliest hit of every non-empty group of an event.
type FirstHits map[Group]Hit

// SelectFirstHits keeps the hit at index 0 of each group. Upstream ordering
// makes it the earliest one.
func SelectFirstHits(event CoincidenceEvent) FirstHits {
	first := make(FirstHits, len(event))
	for group, hits := range event {
		if len(hits) == 0 {
			continue
		}
		first[group] = hits[0]
	}
	return first
}

func (f FirstHits) Get(group Group) Optional[Hit] {
	hit, ok := f[group]
	if !ok {
		return None[Hit]()
	}
	return Some(hit)
}

func (f FirstHits) reading(group Group) Optional[ChannelReading] {
	hit, ok := f[group]
	if !ok {
		return None[ChannelReading]()
	}
	return Some(readingFromHit(hit))
}

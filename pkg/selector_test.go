package evb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectFirstHits(t *testing.T) {
	event := CoincidenceEvent{
		AnodeBack:     {hitAt(10), hitAt(20)},
		CebraGroup(1): {hitAt(7)},
		Cathode:       {},
	}

	first := SelectFirstHits(event)
	assert.Len(t, first, 2)
	assert.Equal(t, hitAt(10), first[AnodeBack])
	assert.Equal(t, hitAt(7), first[CebraGroup(1)])

	_, ok := first.Get(Cathode).Get()
	assert.False(t, ok, "a group without hits has no reading")
	hit, ok := first.Get(AnodeBack).Get()
	assert.True(t, ok)
	assert.Equal(t, 10.0, hit.Timestamp)
}

func TestSelectFirstHits_Idempotent(t *testing.T) {
	event := CoincidenceEvent{ScintLeft: {hitAt(3), hitAt(1)}}

	assert.Equal(t, SelectFirstHits(event), SelectFirstHits(event))
	assert.Len(t, event[ScintLeft], 2, "the event must not be modified")
}

func TestSelectFirstHits_EmptyEvent(t *testing.T) {
	assert.Empty(t, SelectFirstHits(CoincidenceEvent{}))
	assert.Empty(t, SelectFirstHits(nil))
}

func TestFirstHits_Reading(t *testing.T) {
	first := SelectFirstHits(CoincidenceEvent{
		Monitor: {{Channel: 9, LongEnergy: 400, ShortEnergy: 120, Timestamp: 55}},
	})

	reading, ok := first.reading(Monitor).Get()
	assert.True(t, ok)
	assert.Equal(t, ChannelReading{Channel: 9, Energy: 400, Short: 120, Time: 55}, reading)
	assert.False(t, first.reading(AnodeFront).Present())
}

package evb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EVENT_MAGIC marks the start of every event of the hit stream.
const EVENT_MAGIC uint32 = 0xDA1E5EB0

// EventHeaderStruct precedes the hits of every slow event. EventSize counts
// the header and the hit records.
type EventHeaderStruct struct {
	EventSize  uint32
	EventMagic uint32
	EventRunNb uint32
	EventId    uint32
	EventNHits uint32
}

type HitRecordStruct struct {
	Group       uint16
	Channel     uint16
	LongEnergy  uint16
	ShortEnergy uint16
	Timestamp   float64
}

var (
	headerSize    = binary.Size(EventHeaderStruct{})
	hitRecordSize = binary.Size(HitRecordStruct{})
)

// ReadEventFromFile reads the next slow event of the stream. It returns
// io.EOF when the stream ends on an event boundary.
func ReadEventFromFile(r io.Reader) (EventHeaderStruct, CoincidenceEvent, error) {
	var header EventHeaderStruct
	headerBinary := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBinary); err != nil {
		if err == io.ErrUnexpectedEOF {
			return header, nil, fmt.Errorf("truncated event header: %w", err)
		}
		return header, nil, err
	}
	headerReader := bytes.NewReader(headerBinary)
	if err := binary.Read(headerReader, binary.LittleEndian, &header); err != nil {
		return header, nil, fmt.Errorf("error decoding event header: %w", err)
	}
	if header.EventMagic != EVENT_MAGIC {
		return header, nil, fmt.Errorf("bad event magic 0x%08x", header.EventMagic)
	}
	expected := uint64(headerSize) + uint64(header.EventNHits)*uint64(hitRecordSize)
	if uint64(header.EventSize) != expected {
		return header, nil, fmt.Errorf("event %d: size %d does not match %d hits",
			header.EventId, header.EventSize, header.EventNHits)
	}

	// grows with the data actually present, not with what the header claims
	payloadSize := int64(header.EventSize) - int64(headerSize)
	payload, err := io.ReadAll(io.LimitReader(r, payloadSize))
	if err != nil {
		return header, nil, fmt.Errorf("event %d: error reading hits: %w", header.EventId, err)
	}
	if int64(len(payload)) != payloadSize {
		return header, nil, fmt.Errorf("event %d: error reading hits: %w", header.EventId, io.ErrUnexpectedEOF)
	}
	event, err := decodeHits(payload, header)
	return header, event, err
}

func decodeHits(payload []byte, header EventHeaderStruct) (CoincidenceEvent, error) {
	records := make([]HitRecordStruct, header.EventNHits)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("event %d: error decoding hits: %w", header.EventId, err)
	}

	event := make(CoincidenceEvent)
	for _, record := range records {
		if int(record.Group) >= len(AllGroups) {
			return nil, &ErrUnknownGroup{Code: record.Group}
		}
		event.Add(AllGroups[record.Group], Hit{
			Channel:     int(record.Channel),
			LongEnergy:  float64(record.LongEnergy),
			ShortEnergy: float64(record.ShortEnergy),
			Timestamp:   record.Timestamp,
		})
	}
	return event, nil
}

// WriteEventToFile encodes a slow event. Groups are written in AllGroups
// order so the stream is reproducible.
func WriteEventToFile(w io.Writer, runNumber uint32, eventID uint32, event CoincidenceEvent) error {
	records := make([]HitRecordStruct, 0, event.NumHits())
	for code, group := range AllGroups {
		for _, hit := range event[group] {
			record, err := encodeHit(code, hit)
			if err != nil {
				return fmt.Errorf("event %d, group %s: %w", eventID, group, err)
			}
			records = append(records, record)
		}
	}
	if len(records) != event.NumHits() {
		for group := range event {
			if groupCode(group) < 0 {
				return fmt.Errorf("event %d: cannot encode group %q", eventID, group)
			}
		}
	}

	header := EventHeaderStruct{
		EventSize:  uint32(headerSize + len(records)*hitRecordSize),
		EventMagic: EVENT_MAGIC,
		EventRunNb: runNumber,
		EventId:    eventID,
		EventNHits: uint32(len(records)),
	}
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(&buffer, binary.LittleEndian, records); err != nil {
		return err
	}
	_, err := w.Write(buffer.Bytes())
	return err
}

// encodeHit rejects values the 16 bit fields of a record cannot hold
// exactly.
func encodeHit(code int, hit Hit) (HitRecordStruct, error) {
	if hit.Channel < 0 || hit.Channel > math.MaxUint16 {
		return HitRecordStruct{}, &ErrFieldRange{Field: "channel", Value: float64(hit.Channel)}
	}
	longEnergy, err := toUint16("long energy", hit.LongEnergy)
	if err != nil {
		return HitRecordStruct{}, err
	}
	shortEnergy, err := toUint16("short energy", hit.ShortEnergy)
	if err != nil {
		return HitRecordStruct{}, err
	}
	return HitRecordStruct{
		Group:       uint16(code),
		Channel:     uint16(hit.Channel),
		LongEnergy:  longEnergy,
		ShortEnergy: shortEnergy,
		Timestamp:   hit.Timestamp,
	}, nil
}

func toUint16(field string, v float64) (uint16, error) {
	if v < 0 || v > math.MaxUint16 || v != math.Trunc(v) {
		return 0, &ErrFieldRange{Field: field, Value: v}
	}
	return uint16(v), nil
}

func groupCode(group Group) int {
	for code, g := range AllGroups {
		if g == group {
			return code
		}
	}
	return -1
}

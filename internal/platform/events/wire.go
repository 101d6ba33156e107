package events

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kafka header keys set by the outbox dispatcher.
const (
	HeaderEventType     = "event_type"
	HeaderSchemaSubject = "schema_subject"
)

const wireHeaderSize = 5

// ErrInvalidFrame reports a record that does not carry the Confluent framing.
var ErrInvalidFrame = errors.New("invalid wire frame")

// Frame applies Confluent framing for Schema Registry aware payloads:
// a zero magic byte, the big-endian schema ID, then the payload.
func Frame(schemaID int, payload []byte) []byte {
	frame := make([]byte, wireHeaderSize+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:wireHeaderSize], uint32(schemaID))
	copy(frame[wireHeaderSize:], payload)
	return frame
}

// Unframe splits a framed record into its schema ID and a copy of the payload.
func Unframe(value []byte) (int, []byte, error) {
	if len(value) < wireHeaderSize {
		return 0, nil, fmt.Errorf("%w: length %d", ErrInvalidFrame, len(value))
	}
	if value[0] != 0 {
		return 0, nil, fmt.Errorf("%w: magic byte %d", ErrInvalidFrame, value[0])
	}
	schemaID := int(binary.BigEndian.Uint32(value[1:wireHeaderSize]))
	payload := append([]byte(nil), value[wireHeaderSize:]...)
	return schemaID, payload, nil
}

package types

import "github.com/ChainSafe/gossamer/pkg/scale"

// Event is one record of the per block, append only event log.
type Event struct {
	Module  string
	Variant string
	Payload []byte
}

// EncodeEvents encodes a block's event log as a single SCALE vector.
func EncodeEvents(events []Event) ([]byte, error) {
	return scale.Marshal(events)
}

// DecodeEvents decodes an event log written by EncodeEvents.
func DecodeEvents(data []byte) ([]Event, error) {
	var events []Event
	if err := scale.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

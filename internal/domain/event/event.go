package event

import "github.com/goccy/go-json"

// Event is a change notification mirrored onto a Redis stream. EventType names
// the stream, EventValue is the JSON payload stored under event_data.
type Event interface {
	EventType() string
	EventValue() ([]byte, error)
}

// DefaultEventValue encodes an event struct as its stream payload.
func DefaultEventValue(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}

// UnmarshalEvent decodes an event_data payload read back from the stream.
func UnmarshalEvent[T Event](data []byte) (T, error) {
	var e T
	err := json.Unmarshal(data, &e)
	return e, err
}

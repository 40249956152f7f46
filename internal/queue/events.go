package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the counter stream
const (
	EventCounterDelta = "counter_delta"
)

// Stream names
const (
	StreamCounters = "stream:counters"
)

// Consumer group name for counter workers
const (
	ConsumerGroupCounters = "counter_workers"
)

// CounterEvent is one counter delta scheduled by a privacy transition. The
// workers apply it to the count cache with at-least-once semantics: deltas
// across a quiescent system must net out to the true SQL count, but no
// ordering between deltas is promised.
type CounterEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the delta was scheduled

	// Counter key: "_", "@{user_id}", "{rating}", or "{tag}".
	Key   string `json:"key"`
	Delta int64  `json:"delta"`

	// PostID is carried for log correlation only.
	PostID string `json:"post_id,omitempty"`
}

// NewCounterDelta creates a delta event for one counter key.
func NewCounterDelta(key string, delta int64, postID string) CounterEvent {
	return CounterEvent{
		Type:      EventCounterDelta,
		Timestamp: time.Now().Unix(),
		Key:       key,
		Delta:     delta,
		PostID:    postID,
	}
}

// ToMap serializes the event for XADD field-value pairs.
func (e CounterEvent) ToMap() (map[string]interface{}, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return map[string]interface{}{
		"payload": string(raw),
	}, nil
}

// EventFromMap parses an event from XREADGROUP field-value pairs.
func EventFromMap(values map[string]interface{}) (CounterEvent, error) {
	payload, ok := values["payload"].(string)
	if !ok {
		return CounterEvent{}, fmt.Errorf("message missing payload field")
	}

	var event CounterEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return CounterEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

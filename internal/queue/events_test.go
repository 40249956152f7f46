package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterEventRoundTrip(t *testing.T) {
	event := NewCounterDelta("@7", -1, "AAAAAAAB")

	values, err := event.ToMap()
	require.NoError(t, err)

	parsed, err := EventFromMap(values)
	require.NoError(t, err)

	assert.Equal(t, event, parsed)
	assert.Equal(t, EventCounterDelta, parsed.Type)
	assert.Equal(t, "@7", parsed.Key)
	assert.Equal(t, int64(-1), parsed.Delta)
}

func TestEventFromMapRejectsMissingPayload(t *testing.T) {
	_, err := EventFromMap(map[string]interface{}{"other": "field"})
	assert.Error(t, err)

	_, err = EventFromMap(map[string]interface{}{"payload": "{not json"})
	assert.Error(t, err)
}

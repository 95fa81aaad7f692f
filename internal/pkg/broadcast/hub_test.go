package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutClients(t *testing.T) {
	t.Parallel()

	h := NewHub()
	// Must be a no-op, not a panic.
	h.Publish(EventNewReport, map[string]int{"id": 1})
	assert.Equal(t, 0, h.ClientCount())
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub()
	cl := &client{send: make(chan []byte, sendBuffer)}
	h.register(cl)
	require.Equal(t, 1, h.ClientCount())

	h.Publish(EventNewComment, map[string]interface{}{"report_id": 7})

	payload := <-cl.send
	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, EventNewComment, msg.Event)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, data["report_id"])
}

func TestPublishSkipsSlowConsumer(t *testing.T) {
	t.Parallel()

	h := NewHub()
	slow := &client{send: make(chan []byte)} // unbuffered, nobody reading
	fast := &client{send: make(chan []byte, sendBuffer)}
	h.register(slow)
	h.register(fast)

	// Must return immediately even though the slow client never reads.
	h.Publish(EventReportUpdated, map[string]int{"id": 3})

	select {
	case payload := <-fast.send:
		assert.NotEmpty(t, payload)
	default:
		t.Fatal("fast client did not receive the message")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHub()
	cl := &client{send: make(chan []byte, sendBuffer)}
	h.register(cl)

	h.unregister(cl)
	h.unregister(cl) // second call must not close the channel twice
	assert.Equal(t, 0, h.ClientCount())
}

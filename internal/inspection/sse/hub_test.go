package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishChange(t *testing.T) {
	h := NewHub(nil)
	c := &Client{ID: "c1", UserID: "u1", Events: make(chan Event, 1)}
	h.Register(c)
	assert.Equal(t, 1, h.ClientCount())

	h.PublishChange(EventSOWUpdate, "matrix_saved", map[string]string{"sow_id": "s1"})
	ev := <-c.Events
	assert.Equal(t, EventSOWUpdate, ev.EventType)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &body))
	assert.Equal(t, map[string]string{"sow_id": "s1", "action": "matrix_saved"}, body)

	// 缓冲区满时丢弃而不阻塞
	h.PublishChange(EventLibraryUpdate, "created", nil)
	h.PublishChange(EventLibraryUpdate, "created", nil)
	assert.Len(t, c.Events, 1)

	h.Unregister("c1")
	assert.Zero(t, h.ClientCount())
	<-c.Events
	_, open := <-c.Events
	assert.False(t, open)
}

func TestNilHubIsNoop(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() {
		h.PublishChange(EventJobPackUpdate, "created", map[string]string{"id": "jp"})
	})
}

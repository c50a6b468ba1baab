package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageQueuesWithSessionID(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1), SessionID: "sess-1"}

	c.SendMessage(Message{Type: "coach", Content: "hello"})

	require.Len(t, c.Send, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(<-c.Send, &msg))
	assert.Equal(t, "coach", msg.Type)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "sess-1", msg.SessionID)
}

func TestSendMessageAfterChannelClosed(t *testing.T) {
	// The hub closes Send on unregister while coach replies may still be in
	// flight; sending to a gone client must be a silent drop, not a panic.
	c := &Client{Send: make(chan []byte, 1), SessionID: "sess-1"}
	close(c.Send)

	assert.NotPanics(t, func() {
		c.SendMessage(Message{Type: "coach", Content: "hello"})
	})
}

func TestSendMessageDropsWhenBufferFull(t *testing.T) {
	c := &Client{Send: make(chan []byte), SessionID: "sess-1"}

	assert.NotPanics(t, func() {
		c.SendMessage(Message{Type: "coach", Content: "hello"})
	})
	assert.Len(t, c.Send, 0)
}

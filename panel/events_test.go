package panel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshalJSON(t *testing.T) {
	tests := []struct {
		event    Event
		expected string
	}{
		{Event{Type: EventAuthenticated}, `{"type":"authenticated"}`},
		{Event{Type: EventDeauthenticated}, `{"type":"deauthenticated"}`},
		{Event{Type: EventTableUpdate}, `{"type":"tableupdate","entries":[]}`},
		{Event{Type: EventTableUpdate, Entries: [][]any{{"Box", "box.fbx", 100, 1, "{}", "44136fa3"}}}, `{"type":"tableupdate","entries":[["Box","box.fbx",100,1,"{}","44136fa3"]]}`},
	}

	for _, tt := range tests {
		b, err := json.Marshal(tt.event)

		require.NoError(t, err)
		assert.Equal(t, tt.expected, string(b))
	}
}

func TestMessageUnmarshal(t *testing.T) {
	var msg Message

	require.NoError(t, json.Unmarshal([]byte(`{"type":"entityselected","index":2}`), &msg))
	assert.Equal(t, MsgEntitySelected, msg.Type)
	require.NotNil(t, msg.Index)
	assert.Equal(t, 2, *msg.Index)
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func TestMessageJSONRoundTrip(t *testing.T) {
	ts := time.Date(2025, 7, 17, 6, 18, 23, 0, time.UTC)
	messages := []Message{
		UserMessage{
			Envelope: Envelope{
				ID:               "u1",
				ParentID:         ptr("p0"),
				SessionID:        "s1",
				Timestamp:        ts,
				WorkingDirectory: "/work/app",
				GitBranch:        ptr("main"),
			},
			Content: "hello",
		},
		AssistantMessage{
			Envelope: Envelope{ID: "a1", SessionID: "s1", Timestamp: ts},
			Content: []ContentBlock{
				TextBlock{Text: "Reading"},
				ToolUseBlock{ID: "t1", Name: "Read", Input: map[string]any{"file_path": "/x", "limit": float64(10)}},
			},
			ProcessingStatus: StatusCompleted,
			StopReason:       ptr("tool_use"),
		},
		AssistantMessage{
			Envelope:         Envelope{ID: "a2", SessionID: "s1", Timestamp: ts},
			Content:          []ContentBlock{},
			ProcessingStatus: StatusProcessing,
		},
		SummaryMessage{SummaryText: "Fixed auth", LeafID: "a1"},
	}

	for _, msg := range messages {
		t.Run(string(msg.Kind()), func(t *testing.T) {
			data, err := json.Marshal(msg)
			require.NoError(t, err)

			back, err := UnmarshalMessage(data)
			require.NoError(t, err)
			assert.Equal(t, msg, back)
		})
	}
}

func TestMessageJSONDiscriminator(t *testing.T) {
	data, err := json.Marshal(SummaryMessage{SummaryText: "s", LeafID: "l"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_type":"summary","summary_text":"s","leaf_id":"l"}`, string(data))

	data, err = json.Marshal(AssistantMessage{ProcessingStatus: StatusError})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "assistant", fields["message_type"])
	assert.Equal(t, []any{}, fields["content"])
	assert.Equal(t, "error", fields["processing_status"])
	assert.NotContains(t, fields, "stop_reason")
}

func TestUnmarshalMessageErrors(t *testing.T) {
	_, err := UnmarshalMessage([]byte(`{"message_type":"system"}`))
	assert.Error(t, err)

	_, err = UnmarshalMessage([]byte(`not json`))
	assert.Error(t, err)

	_, err = UnmarshalMessage([]byte(`{"message_type":"assistant","content":[{"type":"image"}]}`))
	assert.Error(t, err)
}

func TestContentBlockJSON(t *testing.T) {
	data, err := json.Marshal(ToolUseBlock{ID: "t1", Name: "Bash"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_use","id":"t1","name":"Bash","input":null}`, string(data))

	block, err := UnmarshalContentBlock([]byte(`{"type":"text","text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, TextBlock{Text: "hi"}, block)

	_, err = UnmarshalContentBlock([]byte(`{"type":"thinking"}`))
	assert.Error(t, err)
}

func TestMessageTimestamp(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	got, ok := MessageTimestamp(UserMessage{Envelope: Envelope{Timestamp: ts}})
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = MessageTimestamp(AssistantMessage{Envelope: Envelope{Timestamp: ts}})
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	_, ok = MessageTimestamp(SummaryMessage{})
	assert.False(t, ok)
}

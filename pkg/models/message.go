package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageKind is the record type of a decoded log line
type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindAssistant MessageKind = "assistant"
	KindSummary   MessageKind = "summary"
)

// Message is a decoded log record. The set of implementations is closed:
// UserMessage, AssistantMessage and SummaryMessage.
type Message interface {
	Kind() MessageKind
	isMessage()
}

// Envelope carries the fields shared by user and assistant records
type Envelope struct {
	ID               string    `json:"id"`
	ParentID         *string   `json:"parent_id,omitempty"`
	SessionID        string    `json:"session_id"`
	Timestamp        time.Time `json:"timestamp"`
	WorkingDirectory string    `json:"working_directory"`
	GitBranch        *string   `json:"git_branch,omitempty"`
}

// UserMessage is a prompt typed by the user, or a tool result (content left empty)
type UserMessage struct {
	Envelope
	Content string `json:"content"`
}

// AssistantMessage is one assistant turn
type AssistantMessage struct {
	Envelope
	Content          []ContentBlock   `json:"content"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	StopReason       *string          `json:"stop_reason,omitempty"`
}

// SummaryMessage is a compaction summary pointing at the message it covers
type SummaryMessage struct {
	SummaryText string `json:"summary_text"`
	LeafID      string `json:"leaf_id"`
}

func (UserMessage) Kind() MessageKind      { return KindUser }
func (AssistantMessage) Kind() MessageKind { return KindAssistant }
func (SummaryMessage) Kind() MessageKind   { return KindSummary }

func (UserMessage) isMessage()      {}
func (AssistantMessage) isMessage() {}
func (SummaryMessage) isMessage()   {}

func (m UserMessage) MarshalJSON() ([]byte, error) {
	type plain UserMessage
	return json.Marshal(struct {
		MessageType MessageKind `json:"message_type"`
		plain
	}{KindUser, plain(m)})
}

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	type plain AssistantMessage
	p := plain(m)
	if p.Content == nil {
		p.Content = []ContentBlock{}
	}
	return json.Marshal(struct {
		MessageType MessageKind `json:"message_type"`
		plain
	}{KindAssistant, p})
}

func (m SummaryMessage) MarshalJSON() ([]byte, error) {
	type plain SummaryMessage
	return json.Marshal(struct {
		MessageType MessageKind `json:"message_type"`
		plain
	}{KindSummary, plain(m)})
}

// UnmarshalMessage decodes a message produced by json.Marshal on a Message value
func UnmarshalMessage(data []byte) (Message, error) {
	var head struct {
		MessageType MessageKind `json:"message_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	switch head.MessageType {
	case KindUser:
		var m UserMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode user message: %w", err)
		}
		return m, nil
	case KindAssistant:
		var raw struct {
			Envelope
			Content          []json.RawMessage `json:"content"`
			ProcessingStatus ProcessingStatus  `json:"processing_status"`
			StopReason       *string           `json:"stop_reason"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode assistant message: %w", err)
		}
		m := AssistantMessage{
			Envelope:         raw.Envelope,
			Content:          make([]ContentBlock, 0, len(raw.Content)),
			ProcessingStatus: raw.ProcessingStatus,
			StopReason:       raw.StopReason,
		}
		for _, c := range raw.Content {
			block, err := UnmarshalContentBlock(c)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, block)
		}
		return m, nil
	case KindSummary:
		var m SummaryMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode summary message: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown message type %q", head.MessageType)
}

// MessageTimestamp returns the timestamp of user and assistant messages
func MessageTimestamp(m Message) (time.Time, bool) {
	switch m := m.(type) {
	case UserMessage:
		return m.Timestamp, true
	case AssistantMessage:
		return m.Timestamp, true
	case SummaryMessage:
		return time.Time{}, false
	}
	return time.Time{}, false
}

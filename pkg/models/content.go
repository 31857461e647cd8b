package models

import (
	"encoding/json"
	"fmt"
)

// ContentBlock is one unit of assistant content: TextBlock or ToolUseBlock
type ContentBlock interface {
	isContentBlock()
}

// TextBlock is a span of assistant text
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUseBlock is a tool invocation. Input is the tool's JSON arguments as decoded
// by encoding/json, nil when the record carried none.
type ToolUseBlock struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input any    `json:"input"`
}

func (TextBlock) isContentBlock()    {}
func (ToolUseBlock) isContentBlock() {}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	type plain TextBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"text", plain(b)})
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type plain ToolUseBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"tool_use", plain(b)})
}

// UnmarshalContentBlock decodes a block by its "type" discriminator
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode content block: %w", err)
	}

	switch head.Type {
	case "text":
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode text block: %w", err)
		}
		return b, nil
	case "tool_use":
		var b ToolUseBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode tool_use block: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown content block type %q", head.Type)
}

package sessions

import (
	"encoding/json"
	"strings"

	"github.com/strrl/claude-lens/pkg/models"
	"github.com/tidwall/gjson"
)

// DecodeBlocks decodes an assistant content array. Non-array content yields an
// empty list and blocks of unknown type are dropped.
func DecodeBlocks(content gjson.Result) []models.ContentBlock {
	blocks := []models.ContentBlock{}
	if !content.IsArray() {
		return blocks
	}
	content.ForEach(func(_, item gjson.Result) bool {
		if block, ok := DecodeBlock(item); ok {
			blocks = append(blocks, block)
		}
		return true
	})
	return blocks
}

// DecodeBlock decodes a single content block
func DecodeBlock(item gjson.Result) (models.ContentBlock, bool) {
	switch stringField(item, "type") {
	case "text":
		return models.TextBlock{Text: stringField(item, "text")}, true
	case "tool_use":
		var input any
		if v := item.Get("input"); v.Exists() {
			if err := json.Unmarshal([]byte(v.Raw), &input); err != nil {
				input = nil
			}
		}
		return models.ToolUseBlock{
			ID:    stringField(item, "id"),
			Name:  stringField(item, "name"),
			Input: input,
		}, true
	}
	return nil, false
}

// StatusForStopReason maps an assistant stop reason to a processing status
func StatusForStopReason(stopReason *string) models.ProcessingStatus {
	if stopReason == nil {
		return models.StatusProcessing
	}
	switch *stopReason {
	case "end_turn", "tool_use":
		return models.StatusCompleted
	case "max_tokens", "stop_sequence":
		return models.StatusStopped
	}
	return models.StatusError
}

// MessagePreview builds the one-line preview of a message. Assistant text and
// tool markers are joined with spaces; "" means the message has nothing to show.
func MessagePreview(m models.Message, budget int) string {
	switch m := m.(type) {
	case models.UserMessage:
		return Truncate(m.Content, budget)
	case models.AssistantMessage:
		var parts []string
		for _, block := range m.Content {
			switch b := block.(type) {
			case models.TextBlock:
				parts = append(parts, b.Text)
			case models.ToolUseBlock:
				parts = append(parts, "[Using tool: "+b.Name+"]")
			}
		}
		if len(parts) == 0 {
			return ""
		}
		return Truncate(strings.Join(parts, " "), budget)
	case models.SummaryMessage:
		return Truncate(m.SummaryText, budget)
	}
	return ""
}

package sessions

import (
	"bytes"
	"time"

	"github.com/strrl/claude-lens/pkg/models"
	"github.com/tidwall/gjson"
)

// parseRecord validates one log line and returns it as a gjson object.
// Blank lines, invalid JSON and non-object values are rejected.
func parseRecord(line []byte) (gjson.Result, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || !gjson.ValidBytes(line) {
		return gjson.Result{}, false
	}
	r := gjson.ParseBytes(line)
	if !r.IsObject() {
		return gjson.Result{}, false
	}
	return r, true
}

// DecodeLine decodes one log line into a message. It returns false for blank
// lines, invalid JSON, and records whose type is missing or unknown; a single
// bad line never fails the file it belongs to.
func DecodeLine(line []byte, sessionID string) (models.Message, bool) {
	r, ok := parseRecord(line)
	if !ok {
		return nil, false
	}
	return decodeRecord(r, sessionID)
}

func decodeRecord(r gjson.Result, sessionID string) (models.Message, bool) {
	switch models.MessageKind(stringField(r, "type")) {
	case models.KindUser:
		return models.UserMessage{
			Envelope: decodeEnvelope(r, sessionID),
			Content:  stringField(r, "message.content"),
		}, true

	case models.KindAssistant:
		stopReason := stopReasonField(r)
		return models.AssistantMessage{
			Envelope:         decodeEnvelope(r, sessionID),
			Content:          DecodeBlocks(r.Get("message.content")),
			ProcessingStatus: StatusForStopReason(stopReason),
			StopReason:       stopReason,
		}, true

	case models.KindSummary:
		return models.SummaryMessage{
			SummaryText: stringField(r, "summary"),
			LeafID:      stringField(r, "leafUuid"),
		}, true
	}
	return nil, false
}

// stopReasonField returns nil only for a missing or null stop_reason. Other
// non-string values are kept as raw JSON so they map to StatusError.
func stopReasonField(r gjson.Result) *string {
	v := r.Get("message.stop_reason")
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	s := v.Raw
	if v.Type == gjson.String {
		s = v.Str
	}
	return &s
}

func decodeEnvelope(r gjson.Result, sessionID string) models.Envelope {
	ts, ok := recordTimestamp(r)
	if !ok {
		ts = time.Now().UTC()
	}
	return models.Envelope{
		ID:               stringField(r, "uuid"),
		ParentID:         optionalString(r, "parentUuid"),
		SessionID:        sessionID,
		Timestamp:        ts,
		WorkingDirectory: stringField(r, "cwd"),
		GitBranch:        optionalString(r, "gitBranch"),
	}
}

// recordTimestamp parses the RFC 3339 timestamp of a record
func recordTimestamp(r gjson.Result) (time.Time, bool) {
	v := r.Get("timestamp")
	if v.Type != gjson.String {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, v.Str)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// stringField returns the value at path when it is a JSON string, "" otherwise
func stringField(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func optionalString(r gjson.Result, path string) *string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return nil
	}
	s := v.Str
	return &s
}

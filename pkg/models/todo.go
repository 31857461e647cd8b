package models

import (
	"encoding/json"
	"fmt"
)

// TodoStatus is the state of a todo item
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// UnmarshalJSON rejects statuses outside the known set
func (s *TodoStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch TodoStatus(v) {
	case TodoPending, TodoInProgress, TodoCompleted:
		*s = TodoStatus(v)
		return nil
	}
	return fmt.Errorf("unknown todo status %q", v)
}

// Active reports whether the todo still needs work
func (s TodoStatus) Active() bool {
	return s == TodoPending || s == TodoInProgress
}

// TodoPriority is the optional priority of a todo item
type TodoPriority string

const (
	PriorityLow    TodoPriority = "low"
	PriorityMedium TodoPriority = "medium"
	PriorityHigh   TodoPriority = "high"
)

// UnmarshalJSON rejects priorities outside the known set
func (p *TodoPriority) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch TodoPriority(v) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		*p = TodoPriority(v)
		return nil
	}
	return fmt.Errorf("unknown todo priority %q", v)
}

// TodoItem is one entry of a todos/<name>.json file
type TodoItem struct {
	ID         string       `json:"id,omitempty"`
	Content    string       `json:"content"`
	Status     TodoStatus   `json:"status"`
	Priority   TodoPriority `json:"priority,omitempty"`
	ActiveForm string       `json:"activeForm,omitempty"`
}

// Settings mirrors ~/.claude/settings.json
type Settings struct {
	Permissions Permissions              `json:"permissions"`
	Hooks       map[string][]HookMatcher `json:"hooks,omitempty"`
	Model       string                   `json:"model,omitempty"`
	Env         map[string]string        `json:"env,omitempty"`
}

// Permissions lists the tool permission rules
type Permissions struct {
	DefaultMode string   `json:"defaultMode,omitempty"`
	Allow       []string `json:"allow"`
	Deny        []string `json:"deny"`
}

// HookMatcher binds hooks to tool names matching Matcher
type HookMatcher struct {
	Matcher string `json:"matcher"`
	Hooks   []Hook `json:"hooks"`
}

// Hook is a single command hook
type Hook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

package models

import (
	"path/filepath"
	"time"
)

// ProcessingStatus is the state of an assistant turn derived from its stop reason
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusStopped    ProcessingStatus = "stopped"
	StatusError      ProcessingStatus = "error"
)

// Session represents one Claude Code conversation, backed by one log file
type Session struct {
	SessionID            string    `json:"session_id"`
	ProjectPath          string    `json:"project_path"`
	FirstTimestamp       time.Time `json:"first_timestamp"`
	LastTimestamp        time.Time `json:"last_timestamp"`
	FileModifiedTime     time.Time `json:"file_modified_time"`
	MessageCount         int       `json:"message_count"`
	GitBranch            *string   `json:"git_branch,omitempty"`
	LatestContentPreview *string   `json:"latest_content_preview,omitempty"`
	IsProcessing         bool      `json:"is_processing"`
	IdeInfo              *IdeInfo  `json:"ide_info,omitempty"`
}

// ProjectName returns the last element of the project path
func (s Session) ProjectName() string {
	return ProjectName(s.ProjectPath)
}

// ProjectSummary aggregates all sessions sharing a resolved project path
type ProjectSummary struct {
	ProjectPath   string    `json:"project_path"`
	Name          string    `json:"name"`
	SessionCount  int       `json:"session_count"`
	TotalMessages int       `json:"total_messages"`
	LastActivity  time.Time `json:"last_activity"`
	ActiveTodos   int       `json:"active_todos"`
	LatestMessage *string   `json:"latest_message,omitempty"`
	IdeInfo       *IdeInfo  `json:"ide_info,omitempty"`
}

// Stats holds corpus-wide totals
type Stats struct {
	TotalSessions  int `json:"total_sessions"`
	TotalMessages  int `json:"total_messages"`
	TotalCommands  int `json:"total_commands"`
	ActiveProjects int `json:"active_projects"`
	PendingTodos   int `json:"pending_todos"`
}

// IdeInfo describes an IDE attached to Claude Code through a lock file
type IdeInfo struct {
	Pid              int      `json:"pid"`
	WorkspaceFolders []string `json:"workspaceFolders"`
	IdeName          string   `json:"ideName"`
	Transport        string   `json:"transport"`
	RunningInWindows bool     `json:"runningInWindows"`
	AuthToken        string   `json:"authToken"`
}

// CommandLogEntry is one line of the command history log
type CommandLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Command   string    `json:"command"`
	Cwd       *string   `json:"cwd,omitempty"`
}

// ProjectName extracts a display name from a project path
func ProjectName(path string) string {
	if path == "" || path == "Unknown" {
		return "Unknown"
	}
	return filepath.Base(path)
}

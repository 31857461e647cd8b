package sessions

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/strrl/claude-lens/pkg/models"
)

// findClaude locates the claude executable, falling back to "claude"
func findClaude() string {
	if path, err := exec.LookPath("claude"); err == nil {
		return path
	}

	homeDir, _ := os.UserHomeDir()
	possiblePaths := []string{
		filepath.Join(homeDir, ".claude", "local", "claude"),
		"/usr/local/bin/claude",
		"/opt/homebrew/bin/claude",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "claude"
}

// ResumeCommand returns the shell command that resumes a session in its project
func ResumeCommand(s models.Session) string {
	if s.ProjectPath == "" || s.ProjectPath == "Unknown" {
		return fmt.Sprintf("claude --resume %s", s.SessionID)
	}
	return fmt.Sprintf("cd %s && claude --resume %s", strconv.Quote(s.ProjectPath), s.SessionID)
}

// ExecuteClaudeResume runs `claude --resume` for a session from its project
// directory, attached to the current terminal
func ExecuteClaudeResume(sessionID string, projectPath string) error {
	if projectPath != "" && projectPath != "Unknown" {
		if err := os.Chdir(projectPath); err != nil {
			return fmt.Errorf("failed to change to project directory %s: %w", projectPath, err)
		}
	}

	cmd := exec.Command(findClaude(), "--resume", sessionID)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

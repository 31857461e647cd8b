package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/strrl/claude-lens/pkg/models"
)

// SearchSessions returns sessions whose project path, id or git branch contains
// query, ignoring case
func (s *Store) SearchSessions(ctx context.Context, query string) ([]models.Session, error) {
	list, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matched := []models.Session{}
	for _, sess := range list {
		if strings.Contains(strings.ToLower(sess.ProjectPath), q) ||
			strings.Contains(strings.ToLower(sess.SessionID), q) ||
			(sess.GitBranch != nil && strings.Contains(strings.ToLower(*sess.GitBranch), q)) {
			matched = append(matched, sess)
		}
	}
	return matched, nil
}

// SearchCommands returns command history entries whose command or user
// contains query, ignoring case
func (s *Store) SearchCommands(ctx context.Context, query string) ([]models.CommandLogEntry, error) {
	entries, err := s.CommandHistory(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matched := []models.CommandLogEntry{}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Command), q) || strings.Contains(strings.ToLower(e.User), q) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// ExportSession renders the messages of a session as indented JSON
func (s *Store) ExportSession(ctx context.Context, sessionID string) ([]byte, error) {
	messages, err := s.SessionMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}
	return data, nil
}

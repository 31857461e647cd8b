package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDebugCommand creates the debug-session command
func NewDebugCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug-session <session-id>",
		Short: "Debug a specific session to see decoded data",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runDebugSession,
	}
}

func (a *app) runDebugSession(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Debugging session: %s\n", sessionID)
	fmt.Fprintln(w, "==========================================")

	session, err := a.findSession(cmd, sessionID)
	if err != nil {
		return fmt.Errorf("failed to debug session: %w", err)
	}
	summary, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", summary)

	messages, err := a.store.SessionMessages(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to debug session: %w", err)
	}

	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages found for this session")
		return nil
	}

	fmt.Fprintf(w, "Found %d messages:\n", len(messages))
	for i, msg := range messages {
		data, err := json.MarshalIndent(msg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "\n--- Message %d ---\n%s\n", i+1, data)
	}

	return nil
}

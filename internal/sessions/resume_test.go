package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/strrl/claude-lens/pkg/models"
)

func TestResumeCommand(t *testing.T) {
	assert.Equal(t, `cd "/work/my app" && claude --resume s1`,
		ResumeCommand(models.Session{SessionID: "s1", ProjectPath: "/work/my app"}))
	assert.Equal(t, "claude --resume s2", ResumeCommand(models.Session{SessionID: "s2", ProjectPath: "Unknown"}))
	assert.Equal(t, "claude --resume s3", ResumeCommand(models.Session{SessionID: "s3"}))
}

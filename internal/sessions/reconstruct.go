package sessions

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/strrl/claude-lens/pkg/models"
)

// readerPool reuses 1MB line readers across session files. Lines longer than
// the buffer are still read whole.
var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 1024*1024)
	},
}

// checkEvery is how many lines are read between context checks
const checkEvery = 512

// forEachLine streams a file line by line in on-disk order until fn returns false
func forEachLine(ctx context.Context, path string, fn func(line []byte) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w: %w", path, models.ErrIO, err)
	}
	defer f.Close()

	br := readerPool.Get().(*bufio.Reader)
	br.Reset(f)
	defer func() {
		br.Reset(nil)
		readerPool.Put(br)
	}()

	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line, err := br.ReadBytes('\n')
		if len(line) > 0 && !fn(line) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w: %w", path, models.ErrIO, err)
		}
	}
}

// ReconstructSession folds one session log file into a Session.
// FirstTimestamp is the first parseable timestamp in file order and
// LastTimestamp the maximum; the preview comes from the record holding the
// maximum timestamp, later lines winning ties.
func ReconstructSession(ctx context.Context, path, sessionID, projectPath string, budget int) (models.Session, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to stat %s: %w: %w", path, models.ErrIO, err)
	}

	session := models.Session{
		SessionID:        sessionID,
		ProjectPath:      projectPath,
		FileModifiedTime: info.ModTime().UTC(),
	}

	var haveFirst, haveLast bool
	err = forEachLine(ctx, path, func(line []byte) bool {
		r, ok := parseRecord(line)
		if !ok {
			return true
		}
		// every JSON record counts, including types that do not decode
		session.MessageCount++
		msg, decoded := decodeRecord(r, sessionID)

		if ts, ok := recordTimestamp(r); ok {
			if !haveFirst {
				session.FirstTimestamp = ts
				haveFirst = true
			}
			if !haveLast || !ts.Before(session.LastTimestamp) {
				session.LastTimestamp = ts
				haveLast = true
				session.LatestContentPreview = nil
				if decoded {
					if p := MessagePreview(msg, budget); p != "" {
						session.LatestContentPreview = &p
					}
				}
			}
		}

		if session.GitBranch == nil {
			if branch := stringField(r, "gitBranch"); branch != "" {
				session.GitBranch = &branch
			}
		}

		if a, ok := msg.(models.AssistantMessage); ok && a.ProcessingStatus == models.StatusProcessing {
			session.IsProcessing = true
		}
		return true
	})
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	if !haveFirst {
		session.FirstTimestamp = now
	}
	if !haveLast {
		session.LastTimestamp = now
	}
	return session, nil
}

// ReadMessages decodes every message of a session log file in file order
func ReadMessages(ctx context.Context, path, sessionID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := forEachLine(ctx, path, func(line []byte) bool {
		if msg, ok := DecodeLine(line, sessionID); ok {
			messages = append(messages, msg)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

package cache

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/pkg/models"
	"golang.org/x/sync/singleflight"
)

// Loader decodes the full message list of one session
type Loader func(ctx context.Context) ([]models.Message, error)

// MessageCache holds decoded message lists keyed by session id.
// Entries are only dropped by Invalidate or Clear.
type MessageCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Message
	// gen is bumped by every invalidation so loads that raced with one are not stored
	gen uint64

	group  singleflight.Group
	logger *logrus.Logger
}

// NewMessageCache creates an empty message cache
func NewMessageCache(logger *logrus.Logger) *MessageCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &MessageCache{
		entries: make(map[string][]models.Message),
		logger:  logger,
	}
}

// Get returns a copy of the cached messages of a session
func (c *MessageCache) Get(sessionID string) ([]models.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages, ok := c.entries[sessionID]
	if !ok {
		return nil, false
	}
	return cloneMessages(messages), true
}

// GetOrLoad returns the cached messages of a session, loading and storing them
// on a miss. Concurrent misses for the same session share one load, which is
// not cancelled with the caller that started it; each caller stops waiting
// when its own ctx ends.
func (c *MessageCache) GetOrLoad(ctx context.Context, sessionID string, load Loader) ([]models.Message, error) {
	if messages, ok := c.Get(sessionID); ok {
		c.logger.WithField("session", sessionID).Debug("message cache hit")
		return messages, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(sessionID, func() (any, error) {
		c.mu.RLock()
		gen := c.gen
		if messages, ok := c.entries[sessionID]; ok {
			c.mu.RUnlock()
			return messages, nil
		}
		c.mu.RUnlock()

		c.logger.WithField("session", sessionID).Debug("message cache miss")
		messages, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[sessionID] = messages
		}
		c.mu.Unlock()
		return messages, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneMessages(res.Val.([]models.Message)), nil
	}
}

// Invalidate drops one session
func (c *MessageCache) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
	c.gen++
}

// Clear drops every session
func (c *MessageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]models.Message)
	c.gen++
}

// Len returns the number of cached sessions
func (c *MessageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneMessages(messages []models.Message) []models.Message {
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		if a, ok := m.(models.AssistantMessage); ok {
			a.Content = append([]models.ContentBlock(nil), a.Content...)
			if a.Content == nil {
				a.Content = []models.ContentBlock{}
			}
			m = a
		}
		out[i] = m
	}
	return out
}

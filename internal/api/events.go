package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/strrl/claude-lens/internal/watch"
)

// eventBuffer is how many change events a slow client may lag behind
const eventBuffer = 16

// StreamEvents pushes every file-changed event to the websocket client until
// it disconnects
func StreamEvents(hub *watch.Hub, logger *logrus.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer c.Close()

		events, unsubscribe := hub.Subscribe(eventBuffer)
		defer unsubscribe()

		// The client never sends anything; reading detects the disconnect
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := c.WriteJSON(event); err != nil {
					logger.WithError(err).Debug("websocket write failed")
					return
				}
			}
		}
	})
}

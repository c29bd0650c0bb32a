package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spirittosoul/server/game/chat"
	"go.uber.org/zap"
)

const keepalive = 30 * time.Second

// Handler streams the notification feed as server-sent events.
type Handler struct {
	feed   *chat.Feed
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(feed *chat.Feed, logger *zap.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

// ServeSSE handles GET /sse?replay=N.
// Each feed message is sent as an event named after its kind (notify, chat
// or cue). With replay, the last N stored messages are sent first.
func (h *Handler) ServeSSE(c *gin.Context) {
	ctx := c.Request.Context()
	msgCh, unsub, err := h.feed.Subscribe(ctx)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	if n, _ := strconv.Atoi(c.Query("replay")); n > 0 {
		past, err := h.feed.History(ctx, n)
		if err != nil {
			h.logger.Warn("sse replay failed", zap.Error(err))
		}
		for _, m := range past {
			h.write(c, m)
		}
	}
	c.Writer.Flush()

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			h.write(c, msg)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) write(c *gin.Context, m chat.Message) {
	raw, err := json.Marshal(m)
	if err != nil {
		h.logger.Warn("sse marshal failed", zap.Error(err))
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", m.Kind, raw)
}

package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spirittosoul/server/audit"
	"github.com/spirittosoul/server/game/chat"
	"go.uber.org/zap"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// FeedHandler serves the notification history and the progression journal.
type FeedHandler struct {
	feed    *chat.Feed
	journal *audit.Journal
	logger  *zap.Logger
}

// NewFeedHandler creates a new FeedHandler. journal may be nil.
func NewFeedHandler(feed *chat.Feed, journal *audit.Journal, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, journal: journal, logger: logger}
}

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeedLimit)))
	if err != nil || n <= 0 {
		return defaultFeedLimit
	}
	if n > maxFeedLimit {
		return maxFeedLimit
	}
	return n
}

// History handles GET /api/feed?limit=N, oldest first.
func (h *FeedHandler) History(c *gin.Context) {
	msgs, err := h.feed.History(c.Request.Context(), limitParam(c))
	if err != nil {
		h.logger.Error("feed history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Journal handles GET /api/journal?player=NAME&limit=N, newest first.
func (h *FeedHandler) Journal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	entries, err := h.journal.Recent(c.Request.Context(), c.Query("player"), limitParam(c))
	if err != nil {
		h.logger.Error("journal query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

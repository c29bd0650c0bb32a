package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/sim"
	"github.com/spirittosoul/server/resource"
	"go.uber.org/zap"
)

// Controller is the part of the simulation the HTTP surface drives.
type Controller interface {
	State() sim.State
	NewGame() error
	CreateCharacter(ctx context.Context, name, calling string) error
	Pause() error
	Resume() error
	Save(ctx context.Context) error
}

// Frames yields the most recently rendered frame.
type Frames interface {
	Latest() (sim.Frame, bool)
}

// GameHandler handles the game REST endpoints.
type GameHandler struct {
	game   Controller
	frames Frames
	inputs *input.Queue
	res    *resource.ResourceLoader
	logger *zap.Logger
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(game Controller, frames Frames, inputs *input.Queue, res *resource.ResourceLoader, logger *zap.Logger) *GameHandler {
	return &GameHandler{game: game, frames: frames, inputs: inputs, res: res, logger: logger}
}

// State handles GET /api/state.
func (h *GameHandler) State(c *gin.Context) {
	f, ok := h.frames.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame rendered yet", "state": h.game.State()})
		return
	}
	c.JSON(http.StatusOK, f)
}

// Quests handles GET /api/quests.
func (h *GameHandler) Quests(c *gin.Context) {
	f, ok := h.frames.Latest()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": []sim.QuestView{}, "completed": []string{}})
		return
	}
	active, completed := f.Quests, f.Completed
	if active == nil {
		active = []sim.QuestView{}
	}
	if completed == nil {
		completed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "completed": completed})
}

// Callings handles GET /api/callings.
func (h *GameHandler) Callings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"callings": h.res.Callings})
}

// Intent handles POST /api/intents. The intent runs on the next tick.
func (h *GameHandler) Intent(c *gin.Context) {
	var in input.Intent
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.push(c, in)
}

func (h *GameHandler) push(c *gin.Context, in input.Intent) {
	switch err := h.inputs.Push(in); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"queued": in.Type})
	case errors.Is(err, input.ErrBadIntent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, input.ErrRateLimited), errors.Is(err, input.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		h.logger.Error("intent push failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// StartQuest handles POST /api/quests/:id/start. The quest is offered on
// the next tick; a refusal reaches the feed.
func (h *GameHandler) StartQuest(c *gin.Context) {
	h.push(c, input.Intent{Type: input.StartQuest, ID: c.Param("id")})
}

// Pause handles POST /api/pause.
func (h *GameHandler) Pause(c *gin.Context) {
	h.control(c, h.game.Pause())
}

// Resume handles POST /api/resume.
func (h *GameHandler) Resume(c *gin.Context) {
	h.control(c, h.game.Resume())
}

// Save handles POST /api/save.
func (h *GameHandler) Save(c *gin.Context) {
	if err := h.game.Save(c.Request.Context()); err != nil {
		if errors.Is(err, sim.ErrWrongState) {
			h.control(c, err)
			return
		}
		h.logger.Error("save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

type createCharacterRequest struct {
	Name    string `json:"name"    binding:"omitempty,min=1,max=32"`
	Calling string `json:"calling" binding:"required"`
}

// CreateCharacter handles POST /api/character. It leaves the menu if
// needed, creates the character and starts play.
func (h *GameHandler) CreateCharacter(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.res.Calling(req.Calling) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid calling"})
		return
	}
	if h.game.State() == sim.StateMenu {
		if err := h.game.NewGame(); err != nil {
			h.control(c, err)
			return
		}
	}
	err := h.game.CreateCharacter(c.Request.Context(), req.Name, req.Calling)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"state": h.game.State()})
	case errors.Is(err, player.ErrUnknownCalling):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid calling"})
	default:
		h.control(c, err)
	}
}

func (h *GameHandler) control(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"state": h.game.State()})
		return
	}
	if errors.Is(err, sim.ErrWrongState) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": h.game.State()})
		return
	}
	h.logger.Error("game control failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

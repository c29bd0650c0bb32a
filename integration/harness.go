package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/spirittosoul/server/api/rest"
	"github.com/spirittosoul/server/api/sse"
	"github.com/spirittosoul/server/audit"
	"github.com/spirittosoul/server/config"
	"github.com/spirittosoul/server/game/chat"
	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/sim"
	"github.com/spirittosoul/server/plugin/hook"
	"github.com/spirittosoul/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server and a running simulation loop.
// It mirrors the dependency wiring in main.go.
type TestServer struct {
	DB      *gorm.DB
	Game    *sim.Game
	Feed    *chat.Feed
	Journal *audit.Journal
	Hooks   *hook.HookCenter
	Server  *httptest.Server
	URL     string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTestServer boots a fully wired game with no save and starts its loop.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Security.RateLimitRPS = 1000
	cfg.Security.RateLimitBurst = 2000
	logger := zap.NewNop()

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	cat := testutil.LoadCatalog(t)

	// ---- Feed, hooks, journal ----
	feed := chat.NewFeed(c, pubsub, logger)
	hooks := hook.NewHookCenter()
	journal := audit.New(db, logger)
	journal.Attach(hooks)

	// ---- Simulation ----
	inputs := input.NewQueue(0, rate.NewLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	frames := sim.NewFrameStore()
	game, err := sim.New(cfg, cat, sim.Deps{
		Events:  event.NewDispatcher(feed, feed, hooks, logger),
		Input:   inputs,
		Saves:   save.NewManager(save.NewDBStore(db), cfg.Game.SaveKey, logger),
		Surface: frames,
	}, logger)
	require.NoError(t, err)
	require.NoError(t, game.Boot(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	ts := &TestServer{DB: db, Game: game, Feed: feed, Journal: journal, Hooks: hooks, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(ts.done)
		_ = game.Run(ctx)
	}()

	// ---- HTTP ----
	r := apirest.NewRouter(ctx, cfg.Security, apirest.Routes{
		Game: apirest.NewGameHandler(game, frames, inputs, cat, logger),
		Feed: apirest.NewFeedHandler(feed, journal, logger),
		SSE:  sse.NewHandler(feed, logger),
	}, logger)
	ts.Server = httptest.NewServer(r)
	ts.URL = ts.Server.URL
	t.Cleanup(ts.Close)
	return ts
}

// Close stops the loop, flushes the journal and the feed and shuts the
// server down. It is safe to call more than once.
func (ts *TestServer) Close() {
	ts.cancel()
	<-ts.done
	ts.Journal.Stop(context.Background())
	ts.Feed.Stop()
	ts.Server.Close()
}

// Do sends a JSON request and returns the status and raw body.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// Intent queues one intent and requires it to be accepted.
func (ts *TestServer) Intent(t *testing.T, in input.Intent) {
	t.Helper()
	code, body := ts.Do(t, http.MethodPost, "/api/intents", in)
	require.Equal(t, http.StatusAccepted, code, string(body))
}

// Frame fetches the latest rendered frame.
func (ts *TestServer) Frame(t *testing.T) sim.Frame {
	t.Helper()
	code, body := ts.Do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var f sim.Frame
	require.NoError(t, json.Unmarshal(body, &f))
	return f
}

// WaitFrame polls the state endpoint until cond holds.
func (ts *TestServer) WaitFrame(t *testing.T, timeout time.Duration, cond func(sim.Frame) bool) sim.Frame {
	t.Helper()
	var last sim.Frame
	require.Eventually(t, func() bool {
		code, body := ts.Do(t, http.MethodGet, "/api/state", nil)
		if code != http.StatusOK {
			return false
		}
		last = sim.Frame{}
		if json.Unmarshal(body, &last) != nil {
			return false
		}
		return cond(last)
	}, timeout, 20*time.Millisecond)
	return last
}

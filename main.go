package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/spirittosoul/server/api/rest"
	"github.com/spirittosoul/server/api/sse"
	"github.com/spirittosoul/server/audit"
	"github.com/spirittosoul/server/cache"
	"github.com/spirittosoul/server/config"
	dbadapter "github.com/spirittosoul/server/db"
	"github.com/spirittosoul/server/game/chat"
	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/sim"
	"github.com/spirittosoul/server/model"
	"github.com/spirittosoul/server/plugin/hook"
	"github.com/spirittosoul/server/resource"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	cfgPath := ""
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	} else if _, err := os.Stat(defaultConfigPath); err == nil {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Game data ----
	res := resource.NewLoader(cfg.Game.DataDir)
	if err := res.Load(); err != nil {
		log.Fatalf("game data: %v", err)
	}
	logger.Info("Game data loaded",
		zap.Int("quests", len(res.Quests)),
		zap.Int("callings", len(res.Callings)))

	// ---- Feed / Hooks / Journal ----
	feed := chat.NewFeed(c, pubsub, logger.Named("feed"))
	defer feed.Stop()
	hooks := hook.NewHookCenter()
	journal := audit.New(db, logger.Named("journal"))
	defer journal.Stop(context.Background())
	journal.Attach(hooks)

	var store save.Store
	switch cfg.Game.SaveBackend {
	case "cache":
		store = save.NewCacheStore(c)
	default:
		store = save.NewDBStore(db)
	}

	// ---- Simulation ----
	var limiter *rate.Limiter
	if cfg.Security.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	}
	inputs := input.NewQueue(input.DefaultCapacity, limiter)
	frames := sim.NewFrameStore()
	game, err := sim.New(cfg, res, sim.Deps{
		Events:  event.NewDispatcher(feed, feed, hooks, logger.Named("events")),
		Input:   inputs,
		Saves:   save.NewManager(store, cfg.Game.SaveKey, logger.Named("save")),
		Surface: sim.Surfaces{frames, sim.LogSurface{Every: uint64(cfg.Game.TickHz) * 10, Logger: logger.Named("frame")}},
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, logger.Named("sim"))
	if err != nil {
		log.Fatalf("sim: %v", err)
	}
	if err := game.Boot(ctx); err != nil {
		log.Fatalf("boot: %v", err)
	}
	if cfg.Game.AutoStart && game.State() == sim.StateMenu {
		if err := game.NewGame(); err == nil {
			if err := game.CreateCharacter(ctx, cfg.Game.PlayerName, cfg.Game.Calling); err != nil {
				log.Fatalf("create character: %v", err)
			}
		}
	}
	logger.Info("Game ready", zap.String("state", string(game.State())))

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = game.Run(ctx)
	}()

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := apirest.NewRouter(ctx, cfg.Security, apirest.Routes{
		Game: apirest.NewGameHandler(game, frames, inputs, res, logger.Named("http")),
		Feed: apirest.NewFeedHandler(feed, journal, logger.Named("http")),
		SSE:  sse.NewHandler(feed, logger.Named("sse")),
	}, logger.Named("http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// The loop saves on its way out.
	<-loopDone
}

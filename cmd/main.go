package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/config"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/dispatcher"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/handler"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/hub"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/identity"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/lobby"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "lobby-service",
	})
	logger := pkglog.L()

	if cfg.WatchLogLevel(func(level string) {
		pkglog.SetLevel(level)
		logger.Info().Str("level", level).Msg("log level reloaded")
	}) {
		logger.Debug().Msg("watching config file for log level changes")
	}

	// Identifier generators
	userIDs, err := generator.NewUserIDGenerator(cfg.Identity.IDFormat)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user id generator")
	}
	lobbyCodes, err := generator.NewLobbyCodeGenerator(cfg.Lobby.CodeFormat, cfg.Lobby.CodeLength, cfg.Lobby.CodeAlphabet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create lobby code generator")
	}
	messageIDs, err := generator.NewSnowflakeGenerator(cfg.Message.MachineID, cfg.Message.Epoch)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create message id generator")
	}

	// Registries and hub
	users := identity.NewRegistry(userIDs)
	lobbies := lobby.NewRegistry(lobbyCodes, cfg.Lobby.CodeAttempts)
	eventHub := hub.New(cfg.Hub.BufferSize)

	// Optional event mirror
	publisher, err := pubsub.NewPublisher(cfg.Mirror)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Mirror.Driver).Msg("failed to create event mirror")
	}
	defer publisher.Close()

	d := dispatcher.New(users, lobbies, eventHub, messageIDs,
		dispatcher.WithPublisher(publisher, cfg.Mirror.Prefix))

	chatService := service.NewChatService(users, lobbies, eventHub, d, service.Options{
		MaxContentLength:  cfg.Message.MaxContentLength,
		AllowUnknownRooms: cfg.Hub.AllowUnknownRooms,
	})

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{
			"status": "ok",
			"stats":  chatService.Stats(),
		})
	})

	handler.NewHandler(chatService, cfg.WebSocket, cfg.SSE).RegisterRoutes(r)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Addr()).
			Str("user_id_format", cfg.Identity.IDFormat).
			Str("lobby_code_format", cfg.Lobby.CodeFormat).
			Str("mirror", cfg.Mirror.Driver).
			Msg("lobby-service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down lobby-service")

		// End live streams first; hijacked WebSocket connections are not
		// tracked by the server.
		eventHub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("lobby-service stopped with error")
		publisher.Close()
		os.Exit(1)
	}
	logger.Info().Msg("lobby-service stopped")
}

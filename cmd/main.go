package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/config"
	"github.com/xenn00/chat-core/internal/presence"
	"github.com/xenn00/chat-core/internal/pubsub"
	message_repo "github.com/xenn00/chat-core/internal/repo/message"
	room_repo "github.com/xenn00/chat-core/internal/repo/room"
	user_repo "github.com/xenn00/chat-core/internal/repo/user"
	"github.com/xenn00/chat-core/internal/routers"
	chat_service "github.com/xenn00/chat-core/internal/use-case/chat-case"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
	user_service "github.com/xenn00/chat-core/internal/use-case/user-case"
	"github.com/xenn00/chat-core/internal/websocket"
	"github.com/xenn00/chat-core/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(config.Conf.App.LogLevel)
	if err != nil {
		log.Warn().Str("level", config.Conf.App.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	state, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer state.Close()

	messages, err := newMessageStore(ctx, state)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize message store")
	}

	var bus pubsub.Bus = pubsub.NewLocalBus()
	if state.Redis != nil {
		bus = pubsub.NewRedisBus(state.Redis)
	}

	registry := presence.NewRegistry()
	wsHub := websocket.NewHub(registry, bus)
	if err := bus.Start(ctx, wsHub.Deliver); err != nil {
		log.Fatal().Err(err).Msg("failed to start pub/sub bus")
	}
	log.Info().Msg("Websocket hub initialized")

	rooms := room_service.NewRoomService(state, messages)
	chat := chat_service.NewChatService(state, rooms, messages, bus)
	users := user_service.NewUserService(state, registry)

	authFunc := websocket.JWTWebSocketAuth(state.JwtSecret.Public, state.Redis)
	wsHandler := websocket.NewWebSocketHandler(wsHub, chat, rooms, user_repo.NewUserRepo(state), authFunc, config.Conf.App.AllowedOrigins)
	wsHandler.RateLimit.MaxConnections = config.Conf.CHAT.MaxConnections
	wsHandler.RateLimit.ConnectionsPerIP = config.Conf.CHAT.ConnectionsPerIP

	log.Info().Msg("Websocket handler initialized")

	r := routers.NewRouter(state, wsHub, wsHandler, routers.Services{
		Chat:  chat,
		Rooms: rooms,
		Users: users,
	})

	server := &http.Server{
		Addr:        config.Conf.App.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// websocket sessions set their own write deadlines
		IdleTimeout: 60 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	} else {
		log.Info().Msg("Server exited gracefully.")
	}
	wsHub.Close()
	if err := bus.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close pub/sub bus")
	}
}

// newMessageStore picks the configured backend and puts the Redis
// last-message cache in front of it when Redis is available.
func newMessageStore(ctx context.Context, appState *state.AppState) (message_repo.MessageStore, error) {
	var store message_repo.MessageStore

	switch config.Conf.MESSAGES.Backend {
	case "mongo":
		mongoStore, err := message_repo.NewMongoStore(ctx, appState.Mongo, config.Conf.DATABASE.Mongo.Database, room_repo.NewRoomRepo(appState))
		if err != nil {
			return nil, err
		}
		store = mongoStore
	case "sql", "":
		store = message_repo.NewGormStore(appState)
	default:
		return nil, fmt.Errorf("unsupported message backend %q", config.Conf.MESSAGES.Backend)
	}

	if appState.Redis != nil {
		store = message_repo.NewCachedStore(store, appState.Redis, config.Conf.MESSAGES.CacheTTL)
	}

	log.Info().Str("backend", config.Conf.MESSAGES.Backend).Bool("cached", appState.Redis != nil).Msg("message store initialized")
	return store, nil
}

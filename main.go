package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wordroom-server/api"
	"wordroom-server/auth"
	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/game"
	"wordroom-server/lobby"
	"wordroom-server/loghandler"
	"wordroom-server/room"
	"wordroom-server/storage"
	"wordroom-server/ws"
)

func main() {
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables", "tag", "main")
	}

	cfg := config.Load()
	slog.Info("configuration loaded", "tag", "main",
		"port", cfg.WSPort, "dictionary", cfg.DictionarySource,
		"syllableMinWords", cfg.SyllableMinWords)

	if cfg.AuthBaseURL == "" {
		slog.Info("AUTH_BASE_URL not set, all connections are anonymous", "tag", "main")
	}
	verifier := auth.NewVerifier(cfg.AuthBaseURL)

	settings := newSettingsStore(cfg)
	defer settings.Close()

	dict := dictionary.New(cfg.DictionarySource, cfg.SyllableMinWords)

	factory := game.NewFactory()
	game.RegisterAll(factory)

	registry := lobby.NewRegistry(time.Duration(cfg.LobbyTTLSec) * time.Second)

	rooms := room.NewManager(cfg, dict, factory, settings, registry)
	defer rooms.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(rooms, verifier)
	go hub.Run(ctx)

	handler := api.NewHandler(registry, rooms)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/api/rooms", handler.ListRooms)
	mux.HandleFunc("/api/rooms/status", handler.RoomStatus)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "tag", "main", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
	slog.Info("shut down cleanly", "tag", "main")
}

// newSettingsStore picks Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func newSettingsStore(cfg *config.Config) storage.SettingsStore {
	store, err := storage.NewPostgresStore(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("postgres unavailable, using in-memory settings", "tag", "main", "err", err)
		return storage.NewMemoryStore()
	}
	if store == nil {
		slog.Info("DATABASE_URL not set, using in-memory settings", "tag", "main")
		return storage.NewMemoryStore()
	}
	return store
}

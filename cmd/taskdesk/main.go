package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"taskdesk/server/internal/auth"
	"taskdesk/server/internal/chat"
	"taskdesk/server/internal/command"
	"taskdesk/server/internal/config"
	"taskdesk/server/internal/db"
	"taskdesk/server/internal/httpapi"
	"taskdesk/server/internal/logging"
	"taskdesk/server/internal/store"
	"taskdesk/server/internal/tools"
)

var version = "dev"
var buildTime = "unknown"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig:   config.Load,
		RunServe:     runServe,
		RunMigrateUp: runMigrateUp,
	})
	if err := app.RunContext(rootCtx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "taskdesk: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "taskdesk"})
	log.Info("starting", "version", version, "build_time", buildTime)

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close(gdb) }()

	tokens, err := auth.NewTokenManager(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return err
	}

	users := store.NewUserStore(gdb)
	tasks := store.NewTaskStore(gdb)
	convs := store.NewConversationStore(gdb)

	registry, err := tools.NewRegistry(log, tools.NewTaskCatalog(tasks)...)
	if err != nil {
		return err
	}

	engine := chat.NewOpenAIClient(chat.OpenAIOptions{
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		APIKey:  cfg.OpenAI.APIKey,
	}, nil)
	chatService := chat.NewService(convs, registry, engine, cfg.MaxToolRounds, log)

	server := httpapi.NewServer(httpapi.Deps{
		Users:         users,
		Tasks:         tasks,
		Conversations: convs,
		Chat:          chatService,
		Tokens:        tokens,
		BcryptCost:    cfg.BcryptCost,
		Log:           log,
	})

	addr := net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.ListenPort))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func runMigrateUp(_ context.Context, cfg config.Config) error {
	log := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "migrate"})
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close(gdb) }()
	log.Info("schema synced", "path", cfg.DatabasePath)
	return nil
}

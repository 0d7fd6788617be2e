package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/config"
	"quiz-maker/internal/httpapi"
	"quiz-maker/internal/quiz"
	"quiz-maker/internal/quiz/sqlite"
	"quiz-maker/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load(config.Options{File: *configFile})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	authService, err := auth.NewService(store, store, auth.Config{
		Secret:      cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		BcryptCost:  cfg.BcryptCost,
		AdminEmails: cfg.AdminEmails,
	})
	if err != nil {
		log.Fatalf("init auth: %v", err)
	}
	quizService := quiz.NewService(store, store)

	jobs := scheduler.New(authService, cfg.TokenCleanupInterval)
	if err := jobs.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer jobs.Stop()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(quizService, authService, store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("quiz-service listening on %s (db=%s)", cfg.Addr, cfg.DBPath)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server failed: %v", err)
		}
		return
	case <-ctx.Done():
	}

	log.Printf("quiz-service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/cli"
	"quiz-maker/internal/config"
	"quiz-maker/internal/opentdb"
	"quiz-maker/internal/quiz"
	"quiz-maker/internal/quiz/sqlite"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: quizctl [-config file] [-db path] <import|trivia|promote> [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(config.Options{File: *configFile})
	if err != nil {
		exit(fmt.Errorf("load config: %w", err))
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		exit(fmt.Errorf("open store: %w", err))
	}
	defer store.Close()

	// quizctl never issues tokens, so a missing JWT secret is tolerated here.
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "quizctl"
	}
	authService, err := auth.NewService(store, store, auth.Config{Secret: secret})
	if err != nil {
		exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Quizzes: quiz.NewService(store, store),
		Admins:  authService,
		Trivia:  opentdb.NewClient(&http.Client{Timeout: 10 * time.Second}),
		Out:     os.Stdout,
	}
	if err := app.Run(ctx, flag.Args()); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(2)
		}
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

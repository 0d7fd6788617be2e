package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"quiz-maker/internal/session"
	"quiz-maker/internal/userclient"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	token := flag.String("token", os.Getenv("QUIZ_TOKEN"), "bearer token from an earlier login")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	budget := flag.Int("seconds", session.DefaultTimeBudget, "seconds per question")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		ServerURL:   *server,
		Token:       *token,
		HTTPTimeout: *timeout,
		TimeBudget:  *budget,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

package userclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiz-maker/internal/quiz"
	"quiz-maker/internal/session"
)

const (
	defaultServer       = "http://127.0.0.1:8080"
	defaultListLimit    = 10
	defaultHTTPTimeout  = 5 * time.Second
	defaultTickInterval = time.Second
)

type Config struct {
	ServerURL    string
	Token        string
	HTTPTimeout  time.Duration
	TickInterval time.Duration
	TimeBudget   int
}

type repl struct {
	client       *HTTPClient
	out          io.Writer
	lines        <-chan string
	pending      []string
	serverURL    string
	tickInterval time.Duration
	timeBudget   int
	newTicker    func(time.Duration) (<-chan time.Time, func())
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	return newREPL(in, out, cfg).loop(ctx)
}

func newREPL(in io.Reader, out io.Writer, cfg Config) *repl {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	client.SetToken(strings.TrimSpace(cfg.Token))

	return &repl{
		client:       client,
		out:          &syncWriter{w: out},
		lines:        readLines(in),
		serverURL:    serverURL,
		tickInterval: tickInterval,
		timeBudget:   cfg.TimeBudget,
		newTicker: func(interval time.Duration) (<-chan time.Time, func()) {
			ticker := time.NewTicker(interval)
			return ticker.C, ticker.Stop
		},
	}
}

func (r *repl) loop(ctx context.Context) error {
	fmt.Fprintf(r.out, "quiz-taker\nserver=%s\n\n", r.serverURL)
	printHelp(r.out)

	for {
		fmt.Fprint(r.out, "\n> ")

		line, ok, err := r.nextLine(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}

		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(r.out)
		case "exit", "quit":
			return nil
		case "register":
			if len(args) != 4 {
				fmt.Fprintln(r.out, "usage: register <name> <email> <password>")
				continue
			}
			err = r.register(ctx, args[1], args[2], args[3])
		case "login":
			if len(args) != 3 {
				fmt.Fprintln(r.out, "usage: login <email> <password>")
				continue
			}
			err = r.login(ctx, args[1], args[2])
		case "logout":
			err = r.client.Logout(ctx)
			if err == nil {
				fmt.Fprintln(r.out, "Logged out.")
			}
		case "quizzes":
			limit, parseErr := parsePositiveLimit(args, 1, defaultListLimit)
			if parseErr != nil {
				fmt.Fprintf(r.out, "invalid quizzes limit: %v\n", parseErr)
				continue
			}
			err = r.listQuizzes(ctx, limit)
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(r.out, "usage: play <quiz_id>")
				continue
			}
			err = r.play(ctx, args[1])
		case "dashboard":
			query, parseErr := parseDashboardArgs(args[1:])
			if parseErr != nil {
				fmt.Fprintf(r.out, "invalid dashboard filter: %v\n", parseErr)
				continue
			}
			err = r.dashboard(ctx, query)
		case "result":
			if len(args) != 2 {
				fmt.Fprintln(r.out, "usage: result <result_id>")
				continue
			}
			err = r.result(ctx, args[1])
		default:
			fmt.Fprintln(r.out, "unknown command. type 'help' for usage.")
			continue
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(r.out, "error: %v\n", describeClientError(err, r.serverURL))
		}
	}
}

func (r *repl) nextLine(ctx context.Context) (string, bool, error) {
	if len(r.pending) > 0 {
		line := r.pending[0]
		r.pending = r.pending[1:]
		return line, true, nil
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-r.lines:
		return line, ok, nil
	}
}

func (r *repl) register(ctx context.Context, name, email, password string) error {
	user, err := r.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	role := ""
	if user.IsAdmin {
		role = " as admin"
	}
	fmt.Fprintf(r.out, "Registered %s <%s>%s. You are logged in.\n", user.Name, user.Email, role)
	return nil
}

func (r *repl) login(ctx context.Context, email, password string) error {
	user, err := r.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Welcome back, %s. Quizzes taken: %d\n", user.Name, len(user.Tests))
	return nil
}

func (r *repl) listQuizzes(ctx context.Context, limit int) error {
	quizzes, err := r.client.ListQuizzes(ctx, limit)
	if err != nil {
		return err
	}

	if len(quizzes) == 0 {
		fmt.Fprintln(r.out, "No quizzes yet.")
		return nil
	}

	fmt.Fprintln(r.out, "Quizzes:")
	for idx, item := range quizzes {
		fmt.Fprintf(r.out, "%d. %s %q (%d questions, created %s)\n",
			idx+1,
			item.ID,
			item.Title,
			item.QuestionCount,
			item.CreatedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func (r *repl) dashboard(ctx context.Context, query DashboardQuery) error {
	if r.client.Token() == "" {
		return ErrNotLoggedIn
	}
	summary, err := r.client.Dashboard(ctx, query)
	if err != nil {
		return err
	}
	printSummary(r.out, summary)
	return nil
}

func (r *repl) result(ctx context.Context, resultID string) error {
	if r.client.Token() == "" {
		return ErrNotLoggedIn
	}
	result, err := r.client.GetResult(ctx, resultID)
	if err != nil {
		return err
	}

	answers := make([]string, len(result.Answers))
	for idx, answer := range result.Answers {
		answers[idx] = "-"
		if answer != nil {
			answers[idx] = quiz.OptionLetter(*answer)
		}
	}
	fmt.Fprintf(r.out, "%s: %d/%d on %s\nanswers: %s\n",
		result.QuizTitle, result.Score, result.Total,
		result.CreatedAt.Format(time.RFC3339), strings.Join(answers, " "))
	return nil
}

// play runs one timed attempt. Input lines are translated into session events
// for the question currently on screen; the controller owns all timing.
func (r *repl) play(ctx context.Context, quizID string) error {
	if r.client.Token() == "" {
		return ErrNotLoggedIn
	}

	latch := &session.Latch{}
	controller := session.New(session.Config{
		Source:     r.client,
		Submitter:  r.client,
		Monitor:    latch,
		TimeBudget: r.timeBudget,
	})
	if err := controller.Load(ctx, quizID); err != nil {
		return err
	}

	snap := controller.Snapshot()
	fmt.Fprintf(r.out, "\n%s (%d questions)\n", snap.Title, snap.Total)
	fmt.Fprintf(r.out, disclaimerText+"\n", snap.Remaining)

	ticks, stop := r.newTicker(r.tickInterval)
	defer stop()

	type outcome struct {
		snap session.Snapshot
		err  error
	}
	input := make(chan session.Event)
	done := make(chan outcome, 1)
	view := newPlayView(r.out)
	go func() {
		final, err := session.Drive(ctx, controller, ticks, input, view.observe)
		done <- outcome{snap: final, err: err}
	}()

	for {
		select {
		case res := <-done:
			return r.finishPlay(res.snap, res.err)
		case line, ok := <-r.lines:
			if !ok {
				// Input is gone, so the taker has left the quiz.
				latch.Trip()
				close(input)
				res := <-done
				return r.finishPlay(res.snap, res.err)
			}
			if line == "?" || strings.EqualFold(line, "help") {
				printPlayHelp(r.out)
				continue
			}

			current := controller.Snapshot()
			if current.State == session.StateDone || current.State == session.StateAbandoned {
				// The attempt ended while the line was typed; it belongs to the REPL.
				r.pending = append(r.pending, line)
				res := <-done
				return r.finishPlay(res.snap, res.err)
			}

			event, ok := parsePlayInput(line, current)
			if !ok {
				if line != "" {
					fmt.Fprintln(r.out, "unknown input. type ? for help.")
				}
				continue
			}
			if event.Kind == session.EventVisibilityLost && current.State == session.StateFailed {
				close(input)
				res := <-done
				return r.finishPlay(res.snap, res.err)
			}

			reply := make(chan error, 1)
			event.Reply = reply
			select {
			case input <- event:
			case res := <-done:
				r.pending = append(r.pending, line)
				return r.finishPlay(res.snap, res.err)
			}
			// Errors are reported by the view; waiting keeps the next line
			// from racing the event it follows.
			select {
			case <-reply:
			case res := <-done:
				return r.finishPlay(res.snap, res.err)
			}
		}
	}
}

func (r *repl) finishPlay(snap session.Snapshot, err error) error {
	if err != nil {
		return err
	}
	switch snap.State {
	case session.StateDone:
		if snap.Result != nil {
			printSubmission(r.out, *snap.Result)
		}
	case session.StateAbandoned:
		fmt.Fprintln(r.out, "Quiz abandoned. Your answers were not submitted.")
	case session.StateFailed:
		fmt.Fprintf(r.out, "Gave up after a failed submission: %v\n", snap.Err)
	}
	return nil
}

func parsePlayInput(line string, snap session.Snapshot) (session.Event, bool) {
	command := strings.ToLower(strings.TrimSpace(line))
	switch command {
	case "":
		if snap.Modal != session.ModalNone {
			return session.Event{Kind: session.EventDismissModal}, true
		}
		return session.Event{}, false
	case "q", "quit", "exit":
		return session.Event{Kind: session.EventVisibilityLost}, true
	case "n", "next":
		return session.Event{Kind: session.EventAdvance, Question: snap.Index}, true
	case "retry":
		return session.Event{Kind: session.EventRetry}, true
	}

	if option, ok := quiz.LetterIndex(command); ok {
		return session.Event{Kind: session.EventSelect, Question: snap.Index, Option: option}, true
	}
	return session.Event{}, false
}

// playView prints what changed between snapshots. It runs on the driver
// goroutine only.
type playView struct {
	out       io.Writer
	shown     int
	remaining int
	selected  *int
	state     session.State
}

func newPlayView(out io.Writer) *playView {
	return &playView{out: out, shown: -1, state: session.StateActive}
}

func (v *playView) observe(snap session.Snapshot, err error) {
	defer func() { v.state = snap.State }()

	if err != nil {
		fmt.Fprintf(v.out, "! %s\n", describeSessionError(err))
	}

	switch snap.State {
	case session.StateActive:
		if snap.Modal != session.ModalNone {
			return
		}
		if snap.Index != v.shown {
			if v.shown >= 0 && v.remaining <= 1 {
				fmt.Fprintln(v.out, "Time's up.")
			}
			v.shown = snap.Index
			v.remaining = snap.Remaining
			v.selected = nil
			printQuestion(v.out, snap)
			return
		}
		if snap.Remaining != v.remaining {
			v.remaining = snap.Remaining
			if snap.Remaining == 10 || snap.Remaining == 5 {
				fmt.Fprintf(v.out, "%d seconds left\n", snap.Remaining)
			}
		}
		if snap.Selected != nil && (v.selected == nil || *v.selected != *snap.Selected) {
			v.selected = quiz.IntPtr(*snap.Selected)
			fmt.Fprintf(v.out, "Selected %s. Type n to continue.\n", quiz.OptionLetter(*snap.Selected))
		}
	case session.StateSubmitting:
		if v.state != session.StateSubmitting {
			fmt.Fprintln(v.out, "Submitting answers...")
		}
	case session.StateFailed:
		if v.state != session.StateFailed {
			fmt.Fprintln(v.out, "Submission failed. Type retry to try again, or q to give up.")
		}
	}
}

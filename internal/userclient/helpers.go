package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"quiz-maker/internal/dashboard"
	"quiz-maker/internal/quiz"
	"quiz-maker/internal/session"
)

const disclaimerText = `Before you start:
  - each question has a %d second timer; when it runs out your current choice is recorded
  - answers cannot be changed after moving on
  - leaving the quiz (q, or closing input) abandons the attempt
Press Enter to begin.`

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  register <name> <email> <password>")
	fmt.Fprintln(out, "  login <email> <password>")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  quizzes [limit]")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  dashboard [title=..] [date=YYYY-MM-DD] [status=all|passed|failed]")
	fmt.Fprintln(out, "  result <result_id>")
	fmt.Fprintln(out, "  exit")
}

func printPlayHelp(out io.Writer) {
	fmt.Fprintln(out, "While playing: A-D selects, n moves on, retry resubmits, q leaves the quiz.")
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

// parseDashboardArgs reads key=value filters; values may not contain spaces.
func parseDashboardArgs(args []string) (DashboardQuery, error) {
	var query DashboardQuery
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return DashboardQuery{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch strings.ToLower(key) {
		case "title":
			query.Title = value
		case "date":
			query.Date = value
		case "status":
			query.Status = value
		default:
			return DashboardQuery{}, fmt.Errorf("unknown filter %q", key)
		}
	}
	return query, nil
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
		return fmt.Errorf("%s (try login)", apiErr.Error())
	}
	return err
}

// readLines delivers trimmed input lines until EOF, then closes the channel.
// The REPL and the play loop share it so no line is lost between them.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func printQuestion(out io.Writer, snap session.Snapshot) {
	if snap.Question == nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d: %s  (%ds)\n\n", snap.Index+1, snap.Total, snap.Question.Question, snap.Remaining)
	for idx, option := range snap.Question.Options {
		fmt.Fprintf(out, "%s. %s\n", quiz.OptionLetter(idx), option)
	}
	fmt.Fprintln(out)
}

func printSubmission(out io.Writer, submission quiz.Submission) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s: %d/%d\n", submission.Title, submission.Score, submission.Total)
	for idx, detail := range submission.Details {
		yours := "no answer"
		if detail.YourAnswer != nil {
			yours = answerDisplay(detail.Options, *detail.YourAnswer)
		}
		mark := "x"
		if detail.YourAnswer != nil && *detail.YourAnswer == detail.CorrectIndex {
			mark = "ok"
		}
		fmt.Fprintf(out, "%2d. [%s] %s\n    yours: %s  correct: %s\n",
			idx+1, mark, detail.Question, yours, answerDisplay(detail.Options, detail.CorrectIndex))
	}
	if submission.ResultID != "" {
		fmt.Fprintf(out, "result id: %s\n", submission.ResultID)
	}
}

func printSummary(out io.Writer, summary dashboard.Summary) {
	fmt.Fprintf(out, "Quizzes taken: %d  correct: %d  incorrect: %d\n",
		summary.TotalQuizzes, summary.Correct, summary.Incorrect)
	if summary.Latest != nil {
		fmt.Fprintf(out, "Latest: %s %d/%d on %s\n",
			summary.Latest.QuizTitle, summary.Latest.Score, summary.Latest.TotalQuestions,
			summary.Latest.Date.Format(dashboard.DateLayout))
	}
	if len(summary.Entries) == 0 {
		fmt.Fprintln(out, "No matching attempts.")
		return
	}
	for idx, entry := range summary.Entries {
		status := "failed"
		if entry.Passed {
			status = "passed"
		}
		fmt.Fprintf(out, "%d. %s %d/%d (%d%%) %s %s\n",
			idx+1, entry.QuizTitle, entry.Score, entry.TotalQuestions, entry.Percent, status,
			entry.Date.Format(dashboard.DateLayout))
	}
}

func answerDisplay(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return "unknown"
	}
	return fmt.Sprintf("%s. %s", quiz.OptionLetter(index), options[index])
}

func describeSessionError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoSelection):
		return "choose an option (A-D) first"
	case errors.Is(err, session.ErrStaleEvent):
		return "too late, that question already timed out"
	case errors.Is(err, session.ErrModalOpen):
		return "press Enter to continue first"
	case errors.Is(err, session.ErrWrongState):
		return "not possible right now"
	default:
		return err.Error()
	}
}

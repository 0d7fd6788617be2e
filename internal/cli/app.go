// Package cli implements quizctl, the operator tool for loading quizzes and
// managing admins directly against the service database.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"quiz-maker/internal/importer"
	"quiz-maker/internal/opentdb"
	"quiz-maker/internal/quiz"
)

const defaultTriviaAmount = 10

var ErrUsage = errors.New("usage error")

type QuizCreator interface {
	CreateQuiz(ctx context.Context, input quiz.CreateQuizInput) (quiz.Quiz, error)
}

type AdminPromoter interface {
	Promote(ctx context.Context, email string) error
}

type TriviaFetcher interface {
	FetchQuestions(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)
}

type App struct {
	Quizzes QuizCreator
	Admins  AdminPromoter
	Trivia  TriviaFetcher
	Out     io.Writer
}

// Run dispatches one subcommand. Flag errors and unknown commands wrap
// ErrUsage so the caller can pick an exit code.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return ErrUsage
	}

	switch args[0] {
	case "import":
		return a.runImport(ctx, args[1:])
	case "trivia":
		return a.runTrivia(ctx, args[1:])
	case "promote":
		return a.runPromote(ctx, args[1:])
	case "help", "-h", "--help":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.Out, "Usage: quizctl <command> [flags]")
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Commands:")
	fmt.Fprintln(a.Out, "  import  -file quizzes.xlsx [-sheet name]   create quizzes from a spreadsheet or csv")
	fmt.Fprintln(a.Out, "  trivia  -title T [-amount 10]              create a quiz from OpenTriviaDB questions")
	fmt.Fprintln(a.Out, "  promote -email user@example.com            grant the admin flag")
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Out)
	return fs
}

func (a *App) runImport(ctx context.Context, args []string) error {
	fs := a.newFlagSet("import")
	file := fs.String("file", "", "spreadsheet (.xlsx) or .csv file to import")
	sheet := fs.String("sheet", "", "sheet name, defaults to the first sheet")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(*file) == "" {
		return fmt.Errorf("%w: -file is required", ErrUsage)
	}

	report, err := importer.ReadFile(*file, *sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}
	for _, problem := range report.Errors {
		fmt.Fprintf(a.Out, "skipped %s\n", problem)
	}

	created := 0
	for _, input := range report.Quizzes {
		q, err := a.Quizzes.CreateQuiz(ctx, input)
		if err != nil {
			fmt.Fprintf(a.Out, "quiz %q rejected: %v\n", input.Title, err)
			continue
		}
		created++
		fmt.Fprintf(a.Out, "created %s %q (%d questions)\n", q.ID, q.Title, len(q.Questions))
	}

	fmt.Fprintf(a.Out, "rows=%d skipped=%d quizzes=%d/%d\n", report.Rows, report.Skipped, created, len(report.Quizzes))
	if created == 0 {
		return errors.New("no quizzes were created")
	}
	return nil
}

func (a *App) runTrivia(ctx context.Context, args []string) error {
	fs := a.newFlagSet("trivia")
	title := fs.String("title", "", "quiz title")
	amount := fs.Int("amount", defaultTriviaAmount, "number of questions to request")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(*title) == "" {
		return fmt.Errorf("%w: -title is required", ErrUsage)
	}

	raw, err := a.Trivia.FetchQuestions(ctx, *amount)
	if err != nil {
		return fmt.Errorf("fetch trivia: %w", err)
	}

	questions, skipped := quiz.BuildQuestions(raw)
	if skipped > 0 {
		fmt.Fprintf(a.Out, "skipped %d questions without four options\n", skipped)
	}
	if len(questions) == 0 {
		return errors.New("no usable trivia questions")
	}

	q, err := a.Quizzes.CreateQuiz(ctx, quiz.CreateQuizInput{Title: *title, Questions: questions})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created %s %q (%d questions)\n", q.ID, q.Title, len(q.Questions))
	return nil
}

func (a *App) runPromote(ctx context.Context, args []string) error {
	fs := a.newFlagSet("promote")
	email := fs.String("email", "", "email of the user to promote")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}

	if err := a.Admins.Promote(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s is now an admin\n", strings.ToLower(strings.TrimSpace(*email)))
	return nil
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-maker/internal/opentdb"
	"quiz-maker/internal/quiz"
)

type fakeCreator struct {
	created []quiz.CreateQuizInput
	reject  map[string]error
}

func (f *fakeCreator) CreateQuiz(_ context.Context, input quiz.CreateQuizInput) (quiz.Quiz, error) {
	if err := f.reject[input.Title]; err != nil {
		return quiz.Quiz{}, err
	}
	f.created = append(f.created, input)
	q := quiz.Quiz{ID: "quiz-" + input.Title, Title: input.Title}
	for _, question := range input.Questions {
		q.Questions = append(q.Questions, quiz.Question{Question: question.Question, Options: question.Options, CorrectIndex: *question.CorrectIndex})
	}
	return q, nil
}

type fakePromoter struct {
	promoted []string
	err      error
}

func (f *fakePromoter) Promote(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.promoted = append(f.promoted, email)
	return nil
}

type fakeTrivia struct {
	questions []opentdb.RawQuestion
	amount    int
	err       error
}

func (f *fakeTrivia) FetchQuestions(_ context.Context, amount int) ([]opentdb.RawQuestion, error) {
	f.amount = amount
	return f.questions, f.err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quizzes.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportCreatesQuizzesPerTitle(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"Title,Question,A,B,C,D,Correct",
		"Math,2+2?,3,4,5,6,B",
		"Math,3+3?,5,6,7,8,B",
		"Capitals,Capital of France?,Paris,Rome,Berlin,Oslo,A",
		"Broken,Missing options,1,2",
	}, "\n"))

	creator := &fakeCreator{}
	var out bytes.Buffer
	app := &App{Quizzes: creator, Out: &out}

	if err := app.Run(context.Background(), []string{"import", "-file", path}); err != nil {
		t.Fatalf("import failed: %v\n%s", err, out.String())
	}
	if len(creator.created) != 2 {
		t.Fatalf("created = %d quizzes, want 2", len(creator.created))
	}
	if creator.created[0].Title != "Math" || len(creator.created[0].Questions) != 2 {
		t.Fatalf("unexpected first quiz: %+v", creator.created[0])
	}
	if !strings.Contains(out.String(), "skipped row 5") {
		t.Fatalf("expected skipped row report, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "rows=4 skipped=1 quizzes=2/2") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}
}

func TestImportFailsWhenEveryQuizIsRejected(t *testing.T) {
	path := writeCSV(t, "Math,2+2?,3,4,5,6,B\n")
	creator := &fakeCreator{reject: map[string]error{"Math": errors.New("title taken")}}
	var out bytes.Buffer
	app := &App{Quizzes: creator, Out: &out}

	if err := app.Run(context.Background(), []string{"import", "-file", path}); err == nil {
		t.Fatalf("expected import error")
	}
	if !strings.Contains(out.String(), `quiz "Math" rejected: title taken`) {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestTriviaBuildsQuiz(t *testing.T) {
	trivia := &fakeTrivia{questions: []opentdb.RawQuestion{
		{Question: "Largest planet?", CorrectAnswer: "Jupiter", IncorrectAnswers: []string{"Mars", "Venus", "Earth"}},
		{Question: "True?", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
	}}
	creator := &fakeCreator{}
	var out bytes.Buffer
	app := &App{Quizzes: creator, Trivia: trivia, Out: &out}

	if err := app.Run(context.Background(), []string{"trivia", "-title", "Space", "-amount", "2"}); err != nil {
		t.Fatalf("trivia failed: %v", err)
	}
	if trivia.amount != 2 {
		t.Fatalf("amount = %d, want 2", trivia.amount)
	}
	if len(creator.created) != 1 || len(creator.created[0].Questions) != 1 {
		t.Fatalf("unexpected created quizzes: %+v", creator.created)
	}
	if !strings.Contains(out.String(), "skipped 1 questions") {
		t.Fatalf("expected skip notice, got:\n%s", out.String())
	}
}

func TestTriviaWithoutUsableQuestions(t *testing.T) {
	app := &App{Quizzes: &fakeCreator{}, Trivia: &fakeTrivia{}, Out: &bytes.Buffer{}}
	if err := app.Run(context.Background(), []string{"trivia", "-title", "Empty"}); err == nil {
		t.Fatalf("expected error without questions")
	}
}

func TestPromote(t *testing.T) {
	promoter := &fakePromoter{}
	var out bytes.Buffer
	app := &App{Admins: promoter, Out: &out}

	if err := app.Run(context.Background(), []string{"promote", "-email", "Ada@Example.com"}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if len(promoter.promoted) != 1 || promoter.promoted[0] != "Ada@Example.com" {
		t.Fatalf("promoted = %v", promoter.promoted)
	}
	if !strings.Contains(out.String(), "ada@example.com is now an admin") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"explode"}},
		{name: "import without file", args: []string{"import"}},
		{name: "trivia without title", args: []string{"trivia"}},
		{name: "promote without email", args: []string{"promote"}},
		{name: "bad flag", args: []string{"promote", "-nope"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{Out: &bytes.Buffer{}}
			if err := app.Run(context.Background(), tc.args); !errors.Is(err, ErrUsage) {
				t.Fatalf("err = %v, want ErrUsage", err)
			}
		})
	}
}

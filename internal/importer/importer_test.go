package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"quiz-maker/internal/quiz"
)

func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()

	if sheet != "Sheet1" {
		if _, err := book.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet failed: %v", err)
		}
	}
	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		values := row
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf
}

func TestReadXLSXGroupsByTitle(t *testing.T) {
	buf := workbook(t, "Sheet1", [][]any{
		{"Title", "Question", "A", "B", "C", "D", "Correct"},
		{"Go Basics", "Which keyword starts a goroutine?", "go", "run", "spawn", "async", "A"},
		{"Capitals", "Capital of France?", "Rome", "Madrid", "Paris", "Berlin", "c"},
		{"Go Basics", "Zero value of a map?", "empty map", "nil", "0", "panic", "B"},
	})

	report, err := ReadXLSX(buf, "")
	if err != nil {
		t.Fatalf("ReadXLSX failed: %v", err)
	}
	if report.Rows != 3 || report.Skipped != 0 {
		t.Fatalf("rows=%d skipped=%d, want 3/0", report.Rows, report.Skipped)
	}
	if len(report.Quizzes) != 2 {
		t.Fatalf("quizzes = %d, want 2", len(report.Quizzes))
	}

	first := report.Quizzes[0]
	if first.Title != "Go Basics" || len(first.Questions) != 2 {
		t.Fatalf("unexpected first quiz: %+v", first)
	}
	if *first.Questions[1].CorrectIndex != 1 || first.Questions[1].Options[1] != "nil" {
		t.Fatalf("unexpected second question: %+v", first.Questions[1])
	}
	if got := report.Quizzes[1]; got.Title != "Capitals" || *got.Questions[0].CorrectIndex != 2 {
		t.Fatalf("unexpected second quiz: %+v", got)
	}

	for _, input := range report.Quizzes {
		if err := quiz.ValidateQuiz(input); err != nil {
			t.Fatalf("imported quiz %q failed validation: %v", input.Title, err)
		}
	}
}

func TestReadXLSXNamedSheetAndRowErrors(t *testing.T) {
	buf := workbook(t, "Quizzes", [][]any{
		{"Science", "Boiling point of water in C?", "90", "100", "110", "120", "B"},
		{"Science", "Too few columns", "a", "b"},
		{"Science", "Bad letter?", "a", "b", "c", "d", "E"},
		{"", "", "", "", "", "", ""},
	})

	report, err := ReadXLSX(buf, "Quizzes")
	if err != nil {
		t.Fatalf("ReadXLSX failed: %v", err)
	}
	if len(report.Quizzes) != 1 || len(report.Quizzes[0].Questions) != 1 {
		t.Fatalf("unexpected quizzes: %+v", report.Quizzes)
	}
	if report.Skipped != 2 || len(report.Errors) != 2 {
		t.Fatalf("skipped=%d errors=%v, want 2", report.Skipped, report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "row 2:") || !strings.Contains(report.Errors[1], "A, B, C, D") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	if _, err := ReadXLSX(workbook(t, "Sheet1", nil), "Missing"); err == nil {
		t.Fatalf("expected error for a missing sheet")
	}
}

func TestReadCSV(t *testing.T) {
	input := "title,question,a,b,c,d,correct\n" +
		"Math,\"What is 2+2?\",3,4,5,6,B\n"

	report, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(report.Quizzes) != 1 || report.Quizzes[0].Questions[0].Question != "What is 2+2?" {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, err := ReadCSV(strings.NewReader("title,question,a,b,c,d,correct\n")); !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

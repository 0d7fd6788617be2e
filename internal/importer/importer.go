// Package importer reads quiz definitions from spreadsheets.
//
// Each row holds one question: Title | Question | A | B | C | D | Correct,
// where Correct is the letter of the right option. Rows sharing a title form
// one quiz, in the order titles first appear. A leading header row is
// skipped.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quiz-maker/internal/quiz"
)

const columnCount = 7

var ErrNoRows = errors.New("importer: no quiz rows found")

// Report is the outcome of parsing one file. Row problems do not abort the
// import; they are collected in Errors.
type Report struct {
	Quizzes []quiz.CreateQuizInput
	Rows    int
	Skipped int
	Errors  []string
}

// ReadFile picks the reader from the file extension: .csv or an Excel workbook.
func ReadFile(path, sheet string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadXLSX(f, sheet)
}

// ReadXLSX parses the named sheet, or the first sheet when sheet is empty.
func ReadXLSX(r io.Reader, sheet string) (Report, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return Report{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return Report{}, ErrNoRows
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return Report{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return parseRows(rows)
}

func ReadCSV(r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Report{}, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (Report, error) {
	var report Report
	byTitle := make(map[string]int)

	for idx, row := range rows {
		if isBlank(row) {
			continue
		}
		if idx == 0 && isHeader(row) {
			continue
		}
		report.Rows++

		title, question, err := parseRow(row)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", idx+1, err))
			continue
		}

		pos, ok := byTitle[title]
		if !ok {
			pos = len(report.Quizzes)
			byTitle[title] = pos
			report.Quizzes = append(report.Quizzes, quiz.CreateQuizInput{Title: title})
		}
		report.Quizzes[pos].Questions = append(report.Quizzes[pos].Questions, question)
	}

	if len(report.Quizzes) == 0 && len(report.Errors) == 0 {
		return report, ErrNoRows
	}
	return report, nil
}

func parseRow(row []string) (string, quiz.QuestionInput, error) {
	if len(row) < columnCount {
		return "", quiz.QuestionInput{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}

	title := strings.TrimSpace(row[0])
	if title == "" {
		return "", quiz.QuestionInput{}, errors.New("title is empty")
	}

	correct, ok := quiz.LetterIndex(row[6])
	if !ok {
		return "", quiz.QuestionInput{}, fmt.Errorf("correct answer %q must be one of A, B, C, D", strings.TrimSpace(row[6]))
	}

	options := make([]string, quiz.OptionCount)
	for idx := range options {
		options[idx] = strings.TrimSpace(row[2+idx])
	}

	return title, quiz.QuestionInput{
		Question:     strings.TrimSpace(row[1]),
		Options:      options,
		CorrectIndex: quiz.IntPtr(correct),
	}, nil
}

func isHeader(row []string) bool {
	if len(row) < columnCount {
		return strings.EqualFold(strings.TrimSpace(row[0]), "title")
	}
	_, ok := quiz.LetterIndex(row[6])
	return !ok && strings.EqualFold(strings.TrimSpace(row[0]), "title")
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

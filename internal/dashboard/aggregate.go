// Package dashboard derives summary statistics from a user's test history.
// Everything here is a pure function of its inputs.
package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"quiz-maker/internal/quiz"
	"quiz-maker/internal/validation"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusAll    Status = "all"
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Filter narrows the entry list. Zero values match everything; all set
// fields must match (logical AND).
type Filter struct {
	Title  string
	Date   string
	Status Status
}

type Entry struct {
	quiz.HistoryEntry
	Passed  bool `json:"passed"`
	Percent int  `json:"percent"`
}

type Summary struct {
	TotalQuizzes int     `json:"totalQuizzes"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Latest       *Entry  `json:"latest"`
	Entries      []Entry `json:"entries"`
}

// Passed reports whether an entry scored at least half. Ties pass; an entry
// with no questions never passes.
func Passed(entry quiz.HistoryEntry) bool {
	if entry.TotalQuestions <= 0 {
		return false
	}
	return entry.Score*2 >= entry.TotalQuestions
}

// Percent is round(100*score/total), and 0 when total is 0.
func Percent(entry quiz.HistoryEntry) int {
	if entry.TotalQuestions <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(entry.Score) / float64(entry.TotalQuestions)))
}

// Summarize computes totals over the whole history and the filtered, newest
// first entry list. The input slice is not modified.
func Summarize(history []quiz.HistoryEntry, filter Filter) Summary {
	entries := make([]Entry, 0, len(history))
	summary := Summary{TotalQuizzes: len(history)}

	for _, item := range history {
		summary.Correct += item.Score
		summary.Incorrect += item.TotalQuestions - item.Score
		entries = append(entries, Entry{
			HistoryEntry: item,
			Passed:       Passed(item),
			Percent:      Percent(item),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	if len(entries) > 0 {
		latest := entries[0]
		summary.Latest = &latest
	}

	summary.Entries = make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if filter.matches(entry) {
			summary.Entries = append(summary.Entries, entry)
		}
	}
	return summary
}

func (f Filter) matches(entry Entry) bool {
	if title := strings.TrimSpace(f.Title); title != "" {
		if !strings.Contains(strings.ToLower(entry.QuizTitle), strings.ToLower(title)) {
			return false
		}
	}
	if f.Date != "" && entry.Date.UTC().Format(DateLayout) != f.Date {
		return false
	}
	switch f.Status {
	case StatusPassed:
		return entry.Passed
	case StatusFailed:
		return !entry.Passed
	default:
		return true
	}
}

// ParseFilter validates raw filter values such as query parameters.
func ParseFilter(title, date, status string) (Filter, error) {
	filter := Filter{Title: strings.TrimSpace(title)}

	var problems []string

	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			problems = append(problems, "date must use the YYYY-MM-DD format")
		} else {
			filter.Date = date
		}
	}

	switch Status(strings.ToLower(strings.TrimSpace(status))) {
	case "", StatusAll:
		filter.Status = StatusAll
	case StatusPassed:
		filter.Status = StatusPassed
	case StatusFailed:
		filter.Status = StatusFailed
	default:
		problems = append(problems, "status must be one of all, passed, failed")
	}

	if len(problems) > 0 {
		return Filter{}, validation.New(problems...)
	}
	return filter, nil
}

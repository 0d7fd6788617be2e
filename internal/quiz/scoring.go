package quiz

import "time"

type Result struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	QuizID    string    `json:"quizId"`
	QuizTitle string    `json:"quizTitle"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Answers   []*int    `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry is the per-user summary appended alongside every Result.
type HistoryEntry struct {
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Date           time.Time `json:"date"`
}

type Detail struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	YourAnswer   *int     `json:"yourAnswer"`
}

type Submission struct {
	ResultID string   `json:"resultId"`
	Title    string   `json:"title"`
	Total    int      `json:"total"`
	Score    int      `json:"score"`
	Details  []Detail `json:"details"`
}

// Score counts positions where the submitted answer equals the stored correct
// index. Nil answers and positions past the end of answers never match.
func Score(questions []Question, answers []*int) int {
	score := 0
	for idx, question := range questions {
		if idx >= len(answers) || answers[idx] == nil {
			continue
		}
		if *answers[idx] == question.CorrectIndex {
			score++
		}
	}
	return score
}

// PadAnswers returns a copy of answers with exactly count entries, filling
// missing positions with nil.
func PadAnswers(answers []*int, count int) []*int {
	padded := make([]*int, count)
	for idx := 0; idx < count && idx < len(answers); idx++ {
		if answers[idx] != nil {
			padded[idx] = IntPtr(*answers[idx])
		}
	}
	return padded
}

func BuildDetails(questions []Question, answers []*int) []Detail {
	details := make([]Detail, 0, len(questions))
	for idx, question := range questions {
		var yourAnswer *int
		if idx < len(answers) && answers[idx] != nil {
			yourAnswer = IntPtr(*answers[idx])
		}
		options := make([]string, len(question.Options))
		copy(options, question.Options)
		details = append(details, Detail{
			Question:     question.Question,
			Options:      options,
			CorrectIndex: question.CorrectIndex,
			YourAnswer:   yourAnswer,
		})
	}
	return details
}

func (r Result) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		QuizID:         r.QuizID,
		QuizTitle:      r.QuizTitle,
		Score:          r.Score,
		TotalQuestions: r.Total,
		Date:           r.CreatedAt,
	}
}

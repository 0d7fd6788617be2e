package quiz

import (
	"strings"
	"time"
)

const OptionCount = 4

type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuizSummary is the list view of a quiz; it never carries questions.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type QuestionInput struct {
	Question     string   `json:"question" validate:"required,max=200"`
	Options      []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectIndex *int     `json:"correctIndex" validate:"required,min=0,max=3"`
}

type CreateQuizInput struct {
	Title     string          `json:"title" validate:"required,max=100"`
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// Normalize trims every text field in place. Validation runs on the trimmed values.
func (in *CreateQuizInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	for idx := range in.Questions {
		question := &in.Questions[idx]
		question.Question = strings.TrimSpace(question.Question)
		for optIdx := range question.Options {
			question.Options[optIdx] = strings.TrimSpace(question.Options[optIdx])
		}
	}
}

func (in CreateQuizInput) toQuestions() []Question {
	questions := make([]Question, 0, len(in.Questions))
	for _, item := range in.Questions {
		options := make([]string, len(item.Options))
		copy(options, item.Options)
		correct := 0
		if item.CorrectIndex != nil {
			correct = *item.CorrectIndex
		}
		questions = append(questions, Question{
			Question:     item.Question,
			Options:      options,
			CorrectIndex: correct,
		})
	}
	return questions
}

// OptionLetter returns the display letter for an option index (0 -> "A").
func OptionLetter(index int) string {
	if index < 0 || index >= OptionCount {
		return ""
	}
	return string(rune('A' + index))
}

func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return ""
	}
	return letter
}

// LetterIndex maps "A".."D" (any case, surrounding spaces allowed) to 0..3.
func LetterIndex(answer string) (int, bool) {
	letter := NormalizeLetter(answer)
	if letter == "" {
		return -1, false
	}
	index := int(letter[0] - 'A')
	if index < 0 || index >= OptionCount {
		return -1, false
	}
	return index, true
}

func IntPtr(v int) *int {
	return &v
}

package quiz

import (
	"fmt"

	"quiz-maker/internal/validation"
)

type SubmitInput struct {
	Answers []*int `json:"answers" validate:"required,min=1,dive,omitnil,min=0,max=3"`
}

// ValidateQuiz checks the trimmed input: a non-empty title, at least one
// question, non-empty prompts, exactly four non-empty options, correctIndex 0-3.
func ValidateQuiz(input CreateQuizInput) error {
	return validation.Struct(input)
}

// ValidateAnswers rejects anything that is not null or an option index, and
// vectors longer than the quiz.
func ValidateAnswers(answers []*int, questionCount int) error {
	if err := validation.Struct(SubmitInput{Answers: answers}); err != nil {
		return err
	}
	if len(answers) > questionCount {
		return validation.New(fmt.Sprintf("answers must not contain more than %d items", questionCount))
	}
	return nil
}

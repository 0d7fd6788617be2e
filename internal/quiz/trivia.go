package quiz

import (
	"html"
	"math/rand"

	"quiz-maker/internal/opentdb"
)

// BuildQuestions turns OpenTriviaDB items into quiz questions. Only items that
// produce exactly four options are kept; skipped reports how many were dropped.
func BuildQuestions(raw []opentdb.RawQuestion) (questions []QuestionInput, skipped int) {
	questions = make([]QuestionInput, 0, len(raw))
	for _, item := range raw {
		question, ok := buildQuestion(item)
		if !ok {
			skipped++
			continue
		}
		questions = append(questions, question)
	}
	return questions, skipped
}

func buildQuestion(raw opentdb.RawQuestion) (QuestionInput, bool) {
	if len(raw.IncorrectAnswers) != OptionCount-1 {
		return QuestionInput{}, false
	}

	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, OptionCount)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{text: html.UnescapeString(incorrect)})
	}
	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	correctIndex := -1
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correctIndex = idx
		}
	}

	return QuestionInput{
		Question:     html.UnescapeString(raw.Question),
		Options:      options,
		CorrectIndex: IntPtr(correctIndex),
	}, true
}

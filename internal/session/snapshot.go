package session

import "quiz-maker/internal/quiz"

// Snapshot is a copy of the controller state; mutating it never affects the
// controller.
type Snapshot struct {
	State     State
	QuizID    string
	Title     string
	Index     int
	Total     int
	Question  *quiz.Question
	Remaining int
	Selected  *int
	Answers   []*int
	Modal     Modal
	Result    *quiz.Submission
	Err       error
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:     c.state,
		QuizID:    c.quiz.ID,
		Title:     c.quiz.Title,
		Index:     c.index,
		Total:     len(c.quiz.Questions),
		Remaining: c.remaining,
		Answers:   copyAnswers(c.answers),
		Modal:     c.modal,
		Err:       c.err,
	}
	if c.selected != nil {
		snap.Selected = quiz.IntPtr(*c.selected)
	}
	if c.state == StateActive && c.index < len(c.quiz.Questions) {
		question := c.quiz.Questions[c.index]
		question.Options = append([]string(nil), question.Options...)
		snap.Question = &question
	}
	if c.result != nil {
		result := *c.result
		result.Details = append([]quiz.Detail(nil), c.result.Details...)
		snap.Result = &result
	}
	return snap
}

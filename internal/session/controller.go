// Package session drives one taker through a timed quiz attempt.
//
// The Controller is a state machine. Every event (timer tick, selection,
// advance, modal, visibility) is applied under one mutex in arrival order, so
// a timeout and a last moment selection can never both resolve a question.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"quiz-maker/internal/quiz"
)

const DefaultTimeBudget = 30

type State int

const (
	StateLoading State = iota
	StateActive
	StateSubmitting
	StateDone
	StateFailed
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the attempt has produced a result or an error.
// A failed submission is terminal but can still be retried.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

type Modal string

const (
	ModalNone       Modal = ""
	ModalDisclaimer Modal = "disclaimer"
	ModalIntegrity  Modal = "integrity"
	ModalWarning    Modal = "warning"
)

var (
	ErrWrongState    = errors.New("session: event not allowed in current state")
	ErrNoSelection   = errors.New("session: select an option before advancing")
	ErrInvalidOption = errors.New("session: option must be between 0 and 3")
	ErrStaleEvent    = errors.New("session: question already resolved")
	ErrModalOpen     = errors.New("session: dismiss the dialog first")
	ErrCompromised   = errors.New("session: environment failed the integrity check")
	ErrEmptyQuiz     = errors.New("session: quiz has no questions")
)

type QuizSource interface {
	GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error)
}

type Submitter interface {
	Submit(ctx context.Context, quizID string, answers []*int) (quiz.Submission, error)
}

type Config struct {
	Source     QuizSource
	Submitter  Submitter
	Monitor    IntegrityMonitor
	TimeBudget int
}

type Controller struct {
	mu sync.Mutex

	source    QuizSource
	submitter Submitter
	monitor   IntegrityMonitor
	budget    int

	state     State
	quiz      quiz.Quiz
	index     int
	remaining int
	selected  *int
	answers   []*int
	modal     Modal
	result    *quiz.Submission
	err       error
}

func New(cfg Config) *Controller {
	budget := cfg.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	monitor := cfg.Monitor
	if monitor == nil {
		monitor = NopMonitor{}
	}
	return &Controller{
		source:    cfg.Source,
		submitter: cfg.Submitter,
		monitor:   monitor,
		budget:    budget,
		state:     StateLoading,
	}
}

// Load fetches the quiz and enters the first question behind the disclaimer
// dialog. The timer does not run until the dialog is dismissed.
func (c *Controller) Load(ctx context.Context, quizID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoading && c.state != StateAbandoned {
		return ErrWrongState
	}
	c.reset()

	if c.monitor.IsCompromised() {
		c.modal = ModalIntegrity
		return ErrCompromised
	}

	loaded, err := c.source.GetQuiz(ctx, strings.TrimSpace(quizID))
	if err != nil {
		c.err = err
		return fmt.Errorf("load quiz: %w", err)
	}
	if len(loaded.Questions) == 0 {
		c.err = ErrEmptyQuiz
		return ErrEmptyQuiz
	}

	c.quiz = loaded
	c.answers = make([]*int, len(loaded.Questions))
	c.index = 0
	c.remaining = c.budget
	c.modal = ModalDisclaimer
	c.state = StateActive
	return nil
}

func (c *Controller) ShowModal(modal Modal) {
	if modal == ModalNone {
		return
	}
	c.mu.Lock()
	c.modal = modal
	c.mu.Unlock()
}

func (c *Controller) DismissModal() {
	c.mu.Lock()
	c.modal = ModalNone
	c.mu.Unlock()
}

// Tick advances the countdown by one unit. Ticks are ignored while a dialog
// is open or no question is active. A compromised environment abandons the
// attempt.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive || c.modal != ModalNone {
		return
	}
	if c.monitor.IsCompromised() {
		c.abandon()
		return
	}

	c.remaining--
	if c.remaining <= 0 {
		c.resolve()
	}
}

// Select marks option as the pending answer for the given question. The
// answer is only recorded when the question resolves.
func (c *Controller) Select(question, option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkActive(question); err != nil {
		return err
	}
	if option < 0 || option >= quiz.OptionCount {
		return ErrInvalidOption
	}
	c.selected = quiz.IntPtr(option)
	return nil
}

// Advance resolves the given question with the pending selection.
func (c *Controller) Advance(question int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkActive(question); err != nil {
		return err
	}
	if c.selected == nil {
		return ErrNoSelection
	}
	c.resolve()
	return nil
}

// VisibilityLost discards all in-progress state when the attempt has not yet
// reached a terminal state.
func (c *Controller) VisibilityLost() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActive || c.state == StateSubmitting {
		c.abandon()
	}
}

// Submit sends the answer vector. It runs when the last question resolves and
// again only when the caller explicitly retries a failed submission.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSubmitting && c.state != StateFailed {
		return ErrWrongState
	}
	c.state = StateSubmitting

	answers := copyAnswers(c.answers)
	submission, err := c.submitter.Submit(ctx, c.quiz.ID, answers)
	if err != nil {
		c.err = err
		c.state = StateFailed
		return fmt.Errorf("submit answers: %w", err)
	}

	c.err = nil
	c.result = &submission
	c.state = StateDone
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) checkActive(question int) error {
	if c.state != StateActive {
		return ErrWrongState
	}
	if question != c.index {
		return ErrStaleEvent
	}
	if c.modal != ModalNone {
		return ErrModalOpen
	}
	return nil
}

// resolve records the pending selection (or nil on timeout) for the current
// question and moves on. It is the only writer of answers.
func (c *Controller) resolve() {
	if c.answers[c.index] == nil && c.selected != nil {
		c.answers[c.index] = quiz.IntPtr(*c.selected)
	}
	c.selected = nil

	if c.index >= len(c.answers)-1 {
		c.state = StateSubmitting
		c.remaining = 0
		return
	}
	c.index++
	c.remaining = c.budget
}

func (c *Controller) abandon() {
	c.reset()
	c.state = StateAbandoned
	c.modal = ModalWarning
}

func (c *Controller) reset() {
	c.quiz = quiz.Quiz{}
	c.index = 0
	c.remaining = 0
	c.selected = nil
	c.answers = nil
	c.modal = ModalNone
	c.result = nil
	c.err = nil
	c.state = StateLoading
}

func copyAnswers(answers []*int) []*int {
	out := make([]*int, len(answers))
	for idx, answer := range answers {
		if answer != nil {
			out[idx] = quiz.IntPtr(*answer)
		}
	}
	return out
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quiz-maker/internal/quiz"
)

type fakeSource struct {
	quizzes map[string]quiz.Quiz
}

func (f fakeSource) GetQuiz(_ context.Context, quizID string) (quiz.Quiz, error) {
	loaded, ok := f.quizzes[quizID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return loaded, nil
}

type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int
	failures int
	answers  [][]*int
}

func (f *fakeSubmitter) Submit(_ context.Context, quizID string, answers []*int) (quiz.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.answers = append(f.answers, answers)
	if f.failures > 0 {
		f.failures--
		return quiz.Submission{}, errors.New("connection refused")
	}
	return quiz.Submission{ResultID: "r-" + quizID, Title: "T", Total: len(answers)}, nil
}

func testQuiz(n int) quiz.Quiz {
	questions := make([]quiz.Question, n)
	for idx := range questions {
		questions[idx] = quiz.Question{
			Question:     fmt.Sprintf("Question number %d?", idx+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: idx % quiz.OptionCount,
		}
	}
	return quiz.Quiz{ID: "quiz-1", Title: "T", Questions: questions}
}

func newLoaded(t *testing.T, n int, submitter *fakeSubmitter, monitor IntegrityMonitor) *Controller {
	t.Helper()
	c := New(Config{
		Source:    fakeSource{quizzes: map[string]quiz.Quiz{"quiz-1": testQuiz(n)}},
		Submitter: submitter,
		Monitor:   monitor,
	})
	if err := c.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Snapshot().Modal; got != ModalDisclaimer {
		t.Fatalf("modal after load = %q, want disclaimer", got)
	}
	c.DismissModal()
	return c
}

func TestTimeoutOnlyAttemptReachesSubmittingWithAllNulls(t *testing.T) {
	const n = 3
	submitter := &fakeSubmitter{}
	c := newLoaded(t, n, submitter, nil)

	for tick := 0; tick < DefaultTimeBudget*n-1; tick++ {
		c.Tick()
		if c.State() != StateActive {
			t.Fatalf("left active state early after %d ticks", tick+1)
		}
	}
	c.Tick()

	snap := c.Snapshot()
	if snap.State != StateSubmitting {
		t.Fatalf("state after %d ticks = %s, want submitting", DefaultTimeBudget*n, snap.State)
	}
	if len(snap.Answers) != n {
		t.Fatalf("answers length = %d, want %d", len(snap.Answers), n)
	}
	for idx, answer := range snap.Answers {
		if answer != nil {
			t.Fatalf("answers[%d] = %d, want nil", idx, *answer)
		}
	}

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !c.State().Terminal() {
		t.Fatalf("expected terminal state, got %s", c.State())
	}
}

func TestTimerResetsOnEveryTransition(t *testing.T) {
	c := newLoaded(t, 2, &fakeSubmitter{}, nil)

	for tick := 0; tick < 10; tick++ {
		c.Tick()
	}
	if got := c.Snapshot().Remaining; got != DefaultTimeBudget-10 {
		t.Fatalf("remaining = %d, want %d", got, DefaultTimeBudget-10)
	}

	if err := c.Select(0, 2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := c.Advance(0); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.Index != 1 || snap.Remaining != DefaultTimeBudget {
		t.Fatalf("after advance index=%d remaining=%d, want 1/%d", snap.Index, snap.Remaining, DefaultTimeBudget)
	}
	if snap.Answers[0] == nil || *snap.Answers[0] != 2 {
		t.Fatalf("answers[0] = %v, want 2", snap.Answers[0])
	}
	if snap.Selected != nil {
		t.Fatalf("selection carried over to next question: %d", *snap.Selected)
	}
}

func TestTimeoutRecordsPendingSelection(t *testing.T) {
	c := newLoaded(t, 2, &fakeSubmitter{}, nil)

	if err := c.Select(0, 3); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	for tick := 0; tick < DefaultTimeBudget; tick++ {
		c.Tick()
	}

	snap := c.Snapshot()
	if snap.Index != 1 {
		t.Fatalf("index = %d, want 1", snap.Index)
	}
	if snap.Answers[0] == nil || *snap.Answers[0] != 3 {
		t.Fatalf("answers[0] = %v, want 3", snap.Answers[0])
	}
}

func TestTimeoutAndLateAdvanceResolveOnce(t *testing.T) {
	c := newLoaded(t, 2, &fakeSubmitter{}, nil)

	if err := c.Select(0, 1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	for tick := 0; tick < DefaultTimeBudget; tick++ {
		c.Tick()
	}

	// The advance for question 0 arrives after its timeout was processed.
	if err := c.Advance(0); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("late Advance error = %v, want ErrStaleEvent", err)
	}
	if err := c.Select(0, 2); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("late Select error = %v, want ErrStaleEvent", err)
	}

	snap := c.Snapshot()
	if snap.Index != 1 || snap.Selected != nil {
		t.Fatalf("late events leaked into question 1: index=%d selected=%v", snap.Index, snap.Selected)
	}
	if *snap.Answers[0] != 1 {
		t.Fatalf("answers[0] = %d, want 1", *snap.Answers[0])
	}
}

func TestAdvanceBeforeTimeoutWinsOverLateTick(t *testing.T) {
	c := newLoaded(t, 1, &fakeSubmitter{}, nil)

	for tick := 0; tick < DefaultTimeBudget-1; tick++ {
		c.Tick()
	}
	if err := c.Select(0, 0); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := c.Advance(0); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	c.Tick()

	snap := c.Snapshot()
	if snap.State != StateSubmitting {
		t.Fatalf("state = %s, want submitting", snap.State)
	}
	if snap.Answers[0] == nil || *snap.Answers[0] != 0 {
		t.Fatalf("answers[0] = %v, want 0", snap.Answers[0])
	}
}

func TestAdvanceRequiresSelection(t *testing.T) {
	c := newLoaded(t, 1, &fakeSubmitter{}, nil)

	if err := c.Advance(0); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Advance error = %v, want ErrNoSelection", err)
	}
	if err := c.Select(0, 4); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Select(4) error = %v, want ErrInvalidOption", err)
	}
	if err := c.Select(0, -1); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Select(-1) error = %v, want ErrInvalidOption", err)
	}
}

func TestModalSuspendsTimer(t *testing.T) {
	c := New(Config{
		Source:    fakeSource{quizzes: map[string]quiz.Quiz{"quiz-1": testQuiz(1)}},
		Submitter: &fakeSubmitter{},
	})
	if err := c.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Disclaimer is open after load.
	for tick := 0; tick < DefaultTimeBudget*2; tick++ {
		c.Tick()
	}
	if got := c.Snapshot().Remaining; got != DefaultTimeBudget {
		t.Fatalf("timer ran behind disclaimer: remaining=%d", got)
	}
	if err := c.Select(0, 1); !errors.Is(err, ErrModalOpen) {
		t.Fatalf("Select with modal open error = %v, want ErrModalOpen", err)
	}

	c.DismissModal()
	c.Tick()
	c.ShowModal(ModalWarning)
	c.Tick()
	c.Tick()
	c.DismissModal()
	c.Tick()

	if got := c.Snapshot().Remaining; got != DefaultTimeBudget-2 {
		t.Fatalf("remaining = %d, want %d", got, DefaultTimeBudget-2)
	}
}

func TestVisibilityLostDiscardsAttempt(t *testing.T) {
	submitter := &fakeSubmitter{}
	c := newLoaded(t, 2, submitter, nil)

	if err := c.Select(0, 1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := c.Advance(0); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	c.VisibilityLost()

	snap := c.Snapshot()
	if snap.State != StateAbandoned {
		t.Fatalf("state = %s, want abandoned", snap.State)
	}
	if snap.Answers != nil && len(snap.Answers) != 0 {
		t.Fatalf("answers survived abandonment: %v", snap.Answers)
	}
	if snap.QuizID != "" {
		t.Fatalf("quiz survived abandonment: %q", snap.QuizID)
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrWrongState) {
		t.Fatalf("Submit after abandon error = %v, want ErrWrongState", err)
	}
	if submitter.calls != 0 {
		t.Fatalf("abandoned attempt reached the submitter")
	}

	// A fresh attempt may start after a reset.
	if err := c.Load(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("reload after abandon failed: %v", err)
	}
	if got := c.Snapshot(); got.Index != 0 || got.Answers[0] != nil {
		t.Fatalf("reloaded attempt kept old state: %+v", got)
	}
}

func TestVisibilityLostAfterTerminalIsIgnored(t *testing.T) {
	c := newLoaded(t, 1, &fakeSubmitter{}, nil)
	_ = c.Select(0, 0)
	_ = c.Advance(0)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	c.VisibilityLost()
	if got := c.State(); got != StateDone {
		t.Fatalf("state = %s, want done", got)
	}
}

func TestCompromisedMonitor(t *testing.T) {
	latch := &Latch{}
	latch.Trip()

	c := New(Config{
		Source:    fakeSource{quizzes: map[string]quiz.Quiz{"quiz-1": testQuiz(1)}},
		Submitter: &fakeSubmitter{},
		Monitor:   latch,
	})
	if err := c.Load(context.Background(), "quiz-1"); !errors.Is(err, ErrCompromised) {
		t.Fatalf("Load error = %v, want ErrCompromised", err)
	}
	snap := c.Snapshot()
	if snap.State != StateLoading || snap.Modal != ModalIntegrity {
		t.Fatalf("unexpected snapshot after refused load: %+v", snap)
	}

	midway := &Latch{}
	c = newLoaded(t, 2, &fakeSubmitter{}, midway)
	c.Tick()
	midway.Trip()
	c.Tick()
	if got := c.State(); got != StateAbandoned {
		t.Fatalf("state = %s, want abandoned", got)
	}
}

func TestFailedSubmitIsRetriedOnlyOnRequest(t *testing.T) {
	submitter := &fakeSubmitter{failures: 1}
	c := newLoaded(t, 1, submitter, nil)
	_ = c.Select(0, 0)
	_ = c.Advance(0)

	if err := c.Submit(context.Background()); err == nil {
		t.Fatalf("expected first submit to fail")
	}
	snap := c.Snapshot()
	if snap.State != StateFailed || snap.Err == nil {
		t.Fatalf("unexpected snapshot after failure: %+v", snap)
	}
	if submitter.calls != 1 {
		t.Fatalf("submitter calls = %d, want 1", submitter.calls)
	}

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	snap = c.Snapshot()
	if snap.State != StateDone || snap.Result == nil || snap.Result.ResultID != "r-quiz-1" {
		t.Fatalf("unexpected snapshot after retry: %+v", snap)
	}
	if *submitter.answers[1][0] != 0 {
		t.Fatalf("retry sent different answers: %v", submitter.answers[1])
	}
}

func TestLoadErrors(t *testing.T) {
	c := New(Config{Source: fakeSource{quizzes: map[string]quiz.Quiz{"empty": {ID: "empty"}}}})

	if err := c.Load(context.Background(), "missing"); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Fatalf("Load(missing) error = %v, want ErrQuizNotFound", err)
	}
	if err := c.Load(context.Background(), "empty"); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("Load(empty) error = %v, want ErrEmptyQuiz", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newLoaded(t, 2, &fakeSubmitter{}, nil)
	_ = c.Select(0, 1)
	_ = c.Advance(0)

	snap := c.Snapshot()
	*snap.Answers[0] = 3
	snap.Question.Options[0] = "changed"

	again := c.Snapshot()
	if *again.Answers[0] != 1 {
		t.Fatalf("snapshot mutation leaked into answers: %d", *again.Answers[0])
	}
	if again.Question.Options[0] != "a" {
		t.Fatalf("snapshot mutation leaked into options: %q", again.Question.Options[0])
	}
}

func TestDriveTimeoutOnly(t *testing.T) {
	const n = 2
	submitter := &fakeSubmitter{}
	c := newLoaded(t, n, submitter, nil)

	ticks := make(chan time.Time)
	input := make(chan Event)
	done := make(chan Snapshot, 1)
	go func() {
		snap, err := Drive(context.Background(), c, ticks, input, nil)
		if err != nil {
			t.Errorf("Drive failed: %v", err)
		}
		done <- snap
	}()

	for tick := 0; tick < DefaultTimeBudget*n; tick++ {
		ticks <- time.Time{}
	}

	select {
	case snap := <-done:
		if snap.State != StateDone {
			t.Fatalf("state = %s, want done", snap.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Drive did not finish")
	}

	if len(submitter.answers) != 1 {
		t.Fatalf("submitter calls = %d, want 1", len(submitter.answers))
	}
	for idx, answer := range submitter.answers[0] {
		if answer != nil {
			t.Fatalf("submitted answers[%d] = %d, want nil", idx, *answer)
		}
	}
}

func TestDriveRetryAndAbandon(t *testing.T) {
	submitter := &fakeSubmitter{failures: 1}
	c := newLoaded(t, 1, submitter, nil)

	input := make(chan Event, 4)
	input <- Event{Kind: EventSelect, Question: 0, Option: 2}
	input <- Event{Kind: EventAdvance, Question: 0}
	input <- Event{Kind: EventRetry}

	var failures int
	snap, err := Drive(context.Background(), c, nil, input, func(s Snapshot, err error) {
		if s.State == StateFailed {
			failures++
		}
	})
	if err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	if snap.State != StateDone || failures != 1 || submitter.calls != 2 {
		t.Fatalf("state=%s failures=%d calls=%d, want done/1/2", snap.State, failures, submitter.calls)
	}

	c = newLoaded(t, 2, &fakeSubmitter{}, nil)
	abandon := make(chan Event, 1)
	abandon <- Event{Kind: EventVisibilityLost}
	snap, err = Drive(context.Background(), c, nil, abandon, nil)
	if err != nil || snap.State != StateAbandoned {
		t.Fatalf("Drive after visibility loss = (%s, %v), want abandoned", snap.State, err)
	}
}

func TestDriveCancelAbandons(t *testing.T) {
	c := newLoaded(t, 2, &fakeSubmitter{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := Drive(ctx, c, nil, make(chan Event), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Drive error = %v, want context.Canceled", err)
	}
	if snap.State != StateAbandoned {
		t.Fatalf("state = %s, want abandoned", snap.State)
	}
}

func TestDriveRepliesOnceInputIsAccepted(t *testing.T) {
	submitter := &fakeSubmitter{failures: 1}
	c := newLoaded(t, 2, submitter, nil)

	input := make(chan Event)
	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := Drive(context.Background(), c, nil, input, nil)
		done <- snap
	}()

	send := func(event Event) error {
		t.Helper()
		reply := make(chan error, 1)
		event.Reply = reply
		input <- event
		select {
		case err := <-reply:
			return err
		case <-time.After(2 * time.Second):
			t.Fatalf("no reply for event kind %d", event.Kind)
			return nil
		}
	}

	if err := send(Event{Kind: EventAdvance, Question: 0}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("advance without selection = %v, want ErrNoSelection", err)
	}
	if err := send(Event{Kind: EventSelect, Question: 0, Option: 1}); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := send(Event{Kind: EventAdvance, Question: 0}); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if err := send(Event{Kind: EventSelect, Question: 1, Option: 3}); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	// The last advance triggers the automatic submit, which fails once.
	if err := send(Event{Kind: EventAdvance, Question: 1}); err == nil {
		t.Fatal("expected the submit failure on the final advance")
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %s, want failed", c.State())
	}

	input <- Event{Kind: EventRetry, Reply: make(chan error, 1)}
	select {
	case snap := <-done:
		if snap.State != StateDone || snap.Result == nil {
			t.Fatalf("final state = %s, want done with a result", snap.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Drive did not finish after retry")
	}
}

package session

import (
	"context"
	"time"
)

type EventKind int

const (
	EventSelect EventKind = iota
	EventAdvance
	EventDismissModal
	EventShowModal
	EventVisibilityLost
	EventRetry
)

// Event is one taker input. Question identifies the question the taker was
// looking at, so input meant for a question that already timed out is
// rejected instead of landing on the next one.
//
// When Reply is set it receives the event's error once the controller is
// waiting for input again. It is never written if the attempt ends, so it
// must be buffered.
type Event struct {
	Kind     EventKind
	Question int
	Option   int
	Modal    Modal
	Reply    chan<- error
}

// Observer is called after every applied tick or event with a fresh snapshot
// and the error the event produced, if any.
type Observer func(snap Snapshot, err error)

// Drive feeds ticks and input into an already loaded controller from a single
// goroutine until the attempt is done or abandoned. A failed submission waits
// for an EventRetry. Cancelling ctx or closing input abandons an unfinished
// attempt.
func Drive(ctx context.Context, c *Controller, ticks <-chan time.Time, input <-chan Event, observe Observer) (Snapshot, error) {
	if observe == nil {
		observe = func(Snapshot, error) {}
	}

	var (
		reply    chan<- error
		replyErr error
	)

	for {
		snap := c.Snapshot()
		switch snap.State {
		case StateDone, StateAbandoned:
			return snap, nil
		case StateLoading:
			return snap, ErrWrongState
		case StateSubmitting:
			err := c.Submit(ctx)
			if err != nil {
				replyErr = err
			}
			observe(c.Snapshot(), err)
			continue
		}

		if reply != nil {
			reply <- replyErr
			reply = nil
		}

		select {
		case <-ctx.Done():
			c.VisibilityLost()
			return c.Snapshot(), ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			c.Tick()
			observe(c.Snapshot(), nil)
		case event, ok := <-input:
			if !ok {
				c.VisibilityLost()
				return c.Snapshot(), nil
			}
			replyErr = c.apply(ctx, event)
			reply = event.Reply
			observe(c.Snapshot(), replyErr)
		}
	}
}

func (c *Controller) apply(ctx context.Context, event Event) error {
	switch event.Kind {
	case EventSelect:
		return c.Select(event.Question, event.Option)
	case EventAdvance:
		return c.Advance(event.Question)
	case EventDismissModal:
		c.DismissModal()
	case EventShowModal:
		c.ShowModal(event.Modal)
	case EventVisibilityLost:
		c.VisibilityLost()
	case EventRetry:
		return c.Submit(ctx)
	}
	return nil
}

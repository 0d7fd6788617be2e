package session

import "sync/atomic"

// IntegrityMonitor reports whether the taking environment can no longer be
// trusted, for example because the taker left the quiz screen.
type IntegrityMonitor interface {
	IsCompromised() bool
}

type NopMonitor struct{}

func (NopMonitor) IsCompromised() bool { return false }

type MonitorFunc func() bool

func (f MonitorFunc) IsCompromised() bool { return f() }

// Latch is compromised from the first Trip onward.
type Latch struct {
	tripped atomic.Bool
}

func (l *Latch) Trip() { l.tripped.Store(true) }

func (l *Latch) IsCompromised() bool { return l.tripped.Load() }

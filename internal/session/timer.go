package session

import (
	"time"

	"github.com/benediktms/chesstty/internal/models"
)

// TickInterval is the actor's timer resolution.
const TickInterval = 100 * time.Millisecond

type timerState int

const (
	timerStopped timerState = iota
	timerRunningWhite
	timerRunningBlack
)

// Timer is a per-side countdown clock. Ticks subtract elapsed wall
// time, not the nominal interval, so a stalled actor still accounts
// time correctly.
type Timer struct {
	whiteRemaining time.Duration
	blackRemaining time.Duration
	state          timerState
	lastTick       time.Time
	flagged        bool

	now func() time.Time
}

func NewTimer(cfg models.TimerConfig) *Timer {
	return &Timer{
		whiteRemaining: time.Duration(cfg.WhiteMs) * time.Millisecond,
		blackRemaining: time.Duration(cfg.BlackMs) * time.Millisecond,
		now:            time.Now,
	}
}

func (t *Timer) Start(side models.Side) {
	if side == models.White {
		t.state = timerRunningWhite
	} else {
		t.state = timerRunningBlack
	}
	t.lastTick = t.now()
}

func (t *Timer) Stop() {
	t.flush()
	t.state = timerStopped
}

// SwitchTo flushes the active side's elapsed time, then hands the
// clock to the given side.
func (t *Timer) SwitchTo(side models.Side) {
	t.flush()
	t.Start(side)
}

// Tick accounts elapsed time against the active side. It returns true
// exactly once per game: on the tick where the active side's remaining
// time reaches zero.
func (t *Timer) Tick() bool {
	if t.state == timerStopped {
		return false
	}
	t.flush()
	if t.flagged {
		return false
	}
	if t.activeRemaining() <= 0 {
		t.flagged = true
		return true
	}
	return false
}

// ActiveSide returns the side whose clock is running, or "" if stopped.
func (t *Timer) ActiveSide() models.Side {
	switch t.state {
	case timerRunningWhite:
		return models.White
	case timerRunningBlack:
		return models.Black
	default:
		return ""
	}
}

func (t *Timer) Flagged() bool {
	return t.flagged
}

func (t *Timer) Snapshot() models.TimerSnapshot {
	return models.TimerSnapshot{
		WhiteRemainingMs: t.whiteRemaining.Milliseconds(),
		BlackRemainingMs: t.blackRemaining.Milliseconds(),
		ActiveSide:       t.ActiveSide(),
		Running:          t.state != timerStopped,
	}
}

func (t *Timer) flush() {
	if t.state == timerStopped {
		return
	}
	now := t.now()
	elapsed := now.Sub(t.lastTick)
	t.lastTick = now
	if elapsed <= 0 {
		return
	}
	switch t.state {
	case timerRunningWhite:
		t.whiteRemaining = saturatingSub(t.whiteRemaining, elapsed)
	case timerRunningBlack:
		t.blackRemaining = saturatingSub(t.blackRemaining, elapsed)
	}
}

func (t *Timer) activeRemaining() time.Duration {
	if t.state == timerRunningWhite {
		return t.whiteRemaining
	}
	return t.blackRemaining
}

func saturatingSub(d, sub time.Duration) time.Duration {
	if sub >= d {
		return 0
	}
	return d - sub
}

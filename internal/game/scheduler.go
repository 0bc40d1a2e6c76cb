package game

import "time"

// Scheduler runs fn once after d. The returned cancel reports whether it stopped
// the call before it started. fn must run on another goroutine, never inside AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func() bool)
}

type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// Pacing is the delay before the automated reply: Base plus up to Jitter.
type Pacing struct {
	Base   time.Duration
	Jitter time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{Base: 600 * time.Millisecond, Jitter: 800 * time.Millisecond}
}

func (p Pacing) delay(rnd *lockedRand) time.Duration {
	d := p.Base
	if d < 0 {
		d = 0
	}
	if p.Jitter > 0 && rnd != nil {
		d += time.Duration(rnd.Int63n(int64(p.Jitter)))
	}
	return d
}

type pendingReply struct {
	generation string
	cancel     func() bool
}

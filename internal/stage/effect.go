package stage

import (
	"context"
	"time"
)

// Transition describes one stage change handed to an effect.
type Transition struct {
	From    string
	To      string
	Index   int
	Options Options
}

// Effect runs the visual treatment for a transition and reports completion
// through done. An effect that never calls done is reclaimed by the machine's
// watchdog; calling done more than once is harmless (later calls are stale).
type Effect interface {
	Run(ctx context.Context, t Transition, done func())
}

// ImmediateEffect completes every transition synchronously.
type ImmediateEffect struct{}

func (ImmediateEffect) Run(_ context.Context, _ Transition, done func()) {
	done()
}

// TimedEffect completes after the transition's configured duration,
// approximating a real animation for the daemon and for tests. A cancelled
// context abandons the transition and leaves cleanup to the watchdog.
type TimedEffect struct{}

func (TimedEffect) Run(ctx context.Context, t Transition, done func()) {
	go func() {
		timer := time.NewTimer(t.Options.Duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			done()
		}
	}()
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc func(ctx context.Context, t Transition, done func())

func (f EffectFunc) Run(ctx context.Context, t Transition, done func()) {
	f(ctx, t, done)
}

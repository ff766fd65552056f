package schedule

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts wall-clock access for timer wait nodes.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer holds the last annotated timestamp shared by all timer wait nodes of
// one schedule. The first pass only annotates; later passes sleep for
// whatever remains of the wait interval and annotate again. A Pacer handed to
// WithPacer outlives the Schedule it was loaded into, so a schedule reloaded
// from storage between steps keeps its pacing.
type Pacer struct {
	mu        sync.Mutex
	last      time.Time
	annotated bool
}

func NewPacer() *Pacer {
	return &Pacer{}
}

// Annotated reports whether a timer wait has been passed since creation or
// the last reset.
func (p *Pacer) Annotated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.annotated
}

func (p *Pacer) wait(ctx context.Context, clock Clock, seconds float64) (time.Duration, error) {
	p.mu.Lock()

	if !p.annotated {
		p.last = clock.Now()
		p.annotated = true
		p.mu.Unlock()

		return 0, nil
	}

	interval := time.Duration(seconds * float64(time.Second))
	remaining := max(interval-clock.Now().Sub(p.last), 0)
	p.mu.Unlock()

	if remaining > 0 {
		if err := clock.Sleep(ctx, remaining); err != nil {
			return 0, err
		}
	}

	p.mu.Lock()
	p.last = clock.Now()
	p.mu.Unlock()

	return remaining, nil
}

func (p *Pacer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.annotated = false
	p.last = time.Time{}
}

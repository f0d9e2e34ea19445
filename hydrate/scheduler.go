// Package hydrate defers gallery discovery for a card until it nears the
// viewport, then runs the progressive pipeline for it.
package hydrate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubgallery/discovery"
)

// Card binds a page element to a folder. Count is an upper bound hint,
// not authoritative.
type Card struct {
	ID     string `json:"id" koanf:"id"`
	Folder string `json:"folder" koanf:"folder"`
	Count  int    `json:"count,omitempty" koanf:"count"`
	Pairs  bool   `json:"pairs,omitempty" koanf:"pairs"`
}

// Entry is one visibility notification.
type Entry struct {
	Target       string
	Intersecting bool
	Ratio        float64
}

// qualifies reports whether the entry should trigger hydration.
func (e Entry) qualifies() bool {
	return e.Intersecting || e.Ratio > 0
}

// Options parameterize visibility observation.
type Options struct {
	// Margin extends the viewport so hydration starts slightly early,
	// in CSS margin syntax.
	Margin string
	// Threshold is the minimum visible fraction.
	Threshold float64
	// GroupLimit caps how many pipelines of one group run at once. Zero
	// runs the whole group together.
	GroupLimit int
}

// DefaultOptions render 200px ahead of the viewport at 1% visibility.
var DefaultOptions = Options{Margin: "200px 0px", Threshold: 0.01}

// Notifier delivers visibility entries for an observed target until stop
// is called.
type Notifier interface {
	Observe(target string, opts Options, fn func(Entry)) (stop func())
}

// HydrateFunc runs discovery and mounts controllers for one card.
type HydrateFunc func(ctx context.Context, card Card)

// Scheduler subscribes cards to a Notifier and hydrates each card once.
// Started pipelines always run to completion.
type Scheduler struct {
	notifier Notifier
	opts     Options
	hydrate  HydrateFunc
	log      discovery.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	running int
}

// NewScheduler creates a scheduler. Unset Margin and Threshold take their
// DefaultOptions values.
func NewScheduler(n Notifier, opts Options, fn HydrateFunc, log discovery.Logger) *Scheduler {
	if opts.Margin == "" {
		opts.Margin = DefaultOptions.Margin
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultOptions.Threshold
	}
	if log == nil {
		log = discovery.Nop()
	}
	s := &Scheduler{notifier: n, opts: opts, hydrate: fn, log: log}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// spawn runs fn on its own goroutine and counts it as running until it
// returns.
func (s *Scheduler) spawn(fn func()) {
	s.mu.Lock()
	s.running++
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			s.running--
			if s.running == 0 {
				s.idle.Broadcast()
			}
			s.mu.Unlock()
		}()
		fn()
	}()
}

// once observes target and calls fire on the first qualifying entry,
// stopping observation before fire runs.
func (s *Scheduler) once(target string, fire func()) {
	var (
		mu    sync.Mutex
		fired bool
		stop  func()
	)
	stopFn := s.notifier.Observe(target, s.opts, func(e Entry) {
		if !e.qualifies() {
			return
		}
		mu.Lock()
		if fired {
			mu.Unlock()
			return
		}
		fired = true
		st := stop
		mu.Unlock()
		if st != nil {
			st()
		}
		s.spawn(fire)
	})
	mu.Lock()
	stop = stopFn
	already := fired
	mu.Unlock()
	if already {
		stopFn()
	}
}

// Watch hydrates card the first time it becomes visible.
func (s *Scheduler) Watch(ctx context.Context, card Card) {
	s.once(card.ID, func() {
		s.log.Debugf("hydrate: card %s (%s) visible", card.ID, card.Folder)
		s.hydrate(ctx, card)
	})
}

// WatchGroup observes a shared container and hydrates every card in it
// concurrently when the container becomes visible, at most
// Options.GroupLimit at a time.
func (s *Scheduler) WatchGroup(ctx context.Context, container string, cards []Card) {
	group := append([]Card(nil), cards...)
	s.once(container, func() {
		s.log.Debugf("hydrate: group %s visible (%d cards)", container, len(group))
		var g errgroup.Group
		if s.opts.GroupLimit > 0 {
			g.SetLimit(s.opts.GroupLimit)
		}
		for _, c := range group {
			g.Go(func() error {
				s.hydrate(ctx, c)
				return nil
			})
		}
		// Pipelines absorb their own failures; Wait only joins them.
		_ = g.Wait()
	})
}

// Wait blocks until no pipeline is running. It is safe to call while new
// cards are still becoming visible; pipelines started during the wait are
// waited for too.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.running > 0 {
		s.idle.Wait()
	}
}

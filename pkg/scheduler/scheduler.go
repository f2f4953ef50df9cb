package scheduler

import (
	"context"
	"time"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Scheduler runs interval jobs until Stop. Used for the location
// reporting tick and the periodic full refresh of the alert view.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

func (s *Scheduler) Stop() { s.cancel() }

func (s *Scheduler) Every(d time.Duration, job Job) { go s.loopEvery(d, job) }

func (s *Scheduler) OnceAfter(d time.Duration, job Job) { go s.onceAfter(d, job) }

func (s *Scheduler) loopEvery(d time.Duration, job Job) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			job.Run(s.ctx)
		}
	}
}

func (s *Scheduler) onceAfter(d time.Duration, job Job) {
	select {
	case <-s.ctx.Done():
		return
	case <-time.After(d):
		job.Run(s.ctx)
	}
}

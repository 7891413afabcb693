package tasks

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type SchedulerInterface interface {
	Start()
	Stop()
}

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler triggers RunAll on a fixed interval. A tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	orchestrator OrchestratorInterface
	interval     time.Duration
	runOnStartup bool
	running      atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewScheduler(orchestrator OrchestratorInterface, interval time.Duration, runOnStartup bool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		runOnStartup: runOnStartup,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (s *Scheduler) Start() {
	slog.Info("Scheduler started", "interval", s.interval.String(), "run_on_startup", s.runOnStartup)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.runOnStartup {
			s.trigger()
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.trigger()
			}
		}
	}()
}

// Stop cancels the in-flight run, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) trigger() {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("Previous scheduled run still in progress, skipping tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		s.orchestrator.RunAll(s.ctx)
	}()
}

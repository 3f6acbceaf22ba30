package workers

import (
	"chat-sync/contract"
	"chat-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultRestartInterval = 200 * time.Millisecond

// Supervisor Own a context and a Cancel function
// Run each worker in a goroutine
// Check panics and errors
// Restart workers automatically
// Shutdown properly if parent context is canceled
// Wait for the end of all goroutines via WaitGroup
type Supervisor struct {
	mu              sync.Mutex
	cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	restartInterval time.Duration
	onRestart       func(name string)
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// OnRestart registers a callback invoked each time a crashed worker is restarted.
func (s *Supervisor) OnRestart(fn func(name string)) *Supervisor {
	s.onRestart = fn
	return s
}

// Context returns a supervision context derived from parent.
// If the parent cancels, we cancel. If Stop is called, only our children cancel.
func (s *Supervisor) Context(parent context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithCancel(parent)
	if s.cancel != nil {
		prev := s.cancel
		s.cancel = func() { prev(); cancel() }
	} else {
		s.cancel = cancel
	}
	return ctx
}

// Start runs a worker under supervision.
// The worker is executed in a dedicated goroutine. If its Run method panics
// or fails, the supervisor recovers and restarts it after the restart
// interval. A failure in one worker must not stop the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Debug(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				// Terminated properly, never restart !
				s.log.Debug(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Debug("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				// Context canceled: priority stop.
				return
			case <-time.After(s.restartInterval):
			}
			if s.onRestart != nil {
				s.onRestart(workerName)
			}
		}
	}()
}

// Stop Cancel all goroutines listening channel for Ctx.Done
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until every started worker returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/family-finance/internal/logger"
)

// sideEffects runs non-critical work (alerts, metrics) so that failures and
// panics are logged and never reach the caller.
type sideEffects struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// Do runs fn inline.
func (s *sideEffects) Do(ctx context.Context, what string, fn func(context.Context) error) {
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("side_effect", what).Interface("panic", r).Msg("Best-effort side effect panicked")
		}
	}()
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("side_effect", what).Msg("Best-effort side effect failed")
	}
}

// Go runs fn in the background, detached from ctx cancellation.
func (s *sideEffects) Go(ctx context.Context, what string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			detached, cancel = context.WithTimeout(detached, s.timeout)
			defer cancel()
		}
		s.Do(detached, what, fn)
	}()
}

// Wait blocks until every background side effect has finished.
func (s *sideEffects) Wait() { s.wg.Wait() }

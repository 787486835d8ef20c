package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval is how often expired sessions are purged
const DefaultSweepInterval = time.Hour

type expiredSessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically purges expired sessions in the background
type SessionSweeper struct {
	sessions expiredSessionCleaner
	interval time.Duration
	cancel   context.CancelFunc
	done     sync.WaitGroup
	mu       sync.Mutex
}

// NewSessionSweeper creates a sweeper. A non-positive interval means
// DefaultSweepInterval.
func NewSessionSweeper(sessions expiredSessionCleaner, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{sessions: sessions, interval: interval}
}

// Sweep runs one cleanup pass
func (s *SessionSweeper) Sweep(ctx context.Context) {
	if _, err := s.sessions.CleanupExpired(ctx); err != nil {
		log.Error().Err(err).Msg("Session sweep failed")
	}
}

// Start launches the sweep loop. It returns immediately; the loop ends when
// ctx is cancelled or Stop is called.
func (s *SessionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(s.interval)

	s.done.Add(1)
	go func() {
		defer s.done.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping session sweeper")
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
	log.Info().Dur("interval", s.interval).Msg("Started session sweeper")
}

// Stop ends the sweep loop and waits for it to exit
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.done.Wait()
}

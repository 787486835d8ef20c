package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
)

// CacheInvalidationService clears cached month listings whenever a
// discovery run announces new or refreshed events
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	patterns []string
	ctx      context.Context
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service that
// deletes every key matching patterns on each discovery event
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, patterns ...string) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		patterns: patterns,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for discovery events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelDiscovery)
	if err != nil {
		return fmt.Errorf("failed to subscribe to discovery events: %w", err)
	}

	s.done.Add(1)
	go s.processEvents(eventChan)
	log.Info().Strs("patterns", s.patterns).Msg("Cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the listener to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.done.Wait()
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.DiscoveryEvent) {
	defer s.done.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.DiscoveryEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("location", event.Location).
		Str("platform", string(event.Platform)).
		Msg("Processing cache invalidation")

	if err := s.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to invalidate event caches")
	}
}

// Invalidate deletes every key matching the configured patterns
func (s *CacheInvalidationService) Invalidate(ctx context.Context) error {
	for _, pattern := range s.patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
		log.Debug().Str("pattern", pattern).Msg("Invalidated cache pattern")
	}
	return nil
}

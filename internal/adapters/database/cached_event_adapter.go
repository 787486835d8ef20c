package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
)

// MonthCachePattern matches every cached month listing
const MonthCachePattern = "events:month:*"

// CachedEventAdapter wraps an EventRepository with a cache-aside month listing
type CachedEventAdapter struct {
	adapter repositories.EventRepository
	cache   providers.CacheProvider
	ttl     int
}

// NewCachedEventAdapter creates a new cached event adapter. Month listings
// live for ttl; writes go straight through.
func NewCachedEventAdapter(adapter repositories.EventRepository, cache providers.CacheProvider, ttl time.Duration) *CachedEventAdapter {
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 120
	}
	return &CachedEventAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     seconds,
	}
}

var _ repositories.EventRepository = (*CachedEventAdapter)(nil)

func monthCacheKey(filter repositories.MonthFilter) string {
	return fmt.Sprintf("events:month:%s:%s:%d:%s:%s",
		filter.From.UTC().Format("2006-01-02"),
		filter.To.UTC().Format("2006-01-02"),
		filter.MinRelevanceScore,
		url.QueryEscape(strings.ToLower(strings.TrimSpace(filter.Location))),
		filter.Category,
	)
}

// Upsert writes through to the underlying adapter
func (a *CachedEventAdapter) Upsert(ctx context.Context, event *entities.Event) (*entities.Event, entities.UpsertStatus, error) {
	return a.adapter.Upsert(ctx, event)
}

// GetByID reads through to the underlying adapter
func (a *CachedEventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	return a.adapter.GetByID(ctx, id)
}

// ListForMonth serves a month listing from cache when present
func (a *CachedEventAdapter) ListForMonth(ctx context.Context, filter repositories.MonthFilter) ([]*entities.Event, error) {
	key := monthCacheKey(filter)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var events []*entities.Event
		if err := json.Unmarshal(cached, &events); err == nil {
			return events, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached month listing")
	}

	events, err := a.adapter.ListForMonth(ctx, filter)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(events); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache month listing")
		}
	}
	return events, nil
}

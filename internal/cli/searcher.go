package cli

import (
	"context"
	"sync"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/perplexity"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// lazySearcher builds the Perplexity client on first use, so commands that
// only read the store run without an API key.
type lazySearcher struct {
	cfg *config.PerplexityConfig

	once   sync.Once
	client providers.EventSearchProvider
	err    error
}

func newLazySearcher(cfg *config.PerplexityConfig) *lazySearcher {
	return &lazySearcher{cfg: cfg}
}

func (l *lazySearcher) get() (providers.EventSearchProvider, error) {
	l.once.Do(func() {
		l.client, l.err = perplexity.NewClient(l.cfg, nil)
	})
	return l.client, l.err
}

func (l *lazySearcher) SearchEvents(ctx context.Context, location string, platform entities.Platform, dateRange string) ([]*entities.Candidate, error) {
	client, err := l.get()
	if err != nil {
		return nil, err
	}
	return client.SearchEvents(ctx, location, platform, dateRange)
}

func (l *lazySearcher) ClassifyEvent(ctx context.Context, candidate *entities.Candidate) (*entities.Classification, error) {
	client, err := l.get()
	if err != nil {
		return nil, err
	}
	return client.ClassifyEvent(ctx, candidate)
}

package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// ErrSearchUnavailable is returned when no search query produced a response
var ErrSearchUnavailable = errors.New("event search unavailable")

// EventSearchProvider finds and classifies candidate events through an
// external language-model API
type EventSearchProvider interface {
	// SearchEvents returns deduplicated candidates that classified as
	// relevant. Each returned candidate carries its Classification.
	SearchEvents(ctx context.Context, location string, platform entities.Platform, dateRange string) ([]*entities.Candidate, error)

	// ClassifyEvent scores one candidate. Unparseable model output yields
	// entities.FallbackClassification rather than an error.
	ClassifyEvent(ctx context.Context, candidate *entities.Candidate) (*entities.Classification, error)
}

package repositories

import (
	"context"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// DiscoveryLogRepository defines the interface for discovery run records
type DiscoveryLogRepository interface {
	Create(ctx context.Context, log *entities.EventDiscoveryLog) error

	// ListRecent returns up to limit rows, newest first
	ListRecent(ctx context.Context, limit int) ([]*entities.EventDiscoveryLog, error)
}

// UsageLogRepository defines the interface for API usage records
type UsageLogRepository interface {
	Create(ctx context.Context, log *entities.APIUsageLog) error
}

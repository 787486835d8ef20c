package entities

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveryEventType identifies a message on the discovery channel
type DiscoveryEventType string

const (
	DiscoveryEventCompleted DiscoveryEventType = "discovery_completed"
)

// DiscoveryEvent announces that a discovery run changed the event table
type DiscoveryEvent struct {
	ID        string             `json:"id"`
	Type      DiscoveryEventType `json:"type"`
	Location  string             `json:"location"`
	Platform  Platform           `json:"platform"`
	Month     int                `json:"month"`
	Year      int                `json:"year"`
	Created   int                `json:"created"`
	Updated   int                `json:"updated"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewDiscoveryEvent creates a completion event for a run
func NewDiscoveryEvent(location string, platform Platform, month, year, created, updated int) *DiscoveryEvent {
	return &DiscoveryEvent{
		ID:        uuid.NewString(),
		Type:      DiscoveryEventCompleted,
		Location:  location,
		Platform:  platform,
		Month:     month,
		Year:      year,
		Created:   created,
		Updated:   updated,
		Timestamp: time.Now().UTC(),
	}
}

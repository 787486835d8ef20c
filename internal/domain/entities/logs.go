package entities

import (
	"encoding/json"
	"time"
)

// EventDiscoveryLog records one discovery invocation. Rows are append-only.
type EventDiscoveryLog struct {
	ID               string    `json:"id" db:"id"`
	SearchQuery      string    `json:"search_query" db:"search_query"`
	Platform         string    `json:"platform" db:"platform"`
	Location         string    `json:"location" db:"location"`
	EventsFound      int       `json:"events_found" db:"events_found"`
	EventsClassified int       `json:"events_classified" db:"events_classified"`
	ExecutionTime    float64   `json:"execution_time" db:"execution_time"`
	Success          bool      `json:"success" db:"success"`
	ErrorMessage     string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// APIUsageLog records one API request
type APIUsageLog struct {
	ID             string          `json:"id" db:"id"`
	Endpoint       string          `json:"endpoint" db:"endpoint"`
	Method         string          `json:"method" db:"method"`
	SessionID      string          `json:"session_id,omitempty" db:"session_id"`
	RequestData    json.RawMessage `json:"request_data,omitempty" db:"request_data"`
	ResponseStatus int             `json:"response_status" db:"response_status"`
	ResponseTime   float64         `json:"response_time" db:"response_time"`
	Timestamp      time.Time       `json:"timestamp" db:"timestamp"`
}

package entities

import (
	"strings"
	"time"
)

// Category is the closed set of event categories
type Category string

const (
	CategoryConference Category = "Conference"
	CategoryWorkshop   Category = "Workshop"
	CategoryNetworking Category = "Networking"
	CategoryTalk       Category = "Talk"
	CategoryHackathon  Category = "Hackathon"
	CategoryOther      Category = "Other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryConference,
	CategoryWorkshop,
	CategoryNetworking,
	CategoryTalk,
	CategoryHackathon,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against the known categories
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory returns the matching category or CategoryOther
func NormalizeCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}

// Platform is an event-hosting site the discovery pipeline targets
type Platform string

const (
	PlatformLuma   Platform = "luma"
	PlatformMeetup Platform = "meetup"
)

// Platforms lists the supported platforms
var Platforms = []Platform{PlatformLuma, PlatformMeetup}

// ParsePlatform validates a platform name
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// DefaultSourceURL is used when a candidate has no URL of its own
func (p Platform) DefaultSourceURL() string {
	return "https://" + string(p) + ".com"
}

// EventType describes how an event is attended
type EventType string

const (
	EventTypeOnline   EventType = "online"
	EventTypeInPerson EventType = "in-person"
	EventTypeHybrid   EventType = "hybrid"
	EventTypeUnknown  EventType = "unknown"
)

// NormalizeEventType maps free text onto the EventType set
func NormalizeEventType(s string) EventType {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventTypeOnline:
		return EventTypeOnline
	case EventTypeInPerson, "in person", "inperson":
		return EventTypeInPerson
	case EventTypeHybrid:
		return EventTypeHybrid
	default:
		return EventTypeUnknown
	}
}

// LocationOnline is the location sentinel for virtual events
const LocationOnline = "Online"

// Event is a discovered, classified event. Events are never hard-deleted;
// IsActive hides them from queries.
type Event struct {
	ID               string    `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	DateTime         time.Time `json:"dateTime" db:"date_time"`
	Location         string    `json:"location" db:"location"`
	SourceURL        string    `json:"sourceUrl" db:"source_url"`
	Platform         Platform  `json:"platform" db:"platform"`
	Category         Category  `json:"category" db:"category"`
	AIRelevanceScore int       `json:"aiRelevanceScore" db:"ai_relevance_score"`
	Tags             []string  `json:"tags" db:"tags"`
	Organizer        string    `json:"organizer" db:"organizer"`
	EventType        EventType `json:"eventType" db:"event_type"`
	Price            float64   `json:"price" db:"price"`
	MaxAttendees     *int      `json:"maxAttendees,omitempty" db:"max_attendees"`
	IsActive         bool      `json:"-" db:"is_active"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// EventListing is an Event annotated for one session
type EventListing struct {
	Event
	IsWatched bool `json:"isWatched"`
}

// UpsertStatus reports what a discovery upsert did with a candidate
type UpsertStatus string

const (
	UpsertCreated UpsertStatus = "created"
	UpsertUpdated UpsertStatus = "updated"
)

// EventSummary is the compact record returned by a discovery run
type EventSummary struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Category         Category     `json:"category"`
	AIRelevanceScore int          `json:"aiRelevanceScore"`
	DateTime         time.Time    `json:"dateTime"`
	Status           UpsertStatus `json:"status"`
}

// Summarize builds the discovery summary of e
func (e *Event) Summarize(status UpsertStatus) EventSummary {
	return EventSummary{
		ID:               e.ID,
		Title:            e.Title,
		Category:         e.Category,
		AIRelevanceScore: e.AIRelevanceScore,
		DateTime:         e.DateTime,
		Status:           status,
	}
}

// MonthWindow returns the half-open UTC interval [start, end) covering month/year
func MonthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

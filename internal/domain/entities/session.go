package entities

import "time"

// SessionLifetime is how long a session lives after creation. Activity
// does not extend it.
const SessionLifetime = 30 * 24 * time.Hour

// Recognized preference keys
const (
	PrefLocation          = "location"
	PrefCategories        = "categories"
	PrefMinRelevanceScore = "min_relevance_score"
	PrefPlatform          = "platform"
	PrefNotifications     = "notifications"
	PrefTheme             = "theme"
)

// Preferences is the per-session settings document. Updates merge
// shallowly: a key present in the update replaces the stored value.
type Preferences map[string]any

// DefaultPreferences returns the settings a new session starts with
func DefaultPreferences(location string) Preferences {
	if location == "" {
		location = LocationOnline
	}
	return Preferences{
		PrefLocation: location,
		PrefCategories: []string{
			string(CategoryConference),
			string(CategoryWorkshop),
			string(CategoryNetworking),
			string(CategoryTalk),
			string(CategoryHackathon),
		},
		PrefMinRelevanceScore: 5,
		PrefPlatform:          string(PlatformLuma),
		PrefNotifications:     true,
		PrefTheme:             "dark",
	}
}

// Merge returns a copy of p with every key of update applied over it
func (p Preferences) Merge(update Preferences) Preferences {
	merged := make(Preferences, len(p)+len(update))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// String returns the string stored under key, or ""
func (p Preferences) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Int returns the integer stored under key. JSON round trips turn numbers
// into float64, so both forms are accepted.
func (p Preferences) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// UserSession is an anonymous cookie-identified visitor
type UserSession struct {
	SessionID   string      `json:"session_id" db:"session_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	LastActive  time.Time   `json:"last_active" db:"last_active"`
	Location    string      `json:"location" db:"location"`
	Preferences Preferences `json:"preferences" db:"preferences"`
}

// ExpiresAt returns the instant the session stops being valid
func (s *UserSession) ExpiresAt() time.Time {
	return s.CreatedAt.Add(SessionLifetime)
}

// IsExpired reports whether the session has outlived SessionLifetime at now
func (s *UserSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

// ShortID is the session identifier prefix safe to log and return to clients
func ShortID(sessionID string) string {
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8]
}

// SessionStats summarises a session for the stats endpoint
type SessionStats struct {
	SessionID          string      `json:"session_id"`
	CreatedAt          time.Time   `json:"created_at"`
	LastActive         time.Time   `json:"last_active"`
	SessionAgeDays     int         `json:"session_age_days"`
	WatchedEventsCount int         `json:"watched_events_count"`
	Location           string      `json:"location"`
	Preferences        Preferences `json:"preferences"`
}

// WatchedEvent links a session to an event it saved
type WatchedEvent struct {
	SessionID string    `json:"session_id" db:"session_id"`
	EventID   string    `json:"event_id" db:"event_id"`
	WatchedAt time.Time `json:"watched_at" db:"watched_at"`
	Rating    *int      `json:"rating,omitempty" db:"rating"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
}

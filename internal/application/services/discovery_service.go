package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// DiscoverRequest names the location and month a discovery run targets.
// Zero Month or Year default to the current date; an empty Platform
// defaults to the service's default platform.
type DiscoverRequest struct {
	Location string
	Platform string
	Month    int
	Year     int
}

// DiscoveryResult is the outcome of a successful discovery run
type DiscoveryResult struct {
	Platform  entities.Platform       `json:"platform"`
	Month     int                     `json:"month"`
	Year      int                     `json:"year"`
	DateRange string                  `json:"dateRange"`
	Events    []entities.EventSummary `json:"events"`
	Created   int                     `json:"created"`
	Updated   int                     `json:"updated"`

	Log *entities.EventDiscoveryLog `json:"-"`
}

// DiscoveryService searches for events, classifies them and stores the
// relevant ones
type DiscoveryService struct {
	searcher        providers.EventSearchProvider
	events          repositories.EventRepository
	logs            repositories.DiscoveryLogRepository
	bus             providers.EventBus
	metrics         *observability.Metrics
	defaultPlatform entities.Platform
	now             func() time.Time
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(searcher providers.EventSearchProvider, events repositories.EventRepository, logs repositories.DiscoveryLogRepository) *DiscoveryService {
	return &DiscoveryService{
		searcher:        searcher,
		events:          events,
		logs:            logs,
		defaultPlatform: entities.PlatformLuma,
		now:             time.Now,
	}
}

// WithEventBus publishes a completion event after every successful run
func (s *DiscoveryService) WithEventBus(bus providers.EventBus) *DiscoveryService {
	s.bus = bus
	return s
}

// WithMetrics records run metrics
func (s *DiscoveryService) WithMetrics(metrics *observability.Metrics) *DiscoveryService {
	s.metrics = metrics
	return s
}

// WithDefaultPlatform sets the platform used when a request names none
func (s *DiscoveryService) WithDefaultPlatform(platform entities.Platform) *DiscoveryService {
	if platform != "" {
		s.defaultPlatform = platform
	}
	return s
}

// WithClock replaces the service clock
func (s *DiscoveryService) WithClock(now func() time.Time) *DiscoveryService {
	s.now = now
	return s
}

// SupportedPlatforms returns the platforms a run may target
func (s *DiscoveryService) SupportedPlatforms() []entities.Platform {
	return entities.Platforms
}

// Discover runs one discovery pass. Per-candidate problems are logged and
// skipped; a failed search fails the run. Either way one discovery log row
// is written.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoverRequest) (*DiscoveryResult, error) {
	platform, err := s.resolvePlatform(req.Platform)
	if err != nil {
		return nil, err
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, apperrors.NewValidationError("location is required")
	}

	month, year, err := s.resolveMonth(req.Month, req.Year)
	if err != nil {
		return nil, err
	}

	start, _ := entities.MonthWindow(year, month)
	dateRange := "from " + start.Format("January 2006")

	ctx, span := observability.StartSpan(ctx, "DiscoveryService.Discover")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	logger.Info().
		Str("location", location).
		Str("platform", string(platform)).
		Str("date_range", dateRange).
		Msg("Starting event discovery")

	began := s.now()
	runLog := &entities.EventDiscoveryLog{
		SearchQuery: fmt.Sprintf("%s %s %s", location, platform, dateRange),
		Platform:    string(platform),
		Location:    location,
	}

	candidates, err := s.searcher.SearchEvents(ctx, location, platform, dateRange)
	if err != nil {
		runLog.Success = false
		runLog.ErrorMessage = err.Error()
		runLog.ExecutionTime = s.now().Sub(began).Seconds()
		s.persistLog(ctx, runLog)

		observability.RecordError(span, err)
		observability.RecordDiscoveryMetric(ctx, s.metrics, string(platform), false, 0, s.now().Sub(began))
		logger.Error().Err(err).Msg("Event discovery failed")
		return nil, apperrors.NewExternalError("event search failed", err)
	}

	result := &DiscoveryResult{
		Platform:  platform,
		Month:     month,
		Year:      year,
		DateRange: dateRange,
		Events:    make([]entities.EventSummary, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		event, ok := s.toEvent(candidate, platform)
		if !ok {
			continue
		}

		stored, status, err := s.events.Upsert(ctx, event)
		if err != nil {
			logger.Error().Err(err).Str("title", event.Title).Msg("Failed to store event")
			continue
		}
		if status == entities.UpsertCreated {
			result.Created++
		} else {
			result.Updated++
		}
		result.Events = append(result.Events, stored.Summarize(status))
	}

	runLog.EventsFound = len(candidates)
	runLog.EventsClassified = result.Created + result.Updated
	runLog.Success = true
	runLog.ExecutionTime = s.now().Sub(began).Seconds()
	s.persistLog(ctx, runLog)
	result.Log = runLog

	observability.RecordDiscoveryMetric(ctx, s.metrics, string(platform), true, len(result.Events), s.now().Sub(began))
	logger.Info().
		Int("events_found", runLog.EventsFound).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Event discovery completed")

	s.publish(ctx, location, platform, result)
	return result, nil
}

// RecentRuns returns the latest discovery log rows, newest first
func (s *DiscoveryService) RecentRuns(ctx context.Context, limit int) ([]*entities.EventDiscoveryLog, error) {
	return s.logs.ListRecent(ctx, limit)
}

func (s *DiscoveryService) resolvePlatform(name string) (entities.Platform, error) {
	if strings.TrimSpace(name) == "" {
		return s.defaultPlatform, nil
	}
	platform, ok := entities.ParsePlatform(name)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("Platform %s not supported. Use one of: %v", name, entities.Platforms))
	}
	return platform, nil
}

func (s *DiscoveryService) resolveMonth(month, year int) (int, int, error) {
	now := s.now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return 0, 0, apperrors.NewValidationError("month must be between 1 and 12")
	}
	if year < 1 {
		return 0, 0, apperrors.NewValidationError("year must be positive")
	}
	return month, year, nil
}

// toEvent builds the storable event for a classified candidate. Candidates
// without a title or a parseable date are dropped.
func (s *DiscoveryService) toEvent(c *entities.Candidate, platform entities.Platform) (*entities.Event, bool) {
	title := strings.TrimSpace(c.Title.String())
	if title == "" {
		return nil, false
	}

	raw := c.When()
	if raw == "" {
		log.Warn().Str("title", title).Msg("Dropping event without a date")
		return nil, false
	}
	at, err := parseEventDate(raw)
	if err != nil {
		log.Warn().Err(err).Str("title", title).Str("date", raw).Msg("Failed to parse event date")
		return nil, false
	}

	classification := c.Classification
	if classification == nil {
		classification = entities.FallbackClassification()
	}

	location := strings.TrimSpace(c.Location.String())
	if location == "" {
		location = entities.LocationOnline
	}
	sourceURL := strings.TrimSpace(c.URL.String())
	if sourceURL == "" {
		sourceURL = platform.DefaultSourceURL()
	}
	tags := classification.Tags
	if tags == nil {
		tags = []string{}
	}

	return &entities.Event{
		Title:            title,
		Description:      strings.TrimSpace(c.Description.String()),
		DateTime:         at.UTC(),
		Location:         location,
		SourceURL:        sourceURL,
		Platform:         platform,
		Category:         entities.NormalizeCategory(string(classification.Category)),
		AIRelevanceScore: classification.AIRelevanceScore,
		Tags:             tags,
		Organizer:        strings.TrimSpace(c.Organizer.String()),
		EventType:        entities.NormalizeEventType(string(classification.EventType)),
		Price:            c.PriceValue(),
	}, true
}

// parseEventDate parses raw in UTC, retrying without a leading weekday
// ("Saturday, March 15, 2026") when the first attempt fails.
func parseEventDate(raw string) (time.Time, error) {
	at, err := dateparse.ParseIn(raw, time.UTC)
	if err == nil {
		return at, nil
	}
	if rest, ok := stripWeekday(raw); ok {
		if at, retryErr := dateparse.ParseIn(rest, time.UTC); retryErr == nil {
			return at, nil
		}
	}
	return time.Time{}, err
}

func stripWeekday(raw string) (string, bool) {
	head, rest, found := strings.Cut(strings.TrimSpace(raw), " ")
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		return "", false
	}
	head = strings.ToLower(strings.TrimRight(head, ",."))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if head == name || head == name[:3] || (len(head) > 3 && strings.HasPrefix(name, head)) {
			return rest, true
		}
	}
	return "", false
}

func (s *DiscoveryService) persistLog(ctx context.Context, runLog *entities.EventDiscoveryLog) {
	runLog.CreatedAt = s.now().UTC()
	if err := s.logs.Create(ctx, runLog); err != nil {
		log.Error().Err(err).Msg("Failed to store discovery log")
	}
}

func (s *DiscoveryService) publish(ctx context.Context, location string, platform entities.Platform, result *DiscoveryResult) {
	if s.bus == nil || len(result.Events) == 0 {
		return
	}
	event := entities.NewDiscoveryEvent(location, platform, result.Month, result.Year, result.Created, result.Updated)
	if err := s.bus.Publish(ctx, providers.EventChannelDiscovery, event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish discovery event")
	}
}

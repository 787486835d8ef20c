package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/database"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

func newTestStore(t *testing.T) *sqlite.Client {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewClient(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, database.Migrate(ctx, client))
	return client
}

func newEvent(title string, at time.Time) *entities.Event {
	return &entities.Event{
		Title:            title,
		Description:      "An evening of talks",
		DateTime:         at,
		Location:         "San Francisco, CA",
		SourceURL:        "https://lu.ma/example",
		Platform:         entities.PlatformLuma,
		Category:         entities.CategoryTalk,
		AIRelevanceScore: 7,
		Tags:             []string{"technical", "llm"},
		Organizer:        "SF AI Club",
		EventType:        entities.EventTypeInPerson,
		Price:            25,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	client := newTestStore(t)
	require.NoError(t, database.Migrate(context.Background(), client))

	var count int
	require.NoError(t, client.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestEventAdapter_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	adapter := database.NewEventAdapter(newTestStore(t))
	at := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	first, status, err := adapter.Upsert(ctx, newEvent("AI Summit", at))
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertCreated, status)
	assert.NotEmpty(t, first.ID)

	again := newEvent("AI Summit", at)
	again.AIRelevanceScore = 9
	again.Description = "changed"
	second, status, err := adapter.Upsert(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertUpdated, status)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 9, second.AIRelevanceScore)

	stored, err := adapter.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.AIRelevanceScore)
	assert.Equal(t, "An evening of talks", stored.Description)
	assert.Equal(t, []string{"technical", "llm"}, stored.Tags)
	assert.True(t, stored.IsActive)
	assert.True(t, stored.DateTime.Equal(at))

	other := newEvent("AI Summit", at)
	other.Platform = entities.PlatformMeetup
	third, status, err := adapter.Upsert(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertCreated, status)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestEventAdapter_GetByIDNotFound(t *testing.T) {
	adapter := database.NewEventAdapter(newTestStore(t))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEventAdapter_ListForMonthWindow(t *testing.T) {
	ctx := context.Background()
	adapter := database.NewEventAdapter(newTestStore(t))

	fixtures := map[string]time.Time{
		"before":    time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC),
		"first":     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"last day":  time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		"mid month": time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		"after":     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for title, at := range fixtures {
		_, _, err := adapter.Upsert(ctx, newEvent(title, at))
		require.NoError(t, err)
	}

	from, to := entities.MonthWindow(2026, 3)
	events, err := adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 5})
	require.NoError(t, err)

	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"first", "mid month", "last day"}, titles)
}

func TestEventAdapter_ListForMonthLocationIsLiteral(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	adapter := database.NewEventAdapter(client)
	day := time.Date(2026, 5, 20, 17, 0, 0, 0, time.UTC)

	percent := newEvent("Percent venue", day)
	percent.Location = "Hall 50% Off, Berlin"
	fifty := newEvent("Fifty venue", day)
	fifty.Location = "Hall 500, Berlin"
	under := newEvent("Underscore venue", day)
	under.Location = `Room_A\B, Berlin`

	for _, e := range []*entities.Event{percent, fifty, under, newEvent("Plain", day)} {
		_, _, err := adapter.Upsert(ctx, e)
		require.NoError(t, err)
	}
	from, to := entities.MonthWindow(2026, 5)

	for _, tc := range []struct {
		location string
		want     []string
	}{
		{location: "_", want: []string{"Underscore venue"}},
		{location: "%", want: []string{"Percent venue"}},
		{location: "50%", want: []string{"Percent venue"}},
		{location: `a\b`, want: []string{"Underscore venue"}},
		{location: "hall 5_0", want: nil},
	} {
		events, err := adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 1, Location: tc.location})
		require.NoError(t, err, tc.location)
		var titles []string
		for _, e := range events {
			titles = append(titles, e.Title)
		}
		assert.Equal(t, tc.want, titles, tc.location)
	}
}

func TestEventAdapter_ListForMonthFilters(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	adapter := database.NewEventAdapter(client)
	day := time.Date(2026, 5, 20, 17, 0, 0, 0, time.UTC)

	low := newEvent("Low score", day)
	low.AIRelevanceScore = 4
	online := newEvent("Online workshop", day)
	online.Location = entities.LocationOnline
	online.Category = entities.CategoryWorkshop
	top := newEvent("Top talk", day)
	top.AIRelevanceScore = 10
	hidden := newEvent("Hidden", day)

	for _, e := range []*entities.Event{low, online, top, hidden, newEvent("Regular talk", day)} {
		_, _, err := adapter.Upsert(ctx, e)
		require.NoError(t, err)
	}
	_, err := client.DB().Exec("UPDATE events SET is_active = 0 WHERE title = 'Hidden'")
	require.NoError(t, err)

	from, to := entities.MonthWindow(2026, 5)

	events, err := adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 5})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Top talk", events[0].Title, "ties on date_time order by score descending")

	events, err = adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 5, Location: "san FRAN"})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 5, Category: entities.CategoryWorkshop})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Online workshop", events[0].Title)

	events, err = adapter.ListForMonth(ctx, repositories.MonthFilter{From: from, To: to, MinRelevanceScore: 1})
	require.NoError(t, err)
	assert.Len(t, events, 4)

	empty, err := adapter.ListForMonth(ctx, repositories.MonthFilter{From: to, To: to.AddDate(0, 1, 0), MinRelevanceScore: 5})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func newSession(id string, created time.Time) *entities.UserSession {
	return &entities.UserSession{
		SessionID:   id,
		CreatedAt:   created,
		LastActive:  created,
		Location:    "Berlin",
		Preferences: entities.DefaultPreferences("Berlin"),
	}
}

func TestSessionAdapter_Lifecycle(t *testing.T) {
	ctx := context.Background()
	adapter := database.NewSessionAdapter(newTestStore(t))
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, adapter.Create(ctx, newSession("session-1", created)))

	err := adapter.Create(ctx, newSession("session-1", created))
	assert.True(t, apperrors.IsConflict(err))

	session, err := adapter.GetByID(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", session.Location)
	assert.True(t, session.CreatedAt.Equal(created))
	score, ok := session.Preferences.Int(entities.PrefMinRelevanceScore)
	assert.True(t, ok)
	assert.Equal(t, 5, score)

	touched := created.Add(time.Hour)
	require.NoError(t, adapter.Touch(ctx, "session-1", touched))

	prefs := session.Preferences.Merge(entities.Preferences{entities.PrefTheme: "light", entities.PrefLocation: "Munich"})
	ok, err = adapter.UpdatePreferences(ctx, "session-1", prefs, "Munich")
	require.NoError(t, err)
	assert.True(t, ok)

	session, err = adapter.GetByID(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, session.LastActive.Equal(touched))
	assert.Equal(t, "Munich", session.Location)
	assert.Equal(t, "light", session.Preferences.String(entities.PrefTheme))

	ok, err = adapter.UpdatePreferences(ctx, "missing", prefs, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.Delete(ctx, "session-1"))
	_, err = adapter.GetByID(ctx, "session-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionAdapter_DeleteCreatedBeforeRemovesWatches(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	sessions := database.NewSessionAdapter(client)
	watches := database.NewWatchAdapter(client)
	events := database.NewEventAdapter(client)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sessions.Create(ctx, newSession("old", now.Add(-31*24*time.Hour))))
	require.NoError(t, sessions.Create(ctx, newSession("fresh", now.Add(-time.Hour))))

	event, _, err := events.Upsert(ctx, newEvent("Watched", now))
	require.NoError(t, err)
	require.NoError(t, watches.Add(ctx, &entities.WatchedEvent{SessionID: "old", EventID: event.ID, WatchedAt: now}))
	require.NoError(t, watches.Add(ctx, &entities.WatchedEvent{SessionID: "fresh", EventID: event.ID, WatchedAt: now}))

	deleted, err := sessions.DeleteCreatedBefore(ctx, now.Add(-entities.SessionLifetime))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = sessions.GetByID(ctx, "old")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = sessions.GetByID(ctx, "fresh")
	assert.NoError(t, err)

	var orphaned int
	require.NoError(t, client.DB().QueryRow("SELECT COUNT(*) FROM watched_events WHERE session_id = 'old'").Scan(&orphaned))
	assert.Zero(t, orphaned)

	count, err := watches.Count(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWatchAdapter_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	sessions := database.NewSessionAdapter(client)
	watches := database.NewWatchAdapter(client)
	events := database.NewEventAdapter(client)
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, sessions.Create(ctx, newSession("s", now)))
	event, _, err := events.Upsert(ctx, newEvent("Hackathon", now))
	require.NoError(t, err)

	watch := &entities.WatchedEvent{SessionID: "s", EventID: event.ID, WatchedAt: now}
	require.NoError(t, watches.Add(ctx, watch))
	require.NoError(t, watches.Add(ctx, watch))

	count, err := watches.Count(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ids, err := watches.EventIDs(ctx, "s")
	require.NoError(t, err)
	assert.Contains(t, ids, event.ID)

	require.NoError(t, watches.Remove(ctx, "s", event.ID))
	require.NoError(t, watches.Remove(ctx, "s", event.ID))

	count, err = watches.Count(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, count)

	err = watches.Add(ctx, &entities.WatchedEvent{SessionID: "s", EventID: "no-such-event", WatchedAt: now})
	assert.Error(t, err)
}

func TestSessionAdapter_DeleteCascadesWatches(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	sessions := database.NewSessionAdapter(client)
	watches := database.NewWatchAdapter(client)
	events := database.NewEventAdapter(client)
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, sessions.Create(ctx, newSession("s", now)))
	event, _, err := events.Upsert(ctx, newEvent("Workshop", now))
	require.NoError(t, err)
	require.NoError(t, watches.Add(ctx, &entities.WatchedEvent{SessionID: "s", EventID: event.ID, WatchedAt: now}))

	require.NoError(t, sessions.Delete(ctx, "s"))

	count, err := watches.Count(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDiscoveryLogAdapter_ListRecent(t *testing.T) {
	ctx := context.Background()
	adapter := database.NewDiscoveryLogAdapter(newTestStore(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, ok := range []bool{true, false, true} {
		log := &entities.EventDiscoveryLog{
			SearchQuery:      "San Francisco luma from March 2026",
			Platform:         "luma",
			Location:         "San Francisco",
			EventsFound:      i,
			EventsClassified: i,
			ExecutionTime:    1.5,
			Success:          ok,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		if !ok {
			log.ErrorMessage = "event search unavailable"
		}
		require.NoError(t, adapter.Create(ctx, log))
		assert.NotEmpty(t, log.ID)
	}

	logs, err := adapter.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 2, logs[0].EventsFound)
	assert.False(t, logs[1].Success)
	assert.Equal(t, "event search unavailable", logs[1].ErrorMessage)
}

func TestUsageLogAdapter_Create(t *testing.T) {
	ctx := context.Background()
	client := newTestStore(t)
	adapter := database.NewUsageLogAdapter(client)

	require.NoError(t, adapter.Create(ctx, &entities.APIUsageLog{
		Endpoint:       "/api/events/events/{month}/{year}",
		Method:         "GET",
		RequestData:    []byte(`{"location":"Berlin"}`),
		ResponseStatus: 200,
		ResponseTime:   12.5,
	}))
	require.NoError(t, adapter.Create(ctx, &entities.APIUsageLog{
		Endpoint:       "/api/events/events/categories",
		Method:         "GET",
		SessionID:      "abcdefgh",
		ResponseStatus: 200,
	}))

	var withSession int
	require.NoError(t, client.DB().QueryRow("SELECT COUNT(*) FROM api_usage_logs WHERE session_id IS NOT NULL").Scan(&withSession))
	assert.Equal(t, 1, withSession)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		store, err := database.Open(ctx, &config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   t.TempDir() + "/events.db",
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		assert.Equal(t, "sqlite3", store.Dialect())
		_, err = database.NewEventAdapter(store).ListForMonth(ctx, repositories.MonthFilter{
			From: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.NoError(t, err)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := database.Open(ctx, &config.DatabaseConfig{Driver: "mysql"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

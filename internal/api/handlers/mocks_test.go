package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/handlers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

type mockSessions struct {
	mock.Mock
}

var _ handlers.SessionManager = (*mockSessions)(nil)

func (m *mockSessions) Create(ctx context.Context, location string, preferences entities.Preferences) (string, error) {
	args := m.Called(ctx, location, preferences)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) Validate(ctx context.Context, id string) bool {
	return m.Called(ctx, id).Bool(0)
}

func (m *mockSessions) UpdatePreferences(ctx context.Context, id string, partial entities.Preferences) (bool, error) {
	args := m.Called(ctx, id, partial)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessions) GetPreferences(ctx context.Context, id string) (entities.Preferences, error) {
	args := m.Called(ctx, id)
	prefs, _ := args.Get(0).(entities.Preferences)
	return prefs, args.Error(1)
}

func (m *mockSessions) Stats(ctx context.Context, id string) (*entities.SessionStats, error) {
	args := m.Called(ctx, id)
	stats, _ := args.Get(0).(*entities.SessionStats)
	return stats, args.Error(1)
}

func (m *mockSessions) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockEvents struct {
	mock.Mock
}

var _ handlers.EventService = (*mockEvents)(nil)

func (m *mockEvents) GetEventsForMonth(ctx context.Context, q services.MonthQuery) (*services.MonthEvents, error) {
	args := m.Called(ctx, q)
	result, _ := args.Get(0).(*services.MonthEvents)
	return result, args.Error(1)
}

func (m *mockEvents) MarkWatched(ctx context.Context, sessionID, eventID string) error {
	return m.Called(ctx, sessionID, eventID).Error(0)
}

func (m *mockEvents) UnmarkWatched(ctx context.Context, sessionID, eventID string) error {
	return m.Called(ctx, sessionID, eventID).Error(0)
}

func (m *mockEvents) Categories() services.CategoryList {
	return m.Called().Get(0).(services.CategoryList)
}

type mockDiscovery struct {
	mock.Mock
}

var _ handlers.DiscoveryRunner = (*mockDiscovery)(nil)

func (m *mockDiscovery) Discover(ctx context.Context, req services.DiscoverRequest) (*services.DiscoveryResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.DiscoveryResult)
	return result, args.Error(1)
}

// Package mocks provides testify mocks of the domain ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// EventRepository is a mock of repositories.EventRepository
type EventRepository struct {
	mock.Mock
}

// NewEventRepository creates a mock that asserts its expectations on cleanup
func NewEventRepository(t testingT) *EventRepository {
	m := &EventRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repositories.EventRepository = (*EventRepository)(nil)

func (m *EventRepository) Upsert(ctx context.Context, event *entities.Event) (*entities.Event, entities.UpsertStatus, error) {
	args := m.Called(ctx, event)
	var stored *entities.Event
	switch v := args.Get(0).(type) {
	case func(context.Context, *entities.Event) *entities.Event:
		stored = v(ctx, event)
	case *entities.Event:
		stored = v
	}
	return stored, args.Get(1).(entities.UpsertStatus), args.Error(2)
}

func (m *EventRepository) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*entities.Event)
	return event, args.Error(1)
}

func (m *EventRepository) ListForMonth(ctx context.Context, filter repositories.MonthFilter) ([]*entities.Event, error) {
	args := m.Called(ctx, filter)
	events, _ := args.Get(0).([]*entities.Event)
	return events, args.Error(1)
}

// SessionRepository is a mock of repositories.SessionRepository
type SessionRepository struct {
	mock.Mock
}

// NewSessionRepository creates a mock that asserts its expectations on cleanup
func NewSessionRepository(t testingT) *SessionRepository {
	m := &SessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

func (m *SessionRepository) Create(ctx context.Context, session *entities.UserSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionRepository) GetByID(ctx context.Context, id string) (*entities.UserSession, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*entities.UserSession)
	return session, args.Error(1)
}

func (m *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *SessionRepository) UpdatePreferences(ctx context.Context, id string, prefs entities.Preferences, location string) (bool, error) {
	args := m.Called(ctx, id, prefs, location)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *SessionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// WatchRepository is a mock of repositories.WatchRepository
type WatchRepository struct {
	mock.Mock
}

// NewWatchRepository creates a mock that asserts its expectations on cleanup
func NewWatchRepository(t testingT) *WatchRepository {
	m := &WatchRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repositories.WatchRepository = (*WatchRepository)(nil)

func (m *WatchRepository) Add(ctx context.Context, watch *entities.WatchedEvent) error {
	return m.Called(ctx, watch).Error(0)
}

func (m *WatchRepository) Remove(ctx context.Context, sessionID, eventID string) error {
	return m.Called(ctx, sessionID, eventID).Error(0)
}

func (m *WatchRepository) EventIDs(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	args := m.Called(ctx, sessionID)
	ids, _ := args.Get(0).(map[string]struct{})
	return ids, args.Error(1)
}

func (m *WatchRepository) Count(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

// DiscoveryLogRepository is a mock of repositories.DiscoveryLogRepository
type DiscoveryLogRepository struct {
	mock.Mock
}

// NewDiscoveryLogRepository creates a mock that asserts its expectations on cleanup
func NewDiscoveryLogRepository(t testingT) *DiscoveryLogRepository {
	m := &DiscoveryLogRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repositories.DiscoveryLogRepository = (*DiscoveryLogRepository)(nil)

func (m *DiscoveryLogRepository) Create(ctx context.Context, log *entities.EventDiscoveryLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *DiscoveryLogRepository) ListRecent(ctx context.Context, limit int) ([]*entities.EventDiscoveryLog, error) {
	args := m.Called(ctx, limit)
	logs, _ := args.Get(0).([]*entities.EventDiscoveryLog)
	return logs, args.Error(1)
}

// UsageLogRepository is a mock of repositories.UsageLogRepository
type UsageLogRepository struct {
	mock.Mock
}

// NewUsageLogRepository creates a mock that asserts its expectations on cleanup
func NewUsageLogRepository(t testingT) *UsageLogRepository {
	m := &UsageLogRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repositories.UsageLogRepository = (*UsageLogRepository)(nil)

func (m *UsageLogRepository) Create(ctx context.Context, log *entities.APIUsageLog) error {
	return m.Called(ctx, log).Error(0)
}

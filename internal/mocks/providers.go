package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
)

// EventSearchProvider is a mock of providers.EventSearchProvider
type EventSearchProvider struct {
	mock.Mock
}

// NewEventSearchProvider creates a mock that asserts its expectations on cleanup
func NewEventSearchProvider(t testingT) *EventSearchProvider {
	m := &EventSearchProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ providers.EventSearchProvider = (*EventSearchProvider)(nil)

func (m *EventSearchProvider) SearchEvents(ctx context.Context, location string, platform entities.Platform, dateRange string) ([]*entities.Candidate, error) {
	args := m.Called(ctx, location, platform, dateRange)
	candidates, _ := args.Get(0).([]*entities.Candidate)
	return candidates, args.Error(1)
}

func (m *EventSearchProvider) ClassifyEvent(ctx context.Context, candidate *entities.Candidate) (*entities.Classification, error) {
	args := m.Called(ctx, candidate)
	classification, _ := args.Get(0).(*entities.Classification)
	return classification, args.Error(1)
}

// EventBus is a mock of providers.EventBus
type EventBus struct {
	mock.Mock
}

// NewEventBus creates a mock that asserts its expectations on cleanup
func NewEventBus(t testingT) *EventBus {
	m := &EventBus{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ providers.EventBus = (*EventBus)(nil)

func (m *EventBus) Publish(ctx context.Context, channel string, event *entities.DiscoveryEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *EventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DiscoveryEvent, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(<-chan *entities.DiscoveryEvent)
	return ch, args.Error(1)
}

func (m *EventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *EventBus) Close() error {
	return m.Called().Error(0)
}

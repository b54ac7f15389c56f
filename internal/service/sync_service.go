package service

import (
	"context"
	"fmt"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
	"go.uber.org/zap"
)

// Broadcaster receives the full calendar state after every successful mutation.
// Notify must not block on slow observers.
type Broadcaster interface {
	Notify(state *domain.State)
}

// SyncService reads calendar snapshots and pushes them to a Broadcaster.
type SyncService struct {
	store       storage.Storage
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewSyncService creates a new SyncService. A nil broadcaster disables publishing.
func NewSyncService(store storage.Storage, broadcaster Broadcaster, logger *zap.Logger) *SyncService {
	return &SyncService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// State returns the current members and events.
func (s *SyncService) State(ctx context.Context) (*domain.State, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return &domain.State{Members: members, Events: events}, nil
}

// Publish reads the committed state and hands it to the broadcaster.
// Failures are logged; the mutation that triggered the publish has already
// been committed.
func (s *SyncService) Publish(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	state, err := s.State(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("reading state for broadcast", zap.Error(err))
		return
	}
	s.broadcaster.Notify(state)
	s.logger.Debug("broadcast state",
		zap.Int("members", len(state.Members)),
		zap.Int("events", len(state.Events)))
}

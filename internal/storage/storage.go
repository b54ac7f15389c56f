package storage

import (
	"context"

	"github.com/bcnelson/household-calendar/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Members
	CreateMember(ctx context.Context, member *domain.Member) error
	GetMember(ctx context.Context, id string) (*domain.Member, error)
	GetMemberByName(ctx context.Context, name string) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]*domain.Member, error)
	CountMembers(ctx context.Context) (int, error)
	DeleteMember(ctx context.Context, id string) error

	// Events
	InsertEvents(ctx context.Context, events []*domain.Event) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	// ListEventsBetween returns events occurring on any date in [from, to],
	// including multi-day spans that start before from.
	ListEventsBetween(ctx context.Context, from, to string) ([]*domain.Event, error)
	ListEventsByGroup(ctx context.Context, groupID string) ([]*domain.Event, error)
	// UpdateEvents applies patch to every listed event. Unknown ids are an error
	// and nothing is written.
	UpdateEvents(ctx context.Context, ids []string, patch domain.EventPatch) error
	// DeleteEvents removes every listed event. Unknown ids are an error and
	// nothing is removed.
	DeleteEvents(ctx context.Context, ids []string) error
	DeleteEventsByMember(ctx context.Context, memberID string) error

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bcnelson/household-calendar/internal/dateutil"
	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/recurrence"
	"github.com/bcnelson/household-calendar/internal/storage"
	"github.com/bcnelson/household-calendar/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalendarService owns every mutation of members and events.
//
// Mutations are serialized by one writer lock held for the whole
// resolve, apply, persist and broadcast sequence, and the store work runs in a
// single transaction, so a scoped edit never observes a half-applied edit of
// the same group. Reads go straight to the store.
type CalendarService struct {
	store      storage.Storage
	sync       *SyncService
	logger     *zap.Logger
	maxMembers int
	now        func() time.Time

	mu sync.Mutex
}

// NewCalendarService creates a new CalendarService. maxMembers <= 0 means
// domain.DefaultMaxMembers.
func NewCalendarService(store storage.Storage, syncService *SyncService, logger *zap.Logger, maxMembers int) *CalendarService {
	if maxMembers <= 0 {
		maxMembers = domain.DefaultMaxMembers
	}
	return &CalendarService{
		store:      store,
		sync:       syncService,
		logger:     logger,
		maxMembers: maxMembers,
		now:        time.Now,
	}
}

// mutate runs fn in a transaction under the writer lock and, after a
// successful commit, publishes the new state before releasing the lock.
func (s *CalendarService) mutate(ctx context.Context, fn func(tx storage.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.sync.Publish(ctx)
	return nil
}

// ============================================
// Members
// ============================================

// ListMembers returns all stored members. The shared pseudo-member is not included.
func (s *CalendarService) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	return s.store.ListMembers(ctx)
}

// CreateMember registers a member. The member cap and duplicate names are
// reported as validation errors.
func (s *CalendarService) CreateMember(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	if errs := validation.ValidateCreateMember(&req); errs.HasErrors() {
		return nil, errs
	}

	member := &domain.Member{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Color:     req.Color,
		CreatedAt: s.now().UTC(),
	}

	err := s.mutate(ctx, func(tx storage.Transaction) error {
		count, err := tx.CountMembers(ctx)
		if err != nil {
			return fmt.Errorf("counting members: %w", err)
		}
		if count >= s.maxMembers {
			return validation.NewValidationError("name", member.Name,
				fmt.Sprintf("at most %d members can be registered", s.maxMembers))
		}

		if _, err := tx.GetMemberByName(ctx, member.Name); err == nil {
			return validation.NewValidationError("name", member.Name, "name is already registered")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("looking up member name: %w", err)
		}

		if err := tx.CreateMember(ctx, member); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return validation.NewValidationError("name", member.Name, "name is already registered")
			}
			return fmt.Errorf("creating member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member created", zap.String("id", member.ID), zap.String("name", member.Name))
	return member, nil
}

// DeleteMember removes a member and every event assigned to it.
func (s *CalendarService) DeleteMember(ctx context.Context, id string) error {
	if id == domain.SharedMemberID {
		return validation.NewValidationError("id", id, "the shared member cannot be deleted")
	}

	err := s.mutate(ctx, func(tx storage.Transaction) error {
		if err := tx.DeleteMember(ctx, id); err != nil {
			return fmt.Errorf("deleting member %s: %w", id, err)
		}
		if err := tx.DeleteEventsByMember(ctx, id); err != nil {
			return fmt.Errorf("deleting events of member %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("member deleted", zap.String("id", id))
	return nil
}

// checkMember verifies that id names a stored member or the shared pseudo-member.
func checkMember(ctx context.Context, st storage.Storage, id string) error {
	if id == domain.SharedMemberID {
		return nil
	}
	if _, err := st.GetMember(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return validation.NewValidationError("memberId", id, "unknown member")
		}
		return fmt.Errorf("looking up member: %w", err)
	}
	return nil
}

// ============================================
// Events
// ============================================

// ListEvents returns every stored instance.
func (s *CalendarService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return s.store.ListEvents(ctx)
}

// ListEventsBetween returns the instances occurring on any date in [from, to].
func (s *CalendarService) ListEventsBetween(ctx context.Context, from, to string) ([]*domain.Event, error) {
	var errs validation.ValidationErrors
	if err := validation.ValidateDateKey(from); err != nil {
		errs.Add("from", from, err.Error())
	}
	if err := validation.ValidateDateKey(to); err != nil {
		errs.Add("to", to, err.Error())
	}
	if !errs.HasErrors() && to < from {
		errs.Add("to", to, "to must not be before from")
	}
	if errs.HasErrors() {
		return nil, errs
	}
	return s.store.ListEventsBetween(ctx, from, to)
}

// GetEvent returns one instance.
func (s *CalendarService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// State returns the full calendar snapshot.
func (s *CalendarService) State(ctx context.Context) (*domain.State, error) {
	return s.sync.State(ctx)
}

// CreateEvent expands the request into dated instances, stores them in one
// transaction and returns how many were created. Recurring instances share a
// fresh repeat group; a span keeps its length on every instance.
func (s *CalendarService) CreateEvent(ctx context.Context, req domain.CreateEventRequest) (int, error) {
	if errs := validation.ValidateCreateEvent(&req); errs.HasErrors() {
		return 0, errs
	}

	title := validation.CleanTitle(req.Title)
	if title == "" {
		return 0, validation.NewValidationError("title", req.Title, "title is required")
	}

	rule, err := domain.ParseRepeat(req.Repeat)
	if err != nil {
		return 0, err
	}
	repeatEnd := ""
	if rule != domain.RepeatNone {
		repeatEnd = req.RepeatEnd
	}

	dates, err := recurrence.ExpandKeys(req.Date, rule, repeatEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	spanDays := 0
	if req.EndDate != "" {
		start, _ := dateutil.FromKey(req.Date)
		end, _ := dateutil.FromKey(req.EndDate)
		spanDays = dateutil.DaysBetween(start, end)
	}

	var group *string
	if rule != domain.RepeatNone {
		g := uuid.New().String()
		group = &g
	}

	createdAt := s.now().UTC()
	events := make([]*domain.Event, 0, len(dates))
	for _, date := range dates {
		ev := &domain.Event{
			ID:        uuid.New().String(),
			MemberID:  req.MemberID,
			Title:     title,
			Date:      date,
			AllDay:    req.AllDay,
			Memo:      validation.CleanMemo(req.Memo),
			Repeat:    rule,
			RepeatEnd: repeatEnd,
			CreatedAt: createdAt,
		}
		if !req.AllDay {
			ev.StartTime = req.StartTime
			ev.EndTime = req.EndTime
		}
		if req.EndDate != "" {
			d, _ := dateutil.FromKey(date)
			ev.EndDate = dateutil.ToKey(dateutil.Advance(d, dateutil.Day, spanDays))
		}
		if group != nil {
			g := *group
			ev.RepeatGroup = &g
		}
		events = append(events, ev)
	}

	err = s.mutate(ctx, func(tx storage.Transaction) error {
		if err := checkMember(ctx, tx, req.MemberID); err != nil {
			return err
		}
		if err := tx.InsertEvents(ctx, events); err != nil {
			return fmt.Errorf("inserting events: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("events created",
		zap.String("member", req.MemberID),
		zap.String("repeat", string(rule)),
		zap.Int("count", len(events)))
	return len(events), nil
}

// UpdateEvent applies patch to the instances selected by scope. The date is
// only changed in ScopeThis. Either every selected instance is updated or
// none is.
func (s *CalendarService) UpdateEvent(ctx context.Context, id string, scope domain.Scope, patch domain.EventPatch) error {
	if errs := validation.ValidateEventPatch(&patch); errs.HasErrors() {
		return errs
	}
	if patch.Title != nil {
		title := validation.CleanTitle(*patch.Title)
		if title == "" {
			return validation.NewValidationError("title", *patch.Title, "title must not be empty")
		}
		patch.Title = &title
	}
	if patch.Memo != nil {
		memo := validation.CleanMemo(*patch.Memo)
		patch.Memo = &memo
	}

	var affected int
	err := s.mutate(ctx, func(tx storage.Transaction) error {
		target, err := tx.GetEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("event %s: %w", id, err)
		}

		targets, err := resolveTargets(ctx, tx, target, scope)
		if err != nil {
			return err
		}
		if scope != domain.ScopeThis {
			patch = patch.WithoutDate()
		}

		if patch.MemberID != nil {
			if err := checkMember(ctx, tx, *patch.MemberID); err != nil {
				return err
			}
		}

		// Check the result on copies first so nothing is written when any
		// instance would end before it starts.
		ids := make([]string, len(targets))
		for i, ev := range targets {
			ids[i] = ev.ID
			preview := ev.Clone()
			patch.Apply(preview)
			if err := validation.ValidateSpan(preview.Date, preview.EndDate); err != nil {
				return validation.NewValidationError("endDate", preview.EndDate,
					fmt.Sprintf("%s on instance dated %s", err.Error(), preview.Date))
			}
			if err := validation.ValidateClock(preview.Date, preview.EndDate, preview.StartTime, preview.EndTime); err != nil {
				return validation.NewValidationError("endTime", preview.EndTime,
					fmt.Sprintf("%s on instance dated %s", err.Error(), preview.Date))
			}
		}

		if err := tx.UpdateEvents(ctx, ids, patch); err != nil {
			return fmt.Errorf("updating events: %w", err)
		}
		affected = len(ids)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("events updated",
		zap.String("id", id),
		zap.String("mode", string(scope)),
		zap.Int("count", affected))
	return nil
}

// DeleteEvent removes the instances selected by scope.
func (s *CalendarService) DeleteEvent(ctx context.Context, id string, scope domain.Scope) error {
	var affected int
	err := s.mutate(ctx, func(tx storage.Transaction) error {
		target, err := tx.GetEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("event %s: %w", id, err)
		}

		targets, err := resolveTargets(ctx, tx, target, scope)
		if err != nil {
			return err
		}

		ids := make([]string, len(targets))
		for i, ev := range targets {
			ids[i] = ev.ID
		}
		if err := tx.DeleteEvents(ctx, ids); err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		affected = len(ids)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("events deleted",
		zap.String("id", id),
		zap.String("mode", string(scope)),
		zap.Int("count", affected))
	return nil
}

// singleTarget reports whether scope selects only the target instance.
// Ungrouped instances are always handled alone.
func singleTarget(target *domain.Event, scope domain.Scope) bool {
	return scope == domain.ScopeThis || !target.Grouped()
}

// resolveTargets returns the instances a scoped operation on target affects:
// the target alone, its whole group, or the group members dated on or after it.
func resolveTargets(ctx context.Context, st storage.Storage, target *domain.Event, scope domain.Scope) ([]*domain.Event, error) {
	if singleTarget(target, scope) {
		return []*domain.Event{target}, nil
	}

	group, err := st.ListEventsByGroup(ctx, *target.RepeatGroup)
	if err != nil {
		return nil, fmt.Errorf("listing group %s: %w", *target.RepeatGroup, err)
	}

	switch scope {
	case domain.ScopeAll:
		return group, nil
	case domain.ScopeFuture:
		var targets []*domain.Event
		for _, ev := range group {
			if ev.Date >= target.Date {
				targets = append(targets, ev)
			}
		}
		return targets, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, scope)
	}
}

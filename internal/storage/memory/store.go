package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
)

var errTxDone = errors.New("transaction has already been committed or rolled back")

// Store is an in-memory implementation of the storage interface.
//
// Transactions work on a private copy of the data that replaces the store's
// data on commit. Only one transaction (or direct write) runs at a time; reads
// never wait for an open transaction. Do not call Store write methods from a
// goroutine that holds an open Tx.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *data
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{data: newData()}
}

func (s *Store) Close() error { return nil }

// BeginTx starts a transaction. It blocks while another transaction is open.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	s.txMu.Lock()
	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()
	return &Tx{store: s, data: snapshot}, nil
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *data) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// ============================================
// Members
// ============================================

func (s *Store) CreateMember(ctx context.Context, member *domain.Member) error {
	return s.write(func(d *data) error { return d.createMember(member) })
}

func (s *Store) GetMember(ctx context.Context, id string) (m *domain.Member, err error) {
	s.read(func(d *data) { m, err = d.getMember(id) })
	return
}

func (s *Store) GetMemberByName(ctx context.Context, name string) (m *domain.Member, err error) {
	s.read(func(d *data) { m, err = d.getMemberByName(name) })
	return
}

func (s *Store) ListMembers(ctx context.Context) (members []*domain.Member, err error) {
	s.read(func(d *data) { members = d.listMembers() })
	return
}

func (s *Store) CountMembers(ctx context.Context) (n int, err error) {
	s.read(func(d *data) { n = len(d.members) })
	return
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.write(func(d *data) error { return d.deleteMember(id) })
}

// ============================================
// Events
// ============================================

func (s *Store) InsertEvents(ctx context.Context, events []*domain.Event) error {
	return s.write(func(d *data) error { return d.insertEvents(events) })
}

func (s *Store) GetEvent(ctx context.Context, id string) (ev *domain.Event, err error) {
	s.read(func(d *data) { ev, err = d.getEvent(id) })
	return
}

func (s *Store) ListEvents(ctx context.Context) (events []*domain.Event, err error) {
	s.read(func(d *data) { events = d.filterEvents(func(*domain.Event) bool { return true }) })
	return
}

func (s *Store) ListEventsBetween(ctx context.Context, from, to string) (events []*domain.Event, err error) {
	s.read(func(d *data) { events = d.filterEvents(func(e *domain.Event) bool { return e.Overlaps(from, to) }) })
	return
}

func (s *Store) ListEventsByGroup(ctx context.Context, groupID string) (events []*domain.Event, err error) {
	s.read(func(d *data) { events = d.filterEvents(func(e *domain.Event) bool { return e.InGroup(groupID) }) })
	return
}

func (s *Store) UpdateEvents(ctx context.Context, ids []string, patch domain.EventPatch) error {
	return s.write(func(d *data) error { return d.updateEvents(ids, patch) })
}

func (s *Store) DeleteEvents(ctx context.Context, ids []string) error {
	return s.write(func(d *data) error { return d.deleteEvents(ids) })
}

func (s *Store) DeleteEventsByMember(ctx context.Context, memberID string) error {
	return s.write(func(d *data) error {
		d.deleteEventsByMember(memberID)
		return nil
	})
}

// ============================================
// Transactions
// ============================================

// Tx is a transaction over a private copy of the store's data.
// A Tx is not safe for concurrent use.
type Tx struct {
	store *Store
	data  *data
	done  bool
}

// Commit publishes the transaction's data to the store.
func (t *Tx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

// Rollback discards the transaction. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *Tx) Close() error { return nil }

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) check() error {
	if t.done {
		return errTxDone
	}
	return nil
}

func (t *Tx) CreateMember(ctx context.Context, member *domain.Member) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.data.createMember(member)
}

func (t *Tx) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.getMember(id)
}

func (t *Tx) GetMemberByName(ctx context.Context, name string) (*domain.Member, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.getMemberByName(name)
}

func (t *Tx) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.listMembers(), nil
}

func (t *Tx) CountMembers(ctx context.Context) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return len(t.data.members), nil
}

func (t *Tx) DeleteMember(ctx context.Context, id string) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.data.deleteMember(id)
}

func (t *Tx) InsertEvents(ctx context.Context, events []*domain.Event) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.data.insertEvents(events)
}

func (t *Tx) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.getEvent(id)
}

func (t *Tx) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.filterEvents(func(*domain.Event) bool { return true }), nil
}

func (t *Tx) ListEventsBetween(ctx context.Context, from, to string) ([]*domain.Event, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.filterEvents(func(e *domain.Event) bool { return e.Overlaps(from, to) }), nil
}

func (t *Tx) ListEventsByGroup(ctx context.Context, groupID string) ([]*domain.Event, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.data.filterEvents(func(e *domain.Event) bool { return e.InGroup(groupID) }), nil
}

func (t *Tx) UpdateEvents(ctx context.Context, ids []string, patch domain.EventPatch) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.data.updateEvents(ids, patch)
}

func (t *Tx) DeleteEvents(ctx context.Context, ids []string) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.data.deleteEvents(ids)
}

func (t *Tx) DeleteEventsByMember(ctx context.Context, memberID string) error {
	if err := t.check(); err != nil {
		return err
	}
	t.data.deleteEventsByMember(memberID)
	return nil
}

// ============================================
// Data
// ============================================

type data struct {
	members map[string]*domain.Member // key: id
	events  map[string]*domain.Event  // key: id
}

func newData() *data {
	return &data{
		members: make(map[string]*domain.Member),
		events:  make(map[string]*domain.Event),
	}
}

func (d *data) clone() *data {
	c := &data{
		members: make(map[string]*domain.Member, len(d.members)),
		events:  make(map[string]*domain.Event, len(d.events)),
	}
	for id, m := range d.members {
		cm := *m
		c.members[id] = &cm
	}
	for id, e := range d.events {
		c.events[id] = e.Clone()
	}
	return c
}

func (d *data) createMember(member *domain.Member) error {
	if _, exists := d.members[member.ID]; exists {
		return domain.ErrAlreadyExists
	}
	for _, existing := range d.members {
		if existing.Name == member.Name {
			return domain.ErrAlreadyExists
		}
	}
	m := *member
	d.members[member.ID] = &m
	return nil
}

func (d *data) getMember(id string) (*domain.Member, error) {
	m, exists := d.members[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (d *data) getMemberByName(name string) (*domain.Member, error) {
	for _, m := range d.members {
		if m.Name == name {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *data) listMembers() []*domain.Member {
	members := make([]*domain.Member, 0, len(d.members))
	for _, m := range d.members {
		c := *m
		members = append(members, &c)
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].ID < members[j].ID
	})
	return members
}

func (d *data) deleteMember(id string) error {
	if _, exists := d.members[id]; !exists {
		return domain.ErrNotFound
	}
	delete(d.members, id)
	return nil
}

func (d *data) insertEvents(events []*domain.Event) error {
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if _, exists := d.events[e.ID]; exists || seen[e.ID] {
			return domain.ErrAlreadyExists
		}
		seen[e.ID] = true
	}
	for _, e := range events {
		d.events[e.ID] = e.Clone()
	}
	return nil
}

func (d *data) getEvent(id string) (*domain.Event, error) {
	e, exists := d.events[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

func (d *data) filterEvents(keep func(*domain.Event) bool) []*domain.Event {
	events := make([]*domain.Event, 0)
	for _, e := range d.events {
		if keep(e) {
			events = append(events, e.Clone())
		}
	}
	sortEvents(events)
	return events
}

func (d *data) updateEvents(ids []string, patch domain.EventPatch) error {
	for _, id := range ids {
		if _, exists := d.events[id]; !exists {
			return domain.ErrNotFound
		}
	}
	for _, id := range ids {
		patch.Apply(d.events[id])
	}
	return nil
}

func (d *data) deleteEvents(ids []string) error {
	for _, id := range ids {
		if _, exists := d.events[id]; !exists {
			return domain.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(d.events, id)
	}
	return nil
}

func (d *data) deleteEventsByMember(memberID string) {
	for id, e := range d.events {
		if e.MemberID == memberID {
			delete(d.events, id)
		}
	}
}

// sortEvents orders events by date, start time, creation time and id, the
// same order the SQL store uses.
func sortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

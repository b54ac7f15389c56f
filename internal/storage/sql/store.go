package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const eventColumns = `id, member_id, title, date, end_date, all_day, start_time, end_time,
	memo, repeat, repeat_end, repeat_group, created_at`

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New creates a new SQL store and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between
	// an open transaction and other writes.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, driver: s.driver}, nil
}

// inTx runs fn in a transaction of its own, for multi-statement writes
// called outside a caller's transaction.
func (s *Store) inTx(ctx context.Context, fn func(db dbInterface) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Tx wraps a database transaction.
type Tx struct {
	tx     *sqlx.Tx
	driver string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Close is a no-op for transactions (they should be committed or rolled back).
func (t *Tx) Close() error {
	return nil
}

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ============================================
// Members
// ============================================

func createMember(ctx context.Context, db dbInterface, member *domain.Member) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO members (id, name, color, created_at) VALUES ($1, $2, $3, $4)`,
		member.ID, member.Name, member.Color, member.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateMember(ctx context.Context, member *domain.Member) error {
	return createMember(ctx, s.db, member)
}

func (t *Tx) CreateMember(ctx context.Context, member *domain.Member) error {
	return createMember(ctx, t.tx, member)
}

func getMember(ctx context.Context, db dbInterface, id string) (*domain.Member, error) {
	var member domain.Member
	err := db.GetContext(ctx, &member,
		`SELECT id, name, color, created_at FROM members WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Store) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	return getMember(ctx, s.db, id)
}

func (t *Tx) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	return getMember(ctx, t.tx, id)
}

func getMemberByName(ctx context.Context, db dbInterface, name string) (*domain.Member, error) {
	var member domain.Member
	err := db.GetContext(ctx, &member,
		`SELECT id, name, color, created_at FROM members WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Store) GetMemberByName(ctx context.Context, name string) (*domain.Member, error) {
	return getMemberByName(ctx, s.db, name)
}

func (t *Tx) GetMemberByName(ctx context.Context, name string) (*domain.Member, error) {
	return getMemberByName(ctx, t.tx, name)
}

func listMembers(ctx context.Context, db dbInterface) ([]*domain.Member, error) {
	members := []*domain.Member{}
	err := db.SelectContext(ctx, &members,
		`SELECT id, name, color, created_at FROM members ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	return listMembers(ctx, s.db)
}

func (t *Tx) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	return listMembers(ctx, t.tx)
}

func countMembers(ctx context.Context, db dbInterface) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM members`)
	return count, err
}

func (s *Store) CountMembers(ctx context.Context) (int, error) {
	return countMembers(ctx, s.db)
}

func (t *Tx) CountMembers(ctx context.Context) (int, error) {
	return countMembers(ctx, t.tx)
}

func deleteMember(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return deleteMember(ctx, s.db, id)
}

func (t *Tx) DeleteMember(ctx context.Context, id string) error {
	return deleteMember(ctx, t.tx, id)
}

// ============================================
// Events
// ============================================

func insertEvents(ctx context.Context, db dbInterface, events []*domain.Event) error {
	for _, ev := range events {
		_, err := db.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			ev.ID, ev.MemberID, ev.Title, ev.Date, ev.EndDate, ev.AllDay, ev.StartTime, ev.EndTime,
			ev.Memo, ev.Repeat, ev.RepeatEnd, ev.RepeatGroup, ev.CreatedAt)
		if err != nil {
			return wrapUniqueError(err)
		}
	}
	return nil
}

func (s *Store) InsertEvents(ctx context.Context, events []*domain.Event) error {
	return s.inTx(ctx, func(db dbInterface) error { return insertEvents(ctx, db, events) })
}

func (t *Tx) InsertEvents(ctx context.Context, events []*domain.Event) error {
	return insertEvents(ctx, t.tx, events)
}

func getEvent(ctx context.Context, db dbInterface, id string) (*domain.Event, error) {
	var ev domain.Event
	err := db.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return getEvent(ctx, s.db, id)
}

func (t *Tx) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return getEvent(ctx, t.tx, id)
}

const eventOrder = ` ORDER BY date, start_time, created_at, id`

func listEvents(ctx context.Context, db dbInterface) ([]*domain.Event, error) {
	events := []*domain.Event{}
	err := db.SelectContext(ctx, &events, `SELECT `+eventColumns+` FROM events`+eventOrder)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return listEvents(ctx, s.db)
}

func (t *Tx) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return listEvents(ctx, t.tx)
}

func listEventsBetween(ctx context.Context, db dbInterface, from, to string) ([]*domain.Event, error) {
	events := []*domain.Event{}
	err := db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events
		 WHERE date <= $1 AND (CASE WHEN end_date >= date THEN end_date ELSE date END) >= $2`+eventOrder,
		to, from)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) ListEventsBetween(ctx context.Context, from, to string) ([]*domain.Event, error) {
	return listEventsBetween(ctx, s.db, from, to)
}

func (t *Tx) ListEventsBetween(ctx context.Context, from, to string) ([]*domain.Event, error) {
	return listEventsBetween(ctx, t.tx, from, to)
}

func listEventsByGroup(ctx context.Context, db dbInterface, groupID string) ([]*domain.Event, error) {
	events := []*domain.Event{}
	err := db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events WHERE repeat_group = $1`+eventOrder, groupID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) ListEventsByGroup(ctx context.Context, groupID string) ([]*domain.Event, error) {
	return listEventsByGroup(ctx, s.db, groupID)
}

func (t *Tx) ListEventsByGroup(ctx context.Context, groupID string) ([]*domain.Event, error) {
	return listEventsByGroup(ctx, t.tx, groupID)
}

// getEventsByID loads every listed event, failing with domain.ErrNotFound if
// any id is unknown.
func getEventsByID(ctx context.Context, db dbInterface, ids []string) ([]*domain.Event, error) {
	ids = uniqueIDs(ids)
	query, args, err := sqlx.In(`SELECT `+eventColumns+` FROM events WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	events := []*domain.Event{}
	if err := db.SelectContext(ctx, &events, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(events) != len(ids) {
		return nil, domain.ErrNotFound
	}
	return events, nil
}

func updateEvents(ctx context.Context, db dbInterface, ids []string, patch domain.EventPatch) error {
	if len(ids) == 0 {
		return nil
	}
	events, err := getEventsByID(ctx, db, ids)
	if err != nil {
		return err
	}
	for _, ev := range events {
		patch.Apply(ev)
		_, err := db.ExecContext(ctx,
			`UPDATE events SET member_id = $1, title = $2, date = $3, end_date = $4, all_day = $5,
			 start_time = $6, end_time = $7, memo = $8 WHERE id = $9`,
			ev.MemberID, ev.Title, ev.Date, ev.EndDate, ev.AllDay,
			ev.StartTime, ev.EndTime, ev.Memo, ev.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateEvents(ctx context.Context, ids []string, patch domain.EventPatch) error {
	return s.inTx(ctx, func(db dbInterface) error { return updateEvents(ctx, db, ids, patch) })
}

func (t *Tx) UpdateEvents(ctx context.Context, ids []string, patch domain.EventPatch) error {
	return updateEvents(ctx, t.tx, ids, patch)
}

func deleteEvents(ctx context.Context, db dbInterface, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := getEventsByID(ctx, db, ids); err != nil {
		return err
	}
	query, args, err := sqlx.In(`DELETE FROM events WHERE id IN (?)`, uniqueIDs(ids))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

func (s *Store) DeleteEvents(ctx context.Context, ids []string) error {
	return s.inTx(ctx, func(db dbInterface) error { return deleteEvents(ctx, db, ids) })
}

func (t *Tx) DeleteEvents(ctx context.Context, ids []string) error {
	return deleteEvents(ctx, t.tx, ids)
}

func deleteEventsByMember(ctx context.Context, db dbInterface, memberID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM events WHERE member_id = $1`, memberID)
	return err
}

func (s *Store) DeleteEventsByMember(ctx context.Context, memberID string) error {
	return deleteEventsByMember(ctx, s.db, memberID)
}

func (t *Tx) DeleteEventsByMember(ctx context.Context, memberID string) error {
	return deleteEventsByMember(ctx, t.tx, memberID)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

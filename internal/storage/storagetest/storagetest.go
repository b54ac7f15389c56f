// Package storagetest holds a behavioral test suite shared by every
// storage.Storage implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
)

// Run exercises store against the storage contract. newStore must return an
// empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"Members", testMembers},
		{"DuplicateMemberName", testDuplicateMemberName},
		{"Events", testEvents},
		{"EventsBetween", testEventsBetween},
		{"EventsByGroup", testEventsByGroup},
		{"UpdateEvents", testUpdateEvents},
		{"UpdateUnknownEvent", testUpdateUnknownEvent},
		{"DeleteEvents", testDeleteEvents},
		{"DeleteEventsByMember", testDeleteEventsByMember},
		{"TxCommit", testTxCommit},
		{"TxRollback", testTxRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

var base = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

func member(id, name string, offset int) *domain.Member {
	return &domain.Member{
		ID:        id,
		Name:      name,
		Color:     "#ff8800",
		CreatedAt: base.Add(time.Duration(offset) * time.Second),
	}
}

func event(id, memberID, date string, group string) *domain.Event {
	ev := &domain.Event{
		ID:        id,
		MemberID:  memberID,
		Title:     "event " + id,
		Date:      date,
		Repeat:    domain.RepeatNone,
		CreatedAt: base,
	}
	if group != "" {
		g := group
		ev.RepeatGroup = &g
		ev.Repeat = domain.RepeatWeekly
	}
	return ev
}

func ids(events []*domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func equalIDs(t *testing.T, got []*domain.Event, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func mustInsert(t *testing.T, s storage.Storage, events ...*domain.Event) {
	t.Helper()
	if err := s.InsertEvents(context.Background(), events); err != nil {
		t.Fatalf("InsertEvents error = %v", err)
	}
}

func testMembers(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	if err := s.CreateMember(ctx, member("m2", "Dad", 2)); err != nil {
		t.Fatalf("CreateMember error = %v", err)
	}
	if err := s.CreateMember(ctx, member("m1", "Mom", 1)); err != nil {
		t.Fatalf("CreateMember error = %v", err)
	}

	got, err := s.GetMember(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMember error = %v", err)
	}
	if got.Name != "Mom" || got.Color != "#ff8800" {
		t.Errorf("GetMember = %+v", got)
	}

	byName, err := s.GetMemberByName(ctx, "Dad")
	if err != nil || byName.ID != "m2" {
		t.Errorf("GetMemberByName = %+v, %v", byName, err)
	}

	list, err := s.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "m1" || list[1].ID != "m2" {
		t.Errorf("ListMembers order wrong: %+v", list)
	}

	n, err := s.CountMembers(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountMembers = %d, %v", n, err)
	}

	if err := s.DeleteMember(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMember error = %v", err)
	}
	if _, err := s.GetMember(ctx, "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetMember after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteMember(ctx, "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteMember error = %v, want ErrNotFound", err)
	}
}

func testDuplicateMemberName(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	if err := s.CreateMember(ctx, member("m1", "Mom", 0)); err != nil {
		t.Fatalf("CreateMember error = %v", err)
	}
	if err := s.CreateMember(ctx, member("m2", "Mom", 1)); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate name error = %v, want ErrAlreadyExists", err)
	}
	if _, err := s.GetMemberByName(ctx, "Nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetMemberByName error = %v, want ErrNotFound", err)
	}
}

func testEvents(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	late := event("e1", "m1", "2024-05-03", "")
	early := event("e2", "m1", "2024-05-01", "")
	early.StartTime = "10:00"
	earlier := event("e3", "m1", "2024-05-01", "")
	earlier.StartTime = "08:30"
	earlier.EndTime = "09:00"
	earlier.Memo = "<p>bring card</p>"
	mustInsert(t, s, late, early, earlier)

	list, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents error = %v", err)
	}
	equalIDs(t, list, "e3", "e2", "e1")

	got, err := s.GetEvent(ctx, "e3")
	if err != nil {
		t.Fatalf("GetEvent error = %v", err)
	}
	if got.StartTime != "08:30" || got.EndTime != "09:00" || got.Memo != "<p>bring card</p>" {
		t.Errorf("GetEvent = %+v", got)
	}
	if got.Grouped() {
		t.Error("ungrouped event reported as grouped")
	}

	if _, err := s.GetEvent(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetEvent error = %v, want ErrNotFound", err)
	}
	if err := s.InsertEvents(ctx, []*domain.Event{event("e1", "m1", "2024-06-01", "")}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate insert error = %v, want ErrAlreadyExists", err)
	}
}

func testEventsBetween(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	span := event("span", "m1", "2024-04-28", "")
	span.EndDate = "2024-05-02"
	before := event("before", "m1", "2024-04-30", "")
	inside := event("inside", "m1", "2024-05-05", "")
	after := event("after", "m1", "2024-05-11", "")
	mustInsert(t, s, span, before, inside, after)

	got, err := s.ListEventsBetween(ctx, "2024-05-01", "2024-05-10")
	if err != nil {
		t.Fatalf("ListEventsBetween error = %v", err)
	}
	equalIDs(t, got, "span", "inside")
}

func testEventsByGroup(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustInsert(t, s,
		event("a1", "m1", "2024-05-01", "g1"),
		event("a2", "m1", "2024-05-08", "g1"),
		event("b1", "m1", "2024-05-02", "g2"),
		event("solo", "m1", "2024-05-03", ""),
	)

	got, err := s.ListEventsByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ListEventsByGroup error = %v", err)
	}
	equalIDs(t, got, "a1", "a2")
	if got[0].RepeatGroup == nil || *got[0].RepeatGroup != "g1" {
		t.Errorf("RepeatGroup = %v, want g1", got[0].RepeatGroup)
	}

	none, err := s.ListEventsByGroup(ctx, "unknown")
	if err != nil || len(none) != 0 {
		t.Errorf("ListEventsByGroup(unknown) = %v, %v", none, err)
	}
}

func testUpdateEvents(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := event("a", "m1", "2024-05-01", "g1")
	a.StartTime = "09:00"
	mustInsert(t, s, a, event("b", "m1", "2024-05-08", "g1"), event("c", "m1", "2024-05-15", "g1"))

	title := "Swim"
	allDay := true
	if err := s.UpdateEvents(ctx, []string{"a", "b"}, domain.EventPatch{Title: &title, AllDay: &allDay}); err != nil {
		t.Fatalf("UpdateEvents error = %v", err)
	}

	list, _ := s.ListEvents(ctx)
	for _, ev := range list {
		switch ev.ID {
		case "a", "b":
			if ev.Title != "Swim" || !ev.AllDay || ev.StartTime != "" {
				t.Errorf("%s not patched: %+v", ev.ID, ev)
			}
		case "c":
			if ev.Title != "event c" || ev.AllDay {
				t.Errorf("c should be untouched: %+v", ev)
			}
		}
		if ev.Date == "" || !ev.InGroup("g1") {
			t.Errorf("%s lost date or group: %+v", ev.ID, ev)
		}
	}
}

func testUpdateUnknownEvent(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustInsert(t, s, event("a", "m1", "2024-05-01", ""))

	title := "changed"
	err := s.UpdateEvents(ctx, []string{"a", "missing"}, domain.EventPatch{Title: &title})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateEvents error = %v, want ErrNotFound", err)
	}
	got, _ := s.GetEvent(ctx, "a")
	if got.Title != "event a" {
		t.Errorf("partial update written: %+v", got)
	}
}

func testDeleteEvents(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustInsert(t, s, event("a", "m1", "2024-05-01", ""), event("b", "m1", "2024-05-02", ""))

	if err := s.DeleteEvents(ctx, []string{"a", "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteEvents error = %v, want ErrNotFound", err)
	}
	list, _ := s.ListEvents(ctx)
	equalIDs(t, list, "a", "b")

	if err := s.DeleteEvents(ctx, []string{"a"}); err != nil {
		t.Fatalf("DeleteEvents error = %v", err)
	}
	list, _ = s.ListEvents(ctx)
	equalIDs(t, list, "b")
}

func testDeleteEventsByMember(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustInsert(t, s,
		event("a", "m1", "2024-05-01", ""),
		event("b", "m2", "2024-05-02", ""),
		event("c", "m1", "2024-05-03", "g1"),
	)

	if err := s.DeleteEventsByMember(ctx, "m1"); err != nil {
		t.Fatalf("DeleteEventsByMember error = %v", err)
	}
	list, _ := s.ListEvents(ctx)
	equalIDs(t, list, "b")
}

func testTxCommit(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx error = %v", err)
	}
	if err := tx.CreateMember(ctx, member("m1", "Mom", 0)); err != nil {
		t.Fatalf("tx.CreateMember error = %v", err)
	}
	if err := tx.InsertEvents(ctx, []*domain.Event{event("a", "m1", "2024-05-01", "")}); err != nil {
		t.Fatalf("tx.InsertEvents error = %v", err)
	}
	n, err := tx.CountMembers(ctx)
	if err != nil || n != 1 {
		t.Errorf("tx.CountMembers = %d, %v", n, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit error = %v", err)
	}

	if _, err := s.GetMember(ctx, "m1"); err != nil {
		t.Errorf("member not committed: %v", err)
	}
	if _, err := s.GetEvent(ctx, "a"); err != nil {
		t.Errorf("event not committed: %v", err)
	}
}

func testTxRollback(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustInsert(t, s, event("a", "m1", "2024-05-01", ""))

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx error = %v", err)
	}
	if err := tx.DeleteEvents(ctx, []string{"a"}); err != nil {
		t.Fatalf("tx.DeleteEvents error = %v", err)
	}
	if err := tx.CreateMember(ctx, member("m1", "Mom", 0)); err != nil {
		t.Fatalf("tx.CreateMember error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback error = %v", err)
	}

	if _, err := s.GetEvent(ctx, "a"); err != nil {
		t.Errorf("rolled-back delete was applied: %v", err)
	}
	if n, _ := s.CountMembers(ctx); n != 0 {
		t.Errorf("rolled-back member was created, count = %d", n)
	}

	// The store accepts writes again once the transaction is finished.
	if err := s.CreateMember(ctx, member("m2", "Dad", 1)); err != nil {
		t.Errorf("CreateMember after rollback error = %v", err)
	}
}

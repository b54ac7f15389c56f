package memory_test

import (
	"context"
	"testing"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
	"github.com/bcnelson/household-calendar/internal/storage/memory"
	"github.com/bcnelson/household-calendar/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return memory.New()
	})
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	g := "g1"
	ev := &domain.Event{ID: "a", MemberID: "m1", Title: "Swim", Date: "2024-05-01", RepeatGroup: &g}
	if err := s.InsertEvents(ctx, []*domain.Event{ev}); err != nil {
		t.Fatalf("InsertEvents error = %v", err)
	}
	ev.Title = "mutated"
	*ev.RepeatGroup = "mutated"

	got, _ := s.GetEvent(ctx, "a")
	if got.Title != "Swim" || *got.RepeatGroup != "g1" {
		t.Fatalf("store shares memory with caller: %+v", got)
	}
	got.Title = "mutated again"

	again, _ := s.GetEvent(ctx, "a")
	if again.Title != "Swim" {
		t.Errorf("store shares memory with returned value: %+v", again)
	}
}

func TestTxFinished(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback after Commit error = %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Error("expected error committing twice")
	}
	if _, err := tx.ListEvents(ctx); err == nil {
		t.Error("expected error using a finished transaction")
	}
}

func TestReadsDoNotWaitForTx(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx error = %v", err)
	}
	defer tx.Rollback()

	if err := tx.InsertEvents(ctx, []*domain.Event{{ID: "a", MemberID: "m1", Title: "x", Date: "2024-05-01"}}); err != nil {
		t.Fatalf("tx.InsertEvents error = %v", err)
	}
	list, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("uncommitted event visible outside tx: %v", list)
	}
}

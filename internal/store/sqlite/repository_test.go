package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func draft(title string, cents int64, cat core.Category, d core.Date) core.Draft {
	return core.Draft{Title: title, Amount: core.Money{Cents: cents}, Category: cat, Date: d}
}

func TestCreateAndListRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Groceries", 1234, core.Food, core.NewDate(2024, 3, 15)))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == 0 {
		t.Error("Create() returned zero id")
	}

	set, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 {
		t.Fatalf("len = %d, want 1", len(set))
	}

	got := set[0]
	if got.ID != rec.ID || got.Title != "Groceries" || got.Amount.Cents != 1234 || got.Category != core.Food {
		t.Errorf("stored record = %+v", got)
	}
	if got.Date.Format() != "15 Mar 2024" {
		t.Errorf("stored date = %s, want 15 Mar 2024", got.Date.Format())
	}
}

func TestListAllOrdersNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// Insertion order deliberately scrambled relative to dates; the two
	// March 10 records must come back newest-inserted first.
	inputs := []core.Draft{
		draft("Groceries", 1000, core.Food, core.NewDate(2024, 3, 10)),
		draft("Rent", 90000, core.Utilities, core.NewDate(2024, 3, 1)),
		draft("Lunch", 1500, core.Food, core.NewDate(2024, 3, 10)),
		draft("Pharmacy", 800, core.Healthcare, core.NewDate(2024, 2, 20)),
	}
	ids := make([]int64, len(inputs))
	for i, d := range inputs {
		rec, err := repo.Create(ctx, d)
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = rec.ID
	}

	set, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	want := []int64{ids[2], ids[0], ids[1], ids[3]}
	if len(set) != len(want) {
		t.Fatalf("len = %d, want %d", len(set), len(want))
	}
	for i, id := range want {
		if set[i].ID != id {
			t.Errorf("position %d: id = %d, want %d", i, set[i].ID, id)
		}
	}
}

func TestReplaceByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Groceries", 1000, core.Food, core.NewDate(2024, 3, 1)))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := repo.ReplaceByID(ctx, rec.ID, draft("Taxi", 3000, core.Transport, core.NewDate(2024, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != rec.ID {
		t.Errorf("id = %d, want %d", updated.ID, rec.ID)
	}

	set, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 {
		t.Fatalf("len = %d, want 1", len(set))
	}
	got := set[0]
	if got.Title != "Taxi" || got.Amount.Cents != 3000 || got.Category != core.Transport || got.Date.Format() != "5 Mar 2024" {
		t.Errorf("replaced record = %+v", got)
	}

	if _, err := repo.ReplaceByID(ctx, 99999, draft("Nope", 100, core.Other, core.NewDate(2024, 3, 1))); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReplaceByID(missing) err = %v, want ErrNotFound", err)
	}
}

func TestDeleteByIDIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Coffee", 450, core.Food, core.NewDate(2024, 3, 1)))
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteByID(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteByID(ctx, rec.ID); err != nil {
		t.Errorf("second delete err = %v, want nil", err)
	}

	set, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 0 {
		t.Errorf("len after delete = %d, want 0", len(set))
	}
}

func TestGetByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Cinema", 1500, core.Entertainment, core.NewDate(2024, 3, 20)))
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID || got.Title != "Cinema" || got.Category != core.Entertainment {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(ctx, 99999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID(missing) err = %v, want ErrNotFound", err)
	}
}

package ledger

import (
	"context"
	"errors"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
)

// failingStore rejects every operation, simulating an unreachable store.
type failingStore struct{}

var errBoom = errors.New("connection refused")

func (failingStore) ListAll(context.Context) ([]core.Record, error) { return nil, errBoom }
func (failingStore) Create(context.Context, core.Draft) (core.Record, error) {
	return core.Record{}, errBoom
}
func (failingStore) ReplaceByID(context.Context, int64, core.Draft) (core.Record, error) {
	return core.Record{}, errBoom
}
func (failingStore) DeleteByID(context.Context, int64) error { return errBoom }
func (failingStore) Close() error                            { return nil }

type recordingPublisher struct {
	ops []string
	ids []int64
}

func (p *recordingPublisher) PublishChange(_ context.Context, id int64, op string) error {
	p.ops = append(p.ops, op)
	p.ids = append(p.ids, id)
	return nil
}

func draft(title string, cents int64, cat core.Category, d core.Date) core.Draft {
	return core.Draft{Title: title, Amount: core.Money{Cents: cents}, Category: cat, Date: d}
}

func ids(set []core.Record) []int64 {
	out := make([]int64, len(set))
	for i, r := range set {
		out[i] = r.ID
	}
	return out
}

func TestSubmitCreatesAndOrdersByDate(t *testing.T) {
	m := NewManager(memory.New(), nil)
	ctx := context.Background()

	var set []core.Record
	var err error

	set, _, err = m.Submit(ctx, set, draft("Groceries", 1000, core.Food, core.NewDate(2024, 3, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	set, _, err = m.Submit(ctx, set, draft("Bus pass", 2000, core.Transport, core.NewDate(2024, 3, 15)), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Older date lands below the newer one
	set, _, err = m.Submit(ctx, set, draft("Pharmacy", 800, core.Healthcare, core.NewDate(2024, 2, 10)), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Same date as the bus pass: the newer submission goes first
	set, rec, err := m.Submit(ctx, set, draft("Lunch", 1200, core.Food, core.NewDate(2024, 3, 15)), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []int64{rec.ID, 2, 1, 3}
	got := ids(set)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("set order = %v, want %v", got, want)
		}
	}
}

func TestSubmitValidationRejectsBeforeStore(t *testing.T) {
	m := NewManager(failingStore{}, nil)

	set := []core.Record{{ID: 1}}
	newSet, _, err := m.Submit(context.Background(), set, draft("", 100, core.Food, core.NewDate(2024, 3, 1)), nil)
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle (store must not be reached)", err)
	}
	if len(newSet) != 1 || newSet[0].ID != 1 {
		t.Error("set changed after a validation failure")
	}
}

func TestSubmitStoreFailureLeavesSetUnchanged(t *testing.T) {
	m := NewManager(failingStore{}, nil)

	set := []core.Record{
		{ID: 1, Title: "Groceries", Date: core.NewDate(2024, 3, 1)},
	}
	newSet, _, err := m.Submit(context.Background(), set, draft("Coffee", 450, core.Food, core.NewDate(2024, 3, 2)), nil)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if len(newSet) != len(set) || newSet[0].ID != set[0].ID {
		t.Error("set changed after a failed create")
	}
}

func TestSubmitReplacePreservesPosition(t *testing.T) {
	mem := memory.New()
	m := NewManager(mem, nil)
	ctx := context.Background()

	var set []core.Record
	for _, d := range []core.Draft{
		draft("Groceries", 1000, core.Food, core.NewDate(2024, 3, 1)),
		draft("Bus pass", 2000, core.Transport, core.NewDate(2024, 3, 10)),
		draft("Cinema", 1500, core.Entertainment, core.NewDate(2024, 3, 20)),
	} {
		var err error
		set, _, err = m.Submit(ctx, set, d, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	// Replace the middle record with different fields
	editID := set[1].ID
	newSet, rec, err := m.Submit(ctx, set, draft("Taxi", 3000, core.Transport, core.NewDate(2024, 3, 10)), &editID)
	if err != nil {
		t.Fatal(err)
	}

	if rec.ID != editID {
		t.Errorf("replaced record id = %d, want %d", rec.ID, editID)
	}
	if newSet[1].ID != editID || newSet[1].Title != "Taxi" || newSet[1].Amount.Cents != 3000 {
		t.Errorf("position 1 = %+v, want replaced record in place", newSet[1])
	}

	count := 0
	for _, r := range newSet {
		if r.ID == editID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("set has %d records with id %d, want exactly 1", count, editID)
	}
}

func TestSubmitReplaceUnknownIDSurfacesNotFound(t *testing.T) {
	m := NewManager(memory.New(), nil)

	missing := int64(999)
	set := []core.Record{{ID: 1}}
	newSet, _, err := m.Submit(context.Background(), set, draft("Taxi", 3000, core.Transport, core.NewDate(2024, 3, 10)), &missing)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(newSet) != 1 {
		t.Error("set changed after a failed replace")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	mem := memory.New()
	m := NewManager(mem, nil)
	ctx := context.Background()

	set, _, err := m.Submit(ctx, nil, draft("Coffee", 450, core.Food, core.NewDate(2024, 3, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}

	// Removing a nonexistent id is a no-op, not an error
	newSet, err := m.Remove(ctx, set, 12345)
	if err != nil {
		t.Fatalf("Remove(missing id) err = %v, want nil", err)
	}
	if len(newSet) != 1 {
		t.Errorf("set size after removing missing id = %d, want 1", len(newSet))
	}

	newSet, err = m.Remove(ctx, newSet, set[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(newSet) != 0 {
		t.Errorf("set size after remove = %d, want 0", len(newSet))
	}
}

func TestRemoveStoreFailure(t *testing.T) {
	m := NewManager(failingStore{}, nil)

	set := []core.Record{{ID: 1}}
	newSet, err := m.Remove(context.Background(), set, 1)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if len(newSet) != 1 {
		t.Error("set changed after a failed delete")
	}
}

func TestReconcileMatchesStore(t *testing.T) {
	mem := memory.New()
	m := NewManager(mem, nil)
	ctx := context.Background()

	_, created, err := m.Submit(ctx, nil, draft("Coffee", 450, core.Food, core.NewDate(2024, 3, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}

	set, err := m.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 || set[0].ID != created.ID || set[0].Title != "Coffee" {
		t.Errorf("Reconcile() = %+v, want the created record", set)
	}

	// Idempotent: a second reconcile returns the same set
	again, err := m.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(set) || again[0].ID != set[0].ID {
		t.Error("second Reconcile() diverged from the first")
	}
}

func TestMutationsPublishChanges(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(memory.New(), pub)
	ctx := context.Background()

	set, rec, err := m.Submit(ctx, nil, draft("Coffee", 450, core.Food, core.NewDate(2024, 3, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	editID := rec.ID
	set, _, err = m.Submit(ctx, set, draft("Espresso", 300, core.Food, core.NewDate(2024, 3, 1)), &editID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Remove(ctx, set, rec.ID); err != nil {
		t.Fatal(err)
	}

	wantOps := []string{"created", "updated", "deleted"}
	if len(pub.ops) != len(wantOps) {
		t.Fatalf("published %d ops, want %d", len(pub.ops), len(wantOps))
	}
	for i, want := range wantOps {
		if pub.ops[i] != want {
			t.Errorf("op[%d] = %q, want %q", i, pub.ops[i], want)
		}
		if pub.ids[i] != rec.ID {
			t.Errorf("id[%d] = %d, want %d", i, pub.ids[i], rec.ID)
		}
	}
}

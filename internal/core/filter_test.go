package core

import "testing"

func testRecords() []Record {
	return []Record{
		{ID: 3, Title: "Cinema", Amount: Money{Cents: 1500}, Category: Entertainment, Date: NewDate(2024, 3, 20)},
		{ID: 2, Title: "Bus pass", Amount: Money{Cents: 2000}, Category: Transport, Date: NewDate(2024, 3, 15)},
		{ID: 1, Title: "Groceries", Amount: Money{Cents: 1000}, Category: Food, Date: NewDate(2024, 3, 1)},
		{ID: 4, Title: "Pharmacy", Amount: Money{Cents: 800}, Category: Healthcare, Date: NewDate(2024, 2, 10)},
	}
}

func catPtr(c Category) *Category { return &c }
func datePtr(d Date) *Date        { return &d }

func TestApply(t *testing.T) {
	records := testRecords()

	tests := []struct {
		name    string
		spec    FilterSpec
		wantIDs []int64
	}{
		{
			name:    "empty spec passes everything",
			spec:    FilterSpec{},
			wantIDs: []int64{3, 2, 1, 4},
		},
		{
			name:    "category only",
			spec:    FilterSpec{Category: catPtr(Transport)},
			wantIDs: []int64{2},
		},
		{
			name:    "start date inclusive",
			spec:    FilterSpec{Start: datePtr(NewDate(2024, 3, 1))},
			wantIDs: []int64{3, 2, 1},
		},
		{
			name:    "end date inclusive",
			spec:    FilterSpec{End: datePtr(NewDate(2024, 3, 15))},
			wantIDs: []int64{2, 1, 4},
		},
		{
			name: "range",
			spec: FilterSpec{
				Start: datePtr(NewDate(2024, 3, 10)),
				End:   datePtr(NewDate(2024, 3, 31)),
			},
			wantIDs: []int64{3, 2},
		},
		{
			name: "category and range",
			spec: FilterSpec{
				Category: catPtr(Entertainment),
				Start:    datePtr(NewDate(2024, 3, 1)),
				End:      datePtr(NewDate(2024, 3, 31)),
			},
			wantIDs: []int64{3},
		},
		{
			name: "nothing matches",
			spec: FilterSpec{
				Start: datePtr(NewDate(2025, 1, 1)),
			},
			wantIDs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(records, tt.spec)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Apply() returned %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, rec := range got {
				if rec.ID != tt.wantIDs[i] {
					t.Errorf("Apply()[%d].ID = %d, want %d", i, rec.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestApplyPreservesInputOrder(t *testing.T) {
	// Deliberately unsorted input: filtering must not reorder
	records := []Record{
		{ID: 1, Category: Food, Date: NewDate(2024, 3, 1)},
		{ID: 2, Category: Food, Date: NewDate(2024, 3, 20)},
		{ID: 3, Category: Food, Date: NewDate(2024, 3, 10)},
	}
	got := Apply(records, FilterSpec{Category: catPtr(Food)})
	for i, wantID := range []int64{1, 2, 3} {
		if got[i].ID != wantID {
			t.Fatalf("Apply()[%d].ID = %d, want %d", i, got[i].ID, wantID)
		}
	}
}

func TestApplyDoesNotShareInput(t *testing.T) {
	records := testRecords()
	got := Apply(records, FilterSpec{})
	got[0].Title = "mutated"
	if records[0].Title == "mutated" {
		t.Error("Apply() result aliases the input slice")
	}
}

func TestApplyRecordOnEndDateIncluded(t *testing.T) {
	records := []Record{
		{ID: 1, Category: Food, Date: NewDate(2024, 3, 15)},
	}
	got := Apply(records, FilterSpec{End: datePtr(NewDate(2024, 3, 15))})
	if len(got) != 1 {
		t.Fatalf("record dated exactly on the end date must be included, got %d records", len(got))
	}
}

package core

import (
	"sort"
	"time"
)

type (
	// CategoryTotal is the summed amount for one category code.
	CategoryTotal struct {
		Category Category `json:"category"`
		Label    string   `json:"label"`
		Total    Money    `json:"total"`
	}

	// Statistics are the aggregates recomputed from the full record set.
	Statistics struct {
		Total             Money           `json:"total"`
		CurrentMonthTotal Money           `json:"currentMonthTotal"`
		PerCategory       []CategoryTotal `json:"perCategoryTotals"`
	}
)

// Summarize aggregates the record set. The current-month total is relative
// to now in the local timezone. PerCategory covers every fixed category and
// is sorted by descending total; equal totals keep category-table order.
func Summarize(records []Record, now time.Time) Statistics {
	var stats Statistics

	byCategory := make(map[Category]int64, len(categoryTable))
	for _, r := range records {
		stats.Total.Cents += r.Amount.Cents
		if r.Date.SameMonth(now) {
			stats.CurrentMonthTotal.Cents += r.Amount.Cents
		}
		byCategory[r.Category] += r.Amount.Cents
	}

	stats.PerCategory = make([]CategoryTotal, 0, len(categoryTable))
	for _, entry := range categoryTable {
		stats.PerCategory = append(stats.PerCategory, CategoryTotal{
			Category: entry.Code,
			Label:    entry.Label,
			Total:    Money{Cents: byCategory[entry.Code]},
		})
	}
	sort.SliceStable(stats.PerCategory, func(i, j int) bool {
		return stats.PerCategory[i].Total.Cents > stats.PerCategory[j].Total.Cents
	})

	return stats
}

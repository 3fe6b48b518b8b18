package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Healthcare    Category = "healthcare"
	Utilities     Category = "utilities"
	Other         Category = "other"
)

type (
	// Category is one of the fixed expense category codes.
	Category string

	// Date is a local calendar day. The embedded time is always midnight
	// in the local timezone; it must never be treated as a UTC instant.
	Date struct {
		time.Time
	}

	// Record is a single persisted expense entry.
	Record struct {
		ID       int64    `json:"id"`
		Title    string   `json:"title"`
		Amount   Money    `json:"amount"`
		Category Category `json:"category"`
		Date     Date     `json:"date"`
	}

	// Draft is a record as submitted by a client, before an id is assigned.
	Draft struct {
		Title    string   `json:"title"`
		Amount   Money    `json:"amount"`
		Category Category `json:"category"`
		Date     Date     `json:"date"`
	}
)

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
)

// categoryTable fixes both the closed set of codes and the display order
// used for per-category aggregation tie-breaking.
var categoryTable = []struct {
	Code  Category
	Label string
}{
	{Food, "Food"},
	{Transport, "Transport"},
	{Entertainment, "Entertainment"},
	{Shopping, "Shopping"},
	{Healthcare, "Healthcare"},
	{Utilities, "Utilities"},
	{Other, "Other"},
}

// Categories returns the category codes in display-table order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i, c := range categoryTable {
		out[i] = c.Code
	}
	return out
}

func (c Category) Valid() bool {
	for _, entry := range categoryTable {
		if entry.Code == c {
			return true
		}
	}
	return false
}

// Label returns the display label for the code. Labels are fixed and do
// not depend on locale.
func (c Category) Label() string {
	for _, entry := range categoryTable {
		if entry.Code == c {
			return entry.Label
		}
	}
	return string(c)
}

// NewDate creates a Date at local midnight for the given calendar day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// ParseDate parses a calendar day in YYYY-MM-DD form. Inputs that carry a
// time-of-day component (RFC 3339 timestamps) are truncated to their date
// part, so the apparent day never shifts near timezone boundaries. Anything
// longer than a plain date that is not a valid timestamp is rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return Date{}, ErrInvalidDate
		}
		s = s[:10]
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to the local calendar day it falls on.
func DateOf(t time.Time) Date {
	local := t.Local()
	return NewDate(local.Year(), int(local.Month()), local.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SameMonth reports whether the date falls in the same local month and
// year as the given instant.
func (d Date) SameMonth(t time.Time) bool {
	local := t.Local()
	return d.Time.Year() == local.Year() && d.Time.Month() == local.Month()
}

// Format renders the date as "2 Jan 2006".
func (d Date) Format() string {
	return d.Time.Format("2 Jan 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	return d.Date.Validate()
}

// Normalize trims whitespace from free-text fields.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	return d
}

// IsValidationError reports whether err belongs to the draft validation
// taxonomy, as opposed to a store failure.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{ErrEmptyTitle, ErrTitleTooLong, ErrInvalidAmount, ErrInvalidCategory, ErrInvalidDate} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

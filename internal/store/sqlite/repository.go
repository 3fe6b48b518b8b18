// Package sqlite persists expense records in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendlog/internal/core"
	"spendlog/internal/store"

	_ "modernc.org/sqlite"
)

// Repository implements store.RecordStore on a SQLite database. Dates are
// stored as YYYY-MM-DD text so they stay calendar days rather than
// instants; ordering and range filters compare lexicographically.
type Repository struct {
	db *sql.DB
}

var _ store.RecordStore = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListAll returns every record, newest date first. Records sharing a date
// come back newest-inserted first.
func (r *Repository) ListAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount_cents, category, date
		 FROM expenses
		 ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return records, nil
}

func (r *Repository) Create(ctx context.Context, d core.Draft) (core.Record, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (title, amount_cents, category, date)
		 VALUES (?, ?, ?, ?)`,
		d.Title, d.Amount.Cents, string(d.Category), d.Date.Time.Format("2006-01-02"))
	if err != nil {
		return core.Record{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("read assigned id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"title", d.Title,
		"amount_cents", d.Amount.Cents,
		"category", d.Category,
		"date", d.Date.Time.Format("2006-01-02"))

	return core.Record{ID: id, Title: d.Title, Amount: d.Amount, Category: d.Category, Date: d.Date}, nil
}

func (r *Repository) ReplaceByID(ctx context.Context, id int64, d core.Draft) (core.Record, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, amount_cents = ?, category = ?, date = ?
		 WHERE id = ?`,
		d.Title, d.Amount.Cents, string(d.Category), d.Date.Time.Format("2006-01-02"), id)
	if err != nil {
		return core.Record{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.Record{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Record{}, store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense replaced in SQLite", "id", id, "title", d.Title)

	return core.Record{ID: id, Title: d.Title, Amount: d.Amount, Category: d.Category, Date: d.Date}, nil
}

// DeleteByID is idempotent: deleting an id that does not exist succeeds.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	affected, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Expense delete executed", "id", id, "existed", affected > 0)

	return nil
}

// GetByID fetches a single record, used by the mirror worker.
func (r *Repository) GetByID(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, amount_cents, category, date FROM expenses WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, store.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		rec      core.Record
		category string
		dateStr  string
	)
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Amount.Cents, &category, &dateStr); err != nil {
		return core.Record{}, err
	}
	rec.Category = core.Category(category)
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Record{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	rec.Date = date
	return rec, nil
}

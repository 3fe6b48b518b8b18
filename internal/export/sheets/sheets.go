// Package sheets mirrors expense records into a Google Sheets
// spreadsheet. The sheet is a read-only copy for the household budget
// doc; the SQLite store stays authoritative.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"spendlog/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ErrRowNotFound is returned when a record id has no row in the sheet.
var ErrRowNotFound = errors.New("row not found in sheet")

// Mirror appends and maintains one row per record, columns A:E holding
// id, date, title, amount, category.
type Mirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Mirror for the given spreadsheet and sheet.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Mirror, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Mirror{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credsFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case credsJSON != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON([]byte(credsJSON)),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case credsFile != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsFile(credsFile),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	default:
		// Application default credentials
		return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
	}
}

func recordRow(rec core.Record) []interface{} {
	return []interface{}{
		strconv.FormatInt(rec.ID, 10),
		rec.Date.Time.Format("2006-01-02"),
		rec.Title,
		rec.Amount.Decimal(),
		string(rec.Category),
	}
}

// AppendRecord adds a new row for the record.
func (m *Mirror) AppendRecord(ctx context.Context, rec core.Record) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{recordRow(rec)}}

	_, err := m.svc.Spreadsheets.Values.
		Append(m.spreadsheetID, m.sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	slog.InfoContext(ctx, "Appended record to sheet", "id", rec.ID, "sheet", m.sheetName)
	return nil
}

// UpdateRecord rewrites the row holding the record's id. Records missing
// from the sheet are appended instead.
func (m *Mirror) UpdateRecord(ctx context.Context, rec core.Record) error {
	row, err := m.findRow(ctx, rec.ID)
	if errors.Is(err, ErrRowNotFound) {
		return m.AppendRecord(ctx, rec)
	}
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{recordRow(rec)}}
	rangeRef := fmt.Sprintf("%s!A%d:E%d", m.sheetName, row, row)

	_, err = m.svc.Spreadsheets.Values.
		Update(m.spreadsheetID, rangeRef, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d: %w", row, err)
	}

	slog.InfoContext(ctx, "Updated record row in sheet", "id", rec.ID, "row", row)
	return nil
}

// DeleteRecord removes the row holding the record's id. A record missing
// from the sheet is a no-op, mirroring the store's idempotent delete.
func (m *Mirror) DeleteRecord(ctx context.Context, id int64) error {
	row, err := m.findRow(ctx, id)
	if errors.Is(err, ErrRowNotFound) {
		slog.WarnContext(ctx, "Record row already absent from sheet", "id", id)
		return nil
	}
	if err != nil {
		return err
	}

	sheetID, err := m.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}

	if _, err := m.svc.Spreadsheets.BatchUpdate(m.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}

	slog.InfoContext(ctx, "Deleted record row from sheet", "id", id, "row", row)
	return nil
}

// findRow returns the 1-based row whose first cell holds the id.
func (m *Mirror) findRow(ctx context.Context, id int64) (int, error) {
	resp, err := m.svc.Spreadsheets.Values.
		Get(m.spreadsheetID, m.sheetName+"!A:A").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}

	want := strconv.FormatInt(id, 10)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if fmt.Sprintf("%v", row[0]) == want {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (m *Mirror) sheetID(ctx context.Context) (int64, error) {
	ss, err := m.svc.Spreadsheets.Get(m.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == m.sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", m.sheetName)
}

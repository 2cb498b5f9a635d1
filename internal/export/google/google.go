package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	ports "fintrack/internal/export"
	"fintrack/internal/report"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends report snapshots to a Google Sheets spreadsheet, one row per
// category share plus a summary row per snapshot.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportsSheet  string
	clock         func() time.Time
}

var _ ports.ReportWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_REPORTS_SHEET_NAME (default "Reports").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportsSheet := strings.TrimSpace(os.Getenv("GOOGLE_REPORTS_SHEET_NAME"))
	if reportsSheet == "" {
		reportsSheet = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportsSheet:  reportsSheet,
		clock:         time.Now,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendReport writes one summary row and one row per category share below the
// current end of the reports sheet.
func (c *Client) AppendReport(ctx context.Context, userID string, ov report.Overview, shares []report.CategoryShare) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	now := c.clock().Format(time.RFC3339)
	rows := [][]any{{
		now,
		userID,
		"summary",
		ov.Balance.Dollars(),
		ov.TotalIncome.Dollars(),
		ov.TotalExpense.Dollars(),
		ov.MonthToDate.Dollars(),
	}}
	for _, share := range shares {
		rows = append(rows, []any{
			now,
			userID,
			share.Category,
			share.Amount.Dollars(),
			share.Percentage,
			"",
			"",
		})
	}

	rng := fmt.Sprintf("%s!A:G", c.reportsSheet)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append report rows to %s: %w", c.reportsSheet, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"user_id", userID,
		"rows", len(rows),
		"sheet", c.reportsSheet)

	return nil
}

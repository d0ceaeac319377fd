package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"billbook/internal/core"
	"billbook/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors invoices and expenses into a Google spreadsheet, one
// sheet per record kind.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	invoicesSheet string
	expensesSheet string
}

var _ ledger.BackupWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_INVOICES_SHEET_NAME (default "Invoices"),
// GOOGLE_EXPENSES_SHEET_NAME (default "Expenses").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	invoicesSheet := strings.TrimSpace(os.Getenv("GOOGLE_INVOICES_SHEET_NAME"))
	if invoicesSheet == "" {
		invoicesSheet = "Invoices"
	}
	expensesSheet := strings.TrimSpace(os.Getenv("GOOGLE_EXPENSES_SHEET_NAME"))
	if expensesSheet == "" {
		expensesSheet = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		invoicesSheet: invoicesSheet,
		expensesSheet: expensesSheet,
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

// AppendInvoice writes one row per invoice with its computed totals so
// the spreadsheet is readable without re-running the valuation.
func (c *Client) AppendInvoice(ctx context.Context, inv core.Invoice, totals core.InvoiceTotals) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		inv.InvoiceNumber,
		inv.IssueDate,
		inv.DueDate,
		inv.Customer.Name,
		string(inv.Status),
		string(inv.TaxRegime),
		totals.Subtotal.Float64(),
		totals.DiscountTotal.Float64(),
		totals.TaxTotal.Float64(),
		totals.Split.CGST.Float64(),
		totals.Split.SGST.Float64(),
		totals.Split.IGST.Float64(),
		totals.ShippingAmount.Float64(),
		totals.GrandTotal.Float64(),
		inv.AmountPaid.Float64(),
		totals.DueAmount.Float64(),
	}
	return c.appendRow(ctx, c.invoicesSheet, row)
}

// AppendExpense writes one row per expense.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		e.Date,
		e.Category,
		e.Amount.Float64(),
		e.TaxAmount.Float64(),
		e.Note,
		e.Receipt,
	}
	return c.appendRow(ctx, c.expensesSheet, row)
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []any) error {
	// Find the next empty row from the sheet dimensions first.
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get sheet dimensions for %s: %w", sheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d", sheet, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", nextRow, sheet, err)
	}
	return nil
}

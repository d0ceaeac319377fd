package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"billbook/internal/core"
	"billbook/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable store for invoices and expenses.
// Monetary fields are persisted as decimal strings so values round-trip
// exactly through the coercing Amount type.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.InvoiceStore = (*SQLiteRepository)(nil)
	_ ledger.ExpenseStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// The pragma goes in the DSN so every connection the pool opens
	// enforces foreign keys, not just the first one.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_number, issue_date, due_date,
		       customer_name, customer_email, customer_tax_id,
		       tax_regime, shipping, amount_paid, status, notes
		FROM invoices
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	for i := range invoices {
		items, err := r.loadItems(ctx, invoices[i].ID)
		if err != nil {
			return nil, err
		}
		invoices[i].Items = items
	}
	return invoices, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, invoice_number, issue_date, due_date,
		       customer_name, customer_email, customer_tax_id,
		       tax_regime, shipping, amount_paid, status, notes
		FROM invoices WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Invoice{}, err
	}

	inv.Items, err = r.loadItems(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

func (r *SQLiteRepository) PutInvoice(ctx context.Context, inv core.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (id, invoice_number, issue_date, due_date,
			customer_name, customer_email, customer_tax_id,
			tax_regime, shipping, amount_paid, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			invoice_number = excluded.invoice_number,
			issue_date = excluded.issue_date,
			due_date = excluded.due_date,
			customer_name = excluded.customer_name,
			customer_email = excluded.customer_email,
			customer_tax_id = excluded.customer_tax_id,
			tax_regime = excluded.tax_regime,
			shipping = excluded.shipping,
			amount_paid = excluded.amount_paid,
			status = excluded.status,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP`,
		inv.ID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		inv.Customer.Name, inv.Customer.Email, inv.Customer.TaxID,
		string(inv.TaxRegime), inv.ShippingAmount.String(), inv.AmountPaid.String(),
		string(inv.Status), inv.Notes)
	if err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, inv.ID); err != nil {
		return fmt.Errorf("clear invoice items: %w", err)
	}
	for pos, it := range inv.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_items (invoice_id, position, name, quantity, unit_price, discount_percent, tax_rate_percent)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, pos, it.Name, it.Quantity.String(), it.UnitPrice.String(),
			it.DiscountPercent.String(), it.TaxRatePercent.String())
		if err != nil {
			return fmt.Errorf("insert invoice item %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"number", inv.InvoiceNumber,
		"status", inv.Status,
		"items", len(inv.Items))
	return nil
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Items are removed explicitly rather than trusting the schema's
	// cascade, so a connection without the foreign-key pragma can never
	// leave orphaned rows behind.
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	slog.InfoContext(ctx, "Invoice deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, category, amount, tax_amount, note, receipt
		FROM expenses
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, category, amount, tax_amount, note, receipt
		FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ledger.ErrNotFound
	}
	return e, err
}

func (r *SQLiteRepository) PutExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, category, amount, tax_amount, note, receipt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			category = excluded.category,
			amount = excluded.amount,
			tax_amount = excluded.tax_amount,
			note = excluded.note,
			receipt = excluded.receipt`,
		e.ID, e.Date, e.Category, e.Amount.String(), e.TaxAmount.String(), e.Note, e.Receipt)
	if err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved", "id", e.ID, "category", e.Category, "amount", e.Amount.String())
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) loadItems(ctx context.Context, invoiceID string) ([]core.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, quantity, unit_price, discount_percent, tax_rate_percent
		FROM invoice_items WHERE invoice_id = ?
		ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()

	var items []core.LineItem
	for rows.Next() {
		var name, qty, price, disc, rate string
		if err := rows.Scan(&name, &qty, &price, &disc, &rate); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, core.LineItem{
			Name:            name,
			Quantity:        core.ParseAmount(qty),
			UnitPrice:       core.ParseAmount(price),
			DiscountPercent: core.ParseAmount(disc),
			TaxRatePercent:  core.ParseAmount(rate),
		})
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var inv core.Invoice
	var regime, shipping, paid, status string
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&inv.Customer.Name, &inv.Customer.Email, &inv.Customer.TaxID,
		&regime, &shipping, &paid, &status, &inv.Notes)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.TaxRegime = core.TaxRegime(regime)
	inv.ShippingAmount = core.ParseAmount(shipping)
	inv.AmountPaid = core.ParseAmount(paid)
	inv.Status = core.Status(status)
	return inv, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var amount, tax string
	err := row.Scan(&e.ID, &e.Date, &e.Category, &amount, &tax, &e.Note, &e.Receipt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.ParseAmount(amount)
	e.TaxAmount = core.ParseAmount(tax)
	return e, nil
}

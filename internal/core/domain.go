package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	StatusDraft   Status = "Draft"
	StatusSent    Status = "Sent"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

const (
	TaxRegimeNone     TaxRegime = "None"
	TaxRegimeCGSTSGST TaxRegime = "CGST_SGST"
	TaxRegimeIGST     TaxRegime = "IGST"
)

// DateLayout is the calendar-date format used throughout: ISO
// YYYY-MM-DD, no time component.
const DateLayout = "2006-01-02"

type (
	Status string

	TaxRegime string

	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		TaxID string `json:"taxId"`
	}

	// LineItem is one billable row: quantity × unit price, with an
	// optional discount and a tax rate, both as percentages.
	LineItem struct {
		Name            string `json:"name"`
		Quantity        Amount `json:"qty"`
		UnitPrice       Amount `json:"price"`
		DiscountPercent Amount `json:"discount"`
		TaxRatePercent  Amount `json:"taxRate"`
	}

	Invoice struct {
		ID             string     `json:"id"`
		InvoiceNumber  string     `json:"invoiceNumber"`
		IssueDate      string     `json:"date"`
		DueDate        string     `json:"dueDate"`
		Customer       Customer   `json:"customer"`
		Items          []LineItem `json:"items"`
		TaxRegime      TaxRegime  `json:"gstType"`
		ShippingAmount Amount     `json:"shipping"`
		AmountPaid     Amount     `json:"amountPaid"`
		Status         Status     `json:"status"`
		Notes          string     `json:"notes"`
	}

	// Expense is a recorded business cost. TaxAmount is the input tax
	// paid on it, entered by the user, not derived from a rate here.
	Expense struct {
		ID        string `json:"id"`
		Date      string `json:"date"`
		Category  string `json:"category"`
		Amount    Amount `json:"amount"`
		TaxAmount Amount `json:"taxAmount"`
		Note      string `json:"note"`
		Receipt   string `json:"receipt,omitempty"`
	}
)

// ExpenseCategories is the list offered by the expense form. The
// engine accepts any category value; this only seeds the UI.
var ExpenseCategories = []string{"Utilities", "Rent", "Salaries", "Software", "Travel", "Other"}

var (
	ErrEmptyID            = errors.New("empty id")
	ErrEmptyInvoiceNumber = errors.New("empty invoice number")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
)

// expenseJSON mirrors Expense for decoding; the extra Tax field picks
// up records exported before taxAmount became the canonical key.
type expenseJSON struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Amount    Amount `json:"amount"`
	TaxAmount Amount `json:"taxAmount"`
	Tax       Amount `json:"tax"`
	Note      string `json:"note"`
	Receipt   string `json:"receipt"`
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw expenseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tax := raw.TaxAmount
	if tax.IsZero() && !raw.Tax.IsZero() {
		tax = raw.Tax
	}
	*e = Expense{
		ID:        raw.ID,
		Date:      raw.Date,
		Category:  raw.Category,
		Amount:    raw.Amount,
		TaxAmount: tax,
		Note:      raw.Note,
		Receipt:   raw.Receipt,
	}
	return nil
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Validate checks the fields the invoice form requires. Valuation
// itself never rejects an invoice; this guards user input only.
func (inv Invoice) Validate() error {
	if strings.TrimSpace(inv.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return ErrEmptyInvoiceNumber
	}
	if !ValidDate(inv.IssueDate) {
		return ErrInvalidDate
	}
	if inv.DueDate != "" && !ValidDate(inv.DueDate) {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if !ValidDate(e.Date) {
		return ErrInvalidDate
	}
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

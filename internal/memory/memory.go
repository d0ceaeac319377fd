package memory

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"billbook/internal/core"
	"billbook/internal/ledger"
)

// Store keeps invoices and expenses in process memory. It is the
// default backend when no database path is configured and the store
// the tests run against.
type Store struct {
	mu       sync.Mutex
	invoices map[string]core.Invoice
	expenses map[string]core.Expense
	seq      int
	order    map[string]int
}

var (
	_ ledger.InvoiceStore = (*Store)(nil)
	_ ledger.ExpenseStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		invoices: map[string]core.Invoice{},
		expenses: map[string]core.Expense{},
		order:    map[string]int{},
	}
}

// NewFromFile seeds a store from an exported report document
// ({invoices, expenses}). A missing or unreadable file yields an empty
// store; records without an ID are skipped.
func NewFromFile(path string) *Store {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var doc struct {
		Invoices []core.Invoice `json:"invoices"`
		Expenses []core.Expense `json:"expenses"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return s
	}
	ctx := context.Background()
	for _, inv := range doc.Invoices {
		if inv.ID == "" {
			continue
		}
		_ = s.PutInvoice(ctx, inv)
	}
	for _, e := range doc.Expenses {
		if e.ID == "" {
			continue
		}
		_ = s.PutExpense(ctx, e)
	}
	return s
}

func (s *Store) ListInvoices(_ context.Context) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, cloneInvoice(inv))
	}
	sortNewestFirst(out, s.order, func(inv core.Invoice) string { return inv.ID })
	return out, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.Invoice{}, ledger.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (s *Store) PutInvoice(_ context.Context, inv core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		s.seq++
		s.order[inv.ID] = s.seq
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.invoices, id)
	delete(s.order, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sortNewestFirst(out, s.order, func(e core.Expense) string { return e.ID })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, ledger.ErrNotFound
	}
	return e, nil
}

func (s *Store) PutExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		s.seq++
		s.order[e.ID] = s.seq
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.expenses, id)
	delete(s.order, id)
	return nil
}

// sortNewestFirst orders records by insertion sequence, most recent
// first, matching the list order of the sqlite backend.
func sortNewestFirst[T any](records []T, order map[string]int, idOf func(T) string) {
	sort.SliceStable(records, func(i, j int) bool {
		return order[idOf(records[i])] > order[idOf(records[j])]
	})
}

func cloneInvoice(inv core.Invoice) core.Invoice {
	out := inv
	out.Items = append([]core.LineItem(nil), inv.Items...)
	return out
}

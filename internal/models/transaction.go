package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TransactionType distinguishes the two ledgers.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t names a ledger.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Label returns the Spanish noun used in replies.
func (t TransactionType) Label() string {
	if t == TransactionTypeIncome {
		return "ingreso"
	}
	return "gasto"
}

const (
	MaxDescriptionLength = 200
	DefaultIncomeSource  = "no especificado"
	DefaultCategory      = "general"
)

// Transaction is a single ledger entry. Source is set for income and
// Category for expenses.
type Transaction struct {
	ID               string          `json:"id"`
	Type             TransactionType `json:"type"`
	Amount           float64         `json:"amount"`
	Currency         Currency        `json:"currency"`
	Description      string          `json:"description"`
	Source           string          `json:"source,omitempty"`
	Category         string          `json:"category,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
	LastEdited       *time.Time      `json:"last_edited,omitempty"`
	EditHistory      []EditSnapshot  `json:"edit_history,omitempty"`
	AIClassification string          `json:"ai_classification"`
	BudgetImpact     string          `json:"budget_impact,omitempty"`
	Verified         bool            `json:"verified"`
}

// Label returns the source for income and the category for expenses.
func (t Transaction) Label() string {
	if t.Type == TransactionTypeIncome {
		return t.Source
	}
	return t.Category
}

// Snapshot returns a copy of t without its edit history.
func (t Transaction) Snapshot() Transaction {
	s := t
	s.EditHistory = nil
	if t.LastEdited != nil {
		le := *t.LastEdited
		s.LastEdited = &le
	}
	return s
}

// EditSnapshot records one edit of a transaction.
type EditSnapshot struct {
	Timestamp    time.Time   `json:"timestamp"`
	OriginalData Transaction `json:"original_data"`
	NewData      Transaction `json:"new_data"`
}

// ChangeSet holds the fields a user asked to change. Nil fields are left
// untouched.
type ChangeSet struct {
	Amount      *float64  `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=200"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Source      *string   `json:"source,omitempty" validate:"omitempty,max=100"`
	Currency    *Currency `json:"currency,omitempty" validate:"omitempty,currency_code"`
}

// IsEmpty reports whether no field is set.
func (c ChangeSet) IsEmpty() bool {
	return c.Amount == nil && c.Description == nil && c.Category == nil &&
		c.Source == nil && c.Currency == nil
}

// Describe renders the change set for a confirmation prompt.
func (c ChangeSet) Describe(current Currency) string {
	var parts []string
	cur := current
	if c.Currency != nil {
		cur = *c.Currency
		parts = append(parts, "moneda: "+string(cur))
	}
	if c.Amount != nil {
		parts = append(parts, "monto: "+cur.Format(*c.Amount))
	}
	if c.Category != nil {
		parts = append(parts, "categoría: "+*c.Category)
	}
	if c.Source != nil {
		parts = append(parts, "fuente: "+*c.Source)
	}
	if c.Description != nil {
		parts = append(parts, "descripción: "+*c.Description)
	}
	return strings.Join(parts, ", ")
}

// Candidate is a flattened view of a recent transaction offered to the
// user when identifying an edit target.
type Candidate struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Currency    Currency        `json:"currency"`
	Date        time.Time       `json:"date"`
	Details     string          `json:"details"`
}

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single dated income or expense record belonging to one
	// user. Amount carries the magnitude only; the sign lives in Type.
	Transaction struct {
		ID          string
		UserID      string
		Amount      Money
		Type        TransactionType
		Category    string
		Description string
		Date        time.Time // economic date, user supplied
		CreatedAt   time.Time // assigned by the store on creation
	}
)

// SuggestedCategories is the default category picker set. The Category field
// is not constrained to it; any non-empty label is accepted.
var SuggestedCategories = []string{
	"Food & Dining",
	"Shopping",
	"Transportation",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Other",
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyUser     = errors.New("empty user id")
	ErrEmptyCategory = errors.New("empty category")
	ErrZeroDate      = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Neg returns the negated amount. Used when folding expenses into a balance.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Validate checks a transaction at the write boundary. Records read back from
// a store are assumed valid and are not re-checked.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

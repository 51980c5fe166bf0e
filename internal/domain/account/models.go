// Package account holds the account domain entity and the normalization
// rules applied to raw provider payloads before persistence.
package account

import (
	"context"
	"errors"
	"time"
)

// Account types as reported by the aggregation provider. Investments are
// persisted as account rows with the type forced to TypeInvestment.
const (
	TypeBank       = "BANK"
	TypeCredit     = "CREDIT"
	TypeInvestment = "investment"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNotSaved        = errors.New("upsert affected no rows")
	ErrInvalidInput    = errors.New("invalid input")
)

// Account represents a financial account synced from the aggregation provider.
// Subtype is always the normalized form (see NormalizeSubtype); the credit
// fields are populated only for credit_card accounts.
type Account struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"itemId"`
	Name            string    `json:"name"`
	AccountType     string    `json:"type"`
	Subtype         string    `json:"subtype"`
	Balance         float64   `json:"balance"`
	CurrencyCode    string    `json:"currencyCode"`
	CreditLimit     *float64  `json:"creditLimit,omitempty"`
	AvailableCredit *float64  `json:"availableCredit,omitempty"`
	CurrentInvoice  *float64  `json:"currentInvoice,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsCreditCard reports whether the account's normalized subtype is credit_card.
func (a *Account) IsCreditCard() bool {
	return a.Subtype == SubtypeCreditCard
}

// UpsertParams contains parameters for upserting an account row.
type UpsertParams struct {
	ID              string
	ItemID          string
	Name            string
	AccountType     string
	Subtype         string
	Balance         float64
	CurrencyCode    string
	CreditLimit     *float64
	AvailableCredit *float64
	CurrentInvoice  *float64
}

// Validate checks the upsert parameters. Credit fields on a non-credit-card
// subtype violate the storage invariant and are rejected rather than cleared.
func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required for upsert")
	}
	if p.ItemID == "" {
		return errors.New("item ID is required for upsert")
	}
	if p.Subtype != SubtypeCreditCard {
		if p.CreditLimit != nil || p.AvailableCredit != nil || p.CurrentInvoice != nil {
			return errors.New("credit fields are only valid for credit_card accounts")
		}
	}
	return nil
}

// Repository defines the persistence operations the sync engine needs for
// accounts. Upsert is conflict-safe on the account id (full row replace) and
// must confirm that a row was actually written; an upsert that affects no
// rows without a driver error returns ErrNotSaved.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	ListByItemID(ctx context.Context, itemID string) ([]*Account, error)
	List(ctx context.Context) ([]*Account, error)
	ListItemIDs(ctx context.Context) ([]string, error)
}

// Package transaction holds the transaction domain entity and its
// persistence contract.
package transaction

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotSaved            = errors.New("batch upsert affected no rows")
)

// Transaction represents a single account movement synced from the provider.
// The amount sign is preserved verbatim: positive is an inflow, negative an
// outflow. Category is nil when the provider did not classify the movement;
// the "Other" substitution happens at report time, not here.
type Transaction struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"accountId"`
	Amount      float64      `json:"amount"`
	Date        time.Time    `json:"date"`
	Category    *string      `json:"category"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Type        string       `json:"type"`
	PaymentData *PaymentData `json:"paymentData,omitempty"`
	Merchant    *Merchant    `json:"merchant,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// DocumentNumber identifies a payment counterparty document (CPF/CNPJ).
type DocumentNumber struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// PaymentParticipant holds the bank routing details of one side of a payment.
type PaymentParticipant struct {
	DocumentNumber *DocumentNumber `json:"documentNumber,omitempty"`
	BranchNumber   string          `json:"branchNumber,omitempty"`
	AccountNumber  string          `json:"accountNumber,omitempty"`
	RoutingNumber  string          `json:"routingNumber,omitempty"`
}

// PaymentData is the structured counterparty information the provider
// attaches to transfer-style transactions.
type PaymentData struct {
	Payer           *PaymentParticipant `json:"payer,omitempty"`
	Receiver        *PaymentParticipant `json:"receiver,omitempty"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	ReferenceNumber string              `json:"referenceNumber,omitempty"`
	Reason          string              `json:"reason,omitempty"`
}

// Merchant is the provider's merchant descriptor for card transactions.
type Merchant struct {
	Name         string `json:"name,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	CNPJ         string `json:"cnpj,omitempty"`
	CNAE         string `json:"cnae,omitempty"`
	Category     string `json:"category,omitempty"`
}

// Value implements driver.Valuer so PaymentData persists as JSONB.
func (p *PaymentData) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB columns.
func (p *PaymentData) Scan(src any) error {
	return scanJSON(p, src)
}

// Value implements driver.Valuer so Merchant persists as JSONB.
func (m *Merchant) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *Merchant) Scan(src any) error {
	return scanJSON(m, src)
}

func scanJSON(dst any, src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", src)
	}
}

// UpsertParams contains parameters for upserting one transaction row.
type UpsertParams struct {
	ID          string
	AccountID   string
	Amount      float64
	Date        time.Time
	Category    *string
	Description string
	Status      string
	Type        string
	PaymentData *PaymentData
	Merchant    *Merchant
}

// Filter narrows transaction listings. ItemID filters through the owning
// account; a zero Limit means no cap.
type Filter struct {
	ItemID    string
	AccountID string
	Limit     int
}

// Repository defines the persistence operations for transactions.
// UpsertBatch is conflict-safe on the transaction id (full row replace,
// last write wins) and returns the number of rows actually written; zero
// written rows for a non-empty batch is reported as ErrNotSaved.
type Repository interface {
	UpsertBatch(ctx context.Context, batch []UpsertParams) (int64, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context, filter Filter) ([]*Transaction, error)
	ListByItemID(ctx context.Context, itemID string) ([]*Transaction, error)
}

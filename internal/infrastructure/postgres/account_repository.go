package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/camillodev/my-expenses/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, item_id, name, account_type, subtype, balance, currency_code,
       credit_limit, available_credit, current_invoice, created_at, updated_at`

// Upsert creates or updates an account row keyed on its provider id. The
// RETURNING clause confirms the write; a result with no row means the
// statement silently matched nothing and is reported as ErrNotSaved.
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", account.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO accounts (
			id, item_id, name, account_type, subtype, balance, currency_code,
			credit_limit, available_credit, current_invoice
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			item_id = EXCLUDED.item_id,
			name = EXCLUDED.name,
			account_type = EXCLUDED.account_type,
			subtype = EXCLUDED.subtype,
			balance = EXCLUDED.balance,
			currency_code = EXCLUDED.currency_code,
			credit_limit = EXCLUDED.credit_limit,
			available_credit = EXCLUDED.available_credit,
			current_invoice = EXCLUDED.current_invoice,
			updated_at = CURRENT_TIMESTAMP
		RETURNING ` + accountColumns

	row := r.db.QueryRowContext(
		ctx, query,
		params.ID, params.ItemID, params.Name, params.AccountType, params.Subtype,
		params.Balance, params.CurrencyCode,
		nullFloat64(params.CreditLimit), nullFloat64(params.AvailableCredit), nullFloat64(params.CurrentInvoice),
	)

	acc, err := scanAccountRow(row)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotSaved
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccountRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// ListByItemID retrieves all accounts belonging to a connection item
func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE item_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccountRows(rows)
}

// List retrieves every stored account
func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccountRows(rows)
}

// ListItemIDs retrieves the distinct item ids present in the accounts table.
// The scheduler uses this as the set of connections to refresh.
func (r *AccountRepository) ListItemIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT item_id FROM accounts ORDER BY item_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list item ids: %w", err)
	}
	defer rows.Close()

	var itemIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item ids: %w", err)
	}

	return itemIDs, nil
}

// scanner abstracts *sql.Rows and the traced row wrapper.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(s scanner) (*account.Account, error) {
	var acc account.Account
	var creditLimit, availableCredit, currentInvoice sql.NullFloat64

	err := s.Scan(
		&acc.ID, &acc.ItemID, &acc.Name, &acc.AccountType, &acc.Subtype,
		&acc.Balance, &acc.CurrencyCode,
		&creditLimit, &availableCredit, &currentInvoice,
		&acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.CreditLimit = floatPtr(creditLimit)
	acc.AvailableCredit = floatPtr(availableCredit)
	acc.CurrentInvoice = floatPtr(currentInvoice)

	return &acc, nil
}

func scanAccountRows(rows *sql.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Helper functions

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/camillodev/my-expenses/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, account_id, amount, date, category, description, status, type,
       payment_data, merchant, created_at, updated_at`

const transactionFieldCount = 10

// UpsertBatch writes a batch of transactions in one multi-row statement,
// conflict-safe on the transaction id (last write wins). It returns the
// number of rows actually written; zero rows for a non-empty batch means
// the write silently did nothing and is reported as ErrNotSaved.
func (r *TransactionRepository) UpsertBatch(ctx context.Context, batch []transaction.UpsertParams) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	valueStrings := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*transactionFieldCount)

	for i, params := range batch {
		base := i * transactionFieldCount
		placeholders := make([]string, transactionFieldCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")

		args = append(args,
			params.ID, params.AccountID, params.Amount, params.Date,
			nullStringPtr(params.Category), params.Description, params.Status, params.Type,
			params.PaymentData, params.Merchant,
		)
	}

	query := `
		INSERT INTO transactions (
			id, account_id, amount, date, category, description, status, type,
			payment_data, merchant
		)
		VALUES ` + strings.Join(valueStrings, ", ") + `
		ON CONFLICT (id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			type = EXCLUDED.type,
			payment_data = EXCLUDED.payment_data,
			merchant = EXCLUDED.merchant,
			updated_at = CURRENT_TIMESTAMP
	`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert transactions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, transaction.ErrNotSaved
	}

	return affected, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransactionRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// List retrieves transactions matching the filter, newest first. The ItemID
// filter resolves through the owning account.
func (r *TransactionRepository) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	var b strings.Builder
	b.WriteString(`SELECT t.id, t.account_id, t.amount, t.date, t.category, t.description, t.status, t.type,
       t.payment_data, t.merchant, t.created_at, t.updated_at
		FROM transactions t`)

	var args []any
	var conditions []string

	if filter.ItemID != "" {
		b.WriteString(` JOIN accounts a ON a.id = t.account_id`)
		args = append(args, filter.ItemID)
		conditions = append(conditions, fmt.Sprintf("a.item_id = $%d", len(args)))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("t.account_id = $%d", len(args)))
	}

	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY t.date DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactionRows(rows)
}

// ListByItemID retrieves every transaction belonging to a connection item.
func (r *TransactionRepository) ListByItemID(ctx context.Context, itemID string) ([]*transaction.Transaction, error) {
	return r.List(ctx, transaction.Filter{ItemID: itemID})
}

func scanTransactionRow(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var category sql.NullString
	var paymentData transaction.PaymentData
	var merchant transaction.Merchant
	paymentDataCol := nullJSON{dst: &paymentData}
	merchantCol := nullJSON{dst: &merchant}

	err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.Amount, &tx.Date,
		&category, &tx.Description, &tx.Status, &tx.Type,
		&paymentDataCol, &merchantCol,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		tx.Category = &category.String
	}
	if paymentDataCol.valid {
		tx.PaymentData = &paymentData
	}
	if merchantCol.valid {
		tx.Merchant = &merchant
	}

	return &tx, nil
}

func scanTransactionRows(rows *sql.Rows) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// nullJSON scans a nullable JSONB column into dst and records whether the
// column held a value.
type nullJSON struct {
	dst interface{ Scan(src any) error }

	valid bool
}

func (n *nullJSON) Scan(src any) error {
	if src == nil {
		return nil
	}
	n.valid = true
	return n.dst.Scan(src)
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

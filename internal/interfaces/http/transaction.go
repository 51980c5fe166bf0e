package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/camillodev/my-expenses/internal/domain/transaction"
)

// TransactionHandler serves stored transactions.
type TransactionHandler struct {
	transactions transaction.Repository
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactions transaction.Repository) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// HandleListTransactions returns stored transactions, newest first, filtered
// by item and/or account with an optional result cap.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := transaction.Filter{
		ItemID:    r.URL.Query().Get("itemId"),
		AccountID: r.URL.Query().Get("accountId"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	txs, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		log.Printf("Error listing transactions: %v", err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	if txs == nil {
		txs = []*transaction.Transaction{}
	}

	writeJSON(w, http.StatusOK, txs)
}

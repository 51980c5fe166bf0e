// Package http contains the HTTP handlers of the sync API.
package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/camillodev/my-expenses/internal/domain/account"
)

// AccountHandler serves stored accounts.
type AccountHandler struct {
	accounts account.Repository
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts account.Repository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleListAccounts returns stored accounts, optionally filtered by item.
// Reads never reach the provider; the rows are whatever the last sync wrote.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		accounts []*account.Account
		err      error
	)
	if itemID := r.URL.Query().Get("itemId"); itemID != "" {
		accounts, err = h.accounts.ListByItemID(r.Context(), itemID)
	} else {
		accounts, err = h.accounts.List(r.Context())
	}
	if err != nil {
		log.Printf("Error listing accounts: %v", err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []*account.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

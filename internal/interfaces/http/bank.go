package http

import (
	"log"
	"net/http"
	"sort"

	"github.com/camillodev/my-expenses/internal/domain/account"
	"github.com/camillodev/my-expenses/internal/domain/bank"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
)

// BankHandler serves the connected-bank and connector-status views. Both are
// derived on read: stored item ids are resolved against the provider's item
// and connector endpoints.
type BankHandler struct {
	client   pluggy.ClientInterface
	accounts account.Repository
	matcher  *bank.Matcher
}

// NewBankHandler creates a new bank handler
func NewBankHandler(client pluggy.ClientInterface, accounts account.Repository, matcher *bank.Matcher) *BankHandler {
	return &BankHandler{client: client, accounts: accounts, matcher: matcher}
}

// HandleListBanks returns every connected bank, newest connection first.
// Items that fail to resolve at the provider are skipped, not fatal.
func (h *BankHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemIDs, err := h.accounts.ListItemIDs(r.Context())
	if err != nil {
		log.Printf("Error listing item ids: %v", err)
		http.Error(w, "Failed to list banks", http.StatusInternalServerError)
		return
	}

	banks := make([]bank.Bank, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		item, err := h.client.FetchItem(r.Context(), itemID)
		if err != nil {
			log.Printf("Skipping item %s: %v", itemID, err)
			continue
		}

		bankName := item.Connector.Name
		if target := h.matcher.ResolveByConnectorName(item.Connector.Name); target != nil {
			bankName = target.Name
		}

		banks = append(banks, bank.Bank{
			ItemID:        item.ID,
			ConnectorID:   item.Connector.ID,
			BankName:      bankName,
			Status:        item.Status,
			CreatedAt:     item.CreatedAt,
			LastUpdatedAt: item.UpdatedAt,
		})
	}

	sort.Slice(banks, func(i, j int) bool {
		return banks[i].CreatedAt.After(banks[j].CreatedAt)
	})

	writeJSON(w, http.StatusOK, banks)
}

// HandleListConnectors returns, for each target institution, its connector in
// the provider catalog and the connection state derived from stored items.
func (h *BankHandler) HandleListConnectors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	connectors, err := h.client.FetchConnectors(r.Context())
	if err != nil {
		log.Printf("Error fetching connector catalog: %v", err)
		http.Error(w, "Failed to fetch connectors", http.StatusInternalServerError)
		return
	}

	itemIDs, err := h.accounts.ListItemIDs(r.Context())
	if err != nil {
		log.Printf("Error listing item ids: %v", err)
		http.Error(w, "Failed to list connectors", http.StatusInternalServerError)
		return
	}

	var items []*pluggy.Item
	for _, itemID := range itemIDs {
		item, err := h.client.FetchItem(r.Context(), itemID)
		if err != nil {
			log.Printf("Skipping item %s: %v", itemID, err)
			continue
		}
		items = append(items, item)
	}

	statuses := make([]bank.ConnectorStatus, 0, len(h.matcher.Targets()))
	for _, target := range h.matcher.Targets() {
		status := bank.ConnectorStatus{
			Name:    target.Name,
			ItemIDs: []string{},
		}

		for _, conn := range connectors {
			if bank.Matches(conn.Name, target) {
				id := conn.ID
				status.ConnectorID = &id
				status.ConnectorName = conn.Name
				break
			}
		}

		var latest *pluggy.Item
		for _, item := range items {
			if !bank.Matches(item.Connector.Name, target) {
				continue
			}
			status.ItemIDs = append(status.ItemIDs, item.ID)
			if latest == nil || item.UpdatedAt.After(latest.UpdatedAt) {
				latest = item
			}
		}
		if latest != nil {
			status.IsConnected = true
			s := latest.Status
			status.Status = &s
		}

		statuses = append(statuses, status)
	}

	writeJSON(w, http.StatusOK, statuses)
}

package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/camillodev/my-expenses/internal/domain/account"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
)

// InvestmentHandler serves the investment positions of one item. Reads are
// store-first; the provider is consulted only when nothing is stored yet,
// and whatever it returns is persisted best-effort for the next read.
type InvestmentHandler struct {
	client   pluggy.ClientInterface
	accounts account.Repository
}

// NewInvestmentHandler creates a new investment handler
func NewInvestmentHandler(client pluggy.ClientInterface, accounts account.Repository) *InvestmentHandler {
	return &InvestmentHandler{client: client, accounts: accounts}
}

// HandleListInvestments returns the investment accounts of an item. The
// itemId parameter is mandatory.
func (h *InvestmentHandler) HandleListInvestments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		http.Error(w, "itemId is required", http.StatusBadRequest)
		return
	}

	stored, err := h.accounts.ListByItemID(r.Context(), itemID)
	if err != nil {
		log.Printf("Error listing accounts for item %s: %v", itemID, err)
		http.Error(w, "Failed to list investments", http.StatusInternalServerError)
		return
	}

	investments := filterInvestments(stored)
	if len(investments) > 0 {
		writeJSON(w, http.StatusOK, investments)
		return
	}

	fetched, err := h.fetchInvestments(r.Context(), itemID)
	if err != nil {
		log.Printf("Error fetching investments for item %s: %v", itemID, err)
		http.Error(w, "Failed to fetch investments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, fetched)
}

// fetchInvestments pulls the item's investments from the provider, falling
// back to subtype filtering of its accounts when the dedicated endpoint is
// unsupported. Each position is persisted as an investment account row;
// persistence failures only log, the fetched data is still served.
func (h *InvestmentHandler) fetchInvestments(ctx context.Context, itemID string) ([]*account.Account, error) {
	positions, err := h.client.FetchInvestments(ctx, itemID)
	if errors.Is(err, pluggy.ErrInvestmentsUnsupported) {
		return h.fetchInvestmentAccounts(ctx, itemID)
	}
	if err != nil {
		return nil, err
	}

	investments := make([]*account.Account, 0, len(positions))
	for _, inv := range positions {
		params := account.UpsertParams{
			ID:           inv.ID,
			ItemID:       itemID,
			Name:         inv.Name,
			AccountType:  account.TypeInvestment,
			Subtype:      account.SubtypeInvestment,
			CurrencyCode: inv.CurrencyCode,
		}
		if inv.Balance != nil {
			params.Balance = *inv.Balance
		}

		saved, err := h.accounts.Upsert(ctx, params)
		if err != nil {
			log.Printf("Failed to persist investment %s: %v", inv.ID, err)
			saved = &account.Account{
				ID:           params.ID,
				ItemID:       params.ItemID,
				Name:         params.Name,
				AccountType:  params.AccountType,
				Subtype:      params.Subtype,
				Balance:      params.Balance,
				CurrencyCode: params.CurrencyCode,
			}
		}
		investments = append(investments, saved)
	}

	return investments, nil
}

// fetchInvestmentAccounts is the fallback for providers without an
// investments endpoint: the item's accounts filtered by investment subtype,
// persisted with the type forced to investment so the next read is
// store-only.
func (h *InvestmentHandler) fetchInvestmentAccounts(ctx context.Context, itemID string) ([]*account.Account, error) {
	apiAccounts, err := h.client.FetchAccounts(ctx, itemID)
	if err != nil {
		return nil, err
	}

	investments := make([]*account.Account, 0)
	for _, apiAccount := range apiAccounts {
		if !account.IsInvestment(account.NormalizeSubtype(apiAccount.Subtype)) {
			continue
		}

		params := account.UpsertParams{
			ID:           apiAccount.ID,
			ItemID:       itemID,
			Name:         apiAccount.Name,
			AccountType:  account.TypeInvestment,
			Subtype:      account.SubtypeInvestment,
			CurrencyCode: apiAccount.CurrencyCode,
		}
		if apiAccount.Balance != nil {
			params.Balance = *apiAccount.Balance
		}

		saved, err := h.accounts.Upsert(ctx, params)
		if err != nil {
			log.Printf("Failed to persist investment account %s: %v", apiAccount.ID, err)
			saved = &account.Account{
				ID:           params.ID,
				ItemID:       params.ItemID,
				Name:         params.Name,
				AccountType:  params.AccountType,
				Subtype:      params.Subtype,
				Balance:      params.Balance,
				CurrencyCode: params.CurrencyCode,
			}
		}
		investments = append(investments, saved)
	}

	return investments, nil
}

func filterInvestments(accounts []*account.Account) []*account.Account {
	investments := make([]*account.Account, 0)
	for _, acc := range accounts {
		if acc.AccountType == account.TypeInvestment || account.IsInvestment(acc.Subtype) {
			investments = append(investments, acc)
		}
	}
	return investments
}

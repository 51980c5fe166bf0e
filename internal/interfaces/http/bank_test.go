package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/camillodev/my-expenses/internal/domain/bank"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
)

func testItems() map[string]*pluggy.Item {
	return map[string]*pluggy.Item{
		"item-1": {
			ID:        "item-1",
			Connector: pluggy.ItemConnector{ID: 612, Name: "Nubank"},
			Status:    bank.StatusUpdated,
			CreatedAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		"item-2": {
			ID:        "item-2",
			Connector: pluggy.ItemConnector{ID: 217, Name: "Banco Bradesco S.A."},
			Status:    bank.StatusLoginError,
			CreatedAt: time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestHandleListBanks(t *testing.T) {
	items := testItems()
	repo := &MockAccountRepo{
		ListItemIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"item-1", "item-2", "item-broken"}, nil
		},
	}
	client := &MockClient{
		FetchItemFunc: func(ctx context.Context, itemID string) (*pluggy.Item, error) {
			if item, ok := items[itemID]; ok {
				return item, nil
			}
			return nil, errors.New("item not found")
		},
	}
	handler := NewBankHandler(client, repo, bank.NewMatcher(bank.DefaultTargets()))

	req := httptest.NewRequest(http.MethodGet, "/api/banks", nil)
	rec := httptest.NewRecorder()
	handler.HandleListBanks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []bank.Bank
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// The unresolvable item is skipped, the rest sorted newest first.
	if len(got) != 2 {
		t.Fatalf("banks = %v, want 2 entries", got)
	}
	if got[0].ItemID != "item-2" || got[1].ItemID != "item-1" {
		t.Errorf("order = [%s %s], want [item-2 item-1]", got[0].ItemID, got[1].ItemID)
	}
	if got[1].BankName != "Nubank" {
		t.Errorf("BankName = %q, want Nubank", got[1].BankName)
	}
	if got[0].BankName != "Bradesco" {
		t.Errorf("BankName = %q, want Bradesco (resolved target name)", got[0].BankName)
	}
}

func TestHandleListConnectors(t *testing.T) {
	items := testItems()
	repo := &MockAccountRepo{
		ListItemIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"item-1", "item-2"}, nil
		},
	}
	client := &MockClient{
		FetchConnectorsFunc: func(ctx context.Context) ([]pluggy.Connector, error) {
			return []pluggy.Connector{
				{ID: 612, Name: "Nubank"},
				{ID: 217, Name: "Banco Bradesco S.A."},
				{ID: 999, Name: "Random Bank"},
			}, nil
		},
		FetchItemFunc: func(ctx context.Context, itemID string) (*pluggy.Item, error) {
			return items[itemID], nil
		},
	}
	handler := NewBankHandler(client, repo, bank.NewMatcher(bank.DefaultTargets()))

	req := httptest.NewRequest(http.MethodGet, "/api/connectors", nil)
	rec := httptest.NewRecorder()
	handler.HandleListConnectors(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []bank.ConnectorStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("statuses = %v, want one entry per target", got)
	}

	byName := make(map[string]bank.ConnectorStatus)
	for _, s := range got {
		byName[s.Name] = s
	}

	nubank := byName["Nubank"]
	if !nubank.IsConnected || len(nubank.ItemIDs) != 1 || nubank.ItemIDs[0] != "item-1" {
		t.Errorf("Nubank = %+v, want connected through item-1", nubank)
	}
	if nubank.ConnectorID == nil || *nubank.ConnectorID != 612 {
		t.Errorf("Nubank.ConnectorID = %v, want 612", nubank.ConnectorID)
	}
	if nubank.Status == nil || *nubank.Status != bank.StatusUpdated {
		t.Errorf("Nubank.Status = %v, want UPDATED", nubank.Status)
	}

	bradesco := byName["Bradesco"]
	if bradesco.Status == nil || *bradesco.Status != bank.StatusLoginError {
		t.Errorf("Bradesco.Status = %v, want LOGIN_ERROR", bradesco.Status)
	}

	xp := byName["XP"]
	if xp.IsConnected || len(xp.ItemIDs) != 0 || xp.Status != nil {
		t.Errorf("XP = %+v, want disconnected", xp)
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camillodev/my-expenses/internal/domain/account"
	"github.com/camillodev/my-expenses/internal/domain/sync"
	"github.com/camillodev/my-expenses/internal/domain/transaction"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
)

// MockAccountRepo implements account.Repository
type MockAccountRepo struct {
	UpsertFunc       func(ctx context.Context, params account.UpsertParams) (*account.Account, error)
	GetByIDFunc      func(ctx context.Context, id string) (*account.Account, error)
	ListByItemIDFunc func(ctx context.Context, itemID string) ([]*account.Account, error)
	ListFunc         func(ctx context.Context) ([]*account.Account, error)
	ListItemIDsFunc  func(ctx context.Context) ([]string, error)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return &account.Account{ID: params.ID, ItemID: params.ItemID}, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	if m.ListByItemIDFunc != nil {
		return m.ListByItemIDFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*account.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListItemIDs(ctx context.Context) ([]string, error) {
	if m.ListItemIDsFunc != nil {
		return m.ListItemIDsFunc(ctx)
	}
	return nil, nil
}

// MockTransactionRepo implements transaction.Repository
type MockTransactionRepo struct {
	UpsertBatchFunc  func(ctx context.Context, batch []transaction.UpsertParams) (int64, error)
	GetByIDFunc      func(ctx context.Context, id string) (*transaction.Transaction, error)
	ListFunc         func(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
	ListByItemIDFunc func(ctx context.Context, itemID string) ([]*transaction.Transaction, error)
}

func (m *MockTransactionRepo) UpsertBatch(ctx context.Context, batch []transaction.UpsertParams) (int64, error) {
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, batch)
	}
	return int64(len(batch)), nil
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockTransactionRepo) ListByItemID(ctx context.Context, itemID string) ([]*transaction.Transaction, error) {
	if m.ListByItemIDFunc != nil {
		return m.ListByItemIDFunc(ctx, itemID)
	}
	return nil, nil
}

// MockClient implements pluggy.ClientInterface
type MockClient struct {
	FetchAccountFunc         func(ctx context.Context, accountID string) (*pluggy.Account, error)
	FetchAccountsFunc        func(ctx context.Context, itemID string) ([]pluggy.Account, error)
	FetchAllTransactionsFunc func(ctx context.Context, accountID string) ([]pluggy.Transaction, error)
	FetchItemFunc            func(ctx context.Context, itemID string) (*pluggy.Item, error)
	FetchConnectorFunc       func(ctx context.Context, connectorID int) (*pluggy.Connector, error)
	FetchConnectorsFunc      func(ctx context.Context) ([]pluggy.Connector, error)
	FetchInvestmentsFunc     func(ctx context.Context, itemID string) ([]pluggy.Investment, error)
}

func (m *MockClient) FetchAccount(ctx context.Context, accountID string) (*pluggy.Account, error) {
	if m.FetchAccountFunc != nil {
		return m.FetchAccountFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockClient) FetchAccounts(ctx context.Context, itemID string) ([]pluggy.Account, error) {
	if m.FetchAccountsFunc != nil {
		return m.FetchAccountsFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *MockClient) FetchAllTransactions(ctx context.Context, accountID string) ([]pluggy.Transaction, error) {
	if m.FetchAllTransactionsFunc != nil {
		return m.FetchAllTransactionsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockClient) FetchItem(ctx context.Context, itemID string) (*pluggy.Item, error) {
	if m.FetchItemFunc != nil {
		return m.FetchItemFunc(ctx, itemID)
	}
	return nil, errors.New("item not found")
}

func (m *MockClient) FetchConnector(ctx context.Context, connectorID int) (*pluggy.Connector, error) {
	if m.FetchConnectorFunc != nil {
		return m.FetchConnectorFunc(ctx, connectorID)
	}
	return nil, nil
}

func (m *MockClient) FetchConnectors(ctx context.Context) ([]pluggy.Connector, error) {
	if m.FetchConnectorsFunc != nil {
		return m.FetchConnectorsFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) FetchInvestments(ctx context.Context, itemID string) ([]pluggy.Investment, error) {
	if m.FetchInvestmentsFunc != nil {
		return m.FetchInvestmentsFunc(ctx, itemID)
	}
	return nil, pluggy.ErrInvestmentsUnsupported
}

// MockSyncService implements SyncService
type MockSyncService struct {
	SyncItemFunc func(ctx context.Context, itemID string) (*sync.Result, error)
}

func (m *MockSyncService) SyncItem(ctx context.Context, itemID string) (*sync.Result, error) {
	if m.SyncItemFunc != nil {
		return m.SyncItemFunc(ctx, itemID)
	}
	return &sync.Result{ItemID: itemID, Errors: []string{}}, nil
}

func TestHandleListAccountsByItem(t *testing.T) {
	repo := &MockAccountRepo{
		ListByItemIDFunc: func(ctx context.Context, itemID string) ([]*account.Account, error) {
			if itemID != "item-1" {
				t.Errorf("itemID = %q, want item-1", itemID)
			}
			return []*account.Account{{ID: "acc-1", ItemID: itemID}}, nil
		},
	}
	handler := NewAccountHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts?itemId=item-1", nil)
	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []account.Account
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "acc-1" {
		t.Errorf("accounts = %v, want one account acc-1", got)
	}
}

func TestHandleListAccountsEmptyIsArray(t *testing.T) {
	handler := NewAccountHandler(&MockAccountRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestHandleListTransactionsLimit(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantFilter *transaction.Filter
	}{
		{
			name:       "valid filters",
			url:        "/api/transactions?itemId=item-1&accountId=acc-1&limit=10",
			wantStatus: http.StatusOK,
			wantFilter: &transaction.Filter{ItemID: "item-1", AccountID: "acc-1", Limit: 10},
		},
		{
			name:       "invalid limit",
			url:        "/api/transactions?limit=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative limit",
			url:        "/api/transactions?limit=-1",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter transaction.Filter
			repo := &MockTransactionRepo{
				ListFunc: func(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
					gotFilter = filter
					return nil, nil
				},
			}
			handler := NewTransactionHandler(repo)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			handler.HandleListTransactions(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantFilter != nil && gotFilter != *tt.wantFilter {
				t.Errorf("filter = %+v, want %+v", gotFilter, *tt.wantFilter)
			}
		})
	}
}

func TestHandleListInvestmentsRequiresItemID(t *testing.T) {
	handler := NewInvestmentHandler(&MockClient{}, &MockAccountRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/investments", nil)
	rec := httptest.NewRecorder()
	handler.HandleListInvestments(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListInvestmentsStoreFirst(t *testing.T) {
	stored := []*account.Account{
		{ID: "inv-1", ItemID: "item-1", AccountType: account.TypeInvestment, Subtype: account.SubtypeInvestment},
		{ID: "acc-1", ItemID: "item-1", AccountType: "BANK", Subtype: account.SubtypeChecking},
	}
	repo := &MockAccountRepo{
		ListByItemIDFunc: func(ctx context.Context, itemID string) ([]*account.Account, error) {
			return stored, nil
		},
	}
	client := &MockClient{
		FetchInvestmentsFunc: func(ctx context.Context, itemID string) ([]pluggy.Investment, error) {
			t.Error("provider should not be consulted when investments are stored")
			return nil, nil
		},
	}
	handler := NewInvestmentHandler(client, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/investments?itemId=item-1", nil)
	rec := httptest.NewRecorder()
	handler.HandleListInvestments(rec, req)

	var got []account.Account
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "inv-1" {
		t.Errorf("investments = %v, want only inv-1", got)
	}
}

func TestHandleListInvestmentsFetchesAndPersists(t *testing.T) {
	balance := 1500.0
	var persisted []account.UpsertParams
	repo := &MockAccountRepo{
		ListByItemIDFunc: func(ctx context.Context, itemID string) ([]*account.Account, error) {
			return nil, nil
		},
		UpsertFunc: func(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
			persisted = append(persisted, params)
			return &account.Account{ID: params.ID, AccountType: params.AccountType, Balance: params.Balance}, nil
		},
	}
	client := &MockClient{
		FetchInvestmentsFunc: func(ctx context.Context, itemID string) ([]pluggy.Investment, error) {
			return []pluggy.Investment{
				{ID: "inv-1", ItemID: itemID, Name: "CDB", Type: "FIXED_INCOME", Balance: &balance, CurrencyCode: "BRL"},
			}, nil
		},
	}
	handler := NewInvestmentHandler(client, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/investments?itemId=item-1", nil)
	rec := httptest.NewRecorder()
	handler.HandleListInvestments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(persisted) != 1 || persisted[0].AccountType != account.TypeInvestment {
		t.Errorf("persisted = %+v, want one investment account row", persisted)
	}
}

func TestHandleListInvestmentsFallbackPersists(t *testing.T) {
	balance := 5000.0
	var persisted []account.UpsertParams
	repo := &MockAccountRepo{
		ListByItemIDFunc: func(ctx context.Context, itemID string) ([]*account.Account, error) {
			return nil, nil
		},
		UpsertFunc: func(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
			persisted = append(persisted, params)
			return &account.Account{ID: params.ID, AccountType: params.AccountType, Subtype: params.Subtype, Balance: params.Balance}, nil
		},
	}
	client := &MockClient{
		FetchInvestmentsFunc: func(ctx context.Context, itemID string) ([]pluggy.Investment, error) {
			return nil, pluggy.ErrInvestmentsUnsupported
		},
		FetchAccountsFunc: func(ctx context.Context, itemID string) ([]pluggy.Account, error) {
			return []pluggy.Account{
				{ID: "acc-1", ItemID: itemID, Name: "Checking", Type: "BANK", Subtype: "CHECKING_ACCOUNT", Balance: &balance, CurrencyCode: "BRL"},
				{ID: "acc-2", ItemID: itemID, Name: "Brokerage", Type: "BANK", Subtype: "BROKERAGE", Balance: &balance, CurrencyCode: "BRL"},
			}, nil
		},
	}
	handler := NewInvestmentHandler(client, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/investments?itemId=item-1", nil)
	rec := httptest.NewRecorder()
	handler.HandleListInvestments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(persisted) != 1 {
		t.Fatalf("persisted = %+v, want only the brokerage account", persisted)
	}
	if persisted[0].ID != "acc-2" || persisted[0].AccountType != account.TypeInvestment {
		t.Errorf("persisted = %+v, want acc-2 stored with the investment type", persisted[0])
	}

	var got []account.Account
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "acc-2" {
		t.Errorf("investments = %v, want only acc-2", got)
	}
}

func TestHandleCategoryReportRequiresItemID(t *testing.T) {
	handler := NewReportHandler(&MockTransactionRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()
	handler.HandleCategoryReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCategoryReport(t *testing.T) {
	food := "Food"
	repo := &MockTransactionRepo{
		ListByItemIDFunc: func(ctx context.Context, itemID string) ([]*transaction.Transaction, error) {
			return []*transaction.Transaction{
				{ID: "t1", Amount: -50, Category: &food, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
				{ID: "t2", Amount: 10, Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	handler := NewReportHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/report?itemId=item-1", nil)
	rec := httptest.NewRecorder()
	handler.HandleCategoryReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		CategoryBalances []struct {
			Category string  `json:"category"`
			Balance  float64 `json:"balance"`
		} `json:"categoryBalances"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got.CategoryBalances) != 2 {
		t.Fatalf("categoryBalances = %v, want 2 entries", got.CategoryBalances)
	}
	if got.CategoryBalances[0].Category != "Food" || got.CategoryBalances[1].Category != "Other" {
		t.Errorf("categories = %v, want [Food Other]", got.CategoryBalances)
	}
}

func TestHandleSyncItem(t *testing.T) {
	svc := &MockSyncService{
		SyncItemFunc: func(ctx context.Context, itemID string) (*sync.Result, error) {
			return &sync.Result{ItemID: itemID, AccountsFound: 2, AccountsSaved: 2, Errors: []string{}}, nil
		},
	}
	handler := NewSyncHandler(svc)

	body := strings.NewReader(`{"itemId":"b1f7c6aa-3c1f-4f08-9f2e-1f6a2d9c0e11"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/items", body)
	rec := httptest.NewRecorder()
	handler.HandleSyncItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got sync.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.AccountsSaved != 2 {
		t.Errorf("AccountsSaved = %d, want 2", got.AccountsSaved)
	}
}

func TestHandleSyncItemValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		syncErr    error
		wantStatus int
	}{
		{name: "missing itemId", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest},
		{
			name:       "invalid uuid",
			body:       `{"itemId":"nope"}`,
			syncErr:    fmt.Errorf("%w: bad id", account.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "sync failure",
			body:       `{"itemId":"b1f7c6aa-3c1f-4f08-9f2e-1f6a2d9c0e11"}`,
			syncErr:    errors.New("provider down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockSyncService{
				SyncItemFunc: func(ctx context.Context, itemID string) (*sync.Result, error) {
					if tt.syncErr != nil {
						return nil, tt.syncErr
					}
					return &sync.Result{ItemID: itemID, Errors: []string{}}, nil
				},
			}
			handler := NewSyncHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.HandleSyncItem(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleWebhook(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantSync bool
	}{
		{name: "item updated", body: `{"event":"ITEM_UPDATED","itemId":"item-1"}`, wantSync: true},
		{name: "other event", body: `{"event":"ITEM_CREATED","itemId":"item-1"}`, wantSync: false},
		{name: "missing itemId", body: `{"event":"ITEM_UPDATED"}`, wantSync: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synced := false
			svc := &MockSyncService{
				SyncItemFunc: func(ctx context.Context, itemID string) (*sync.Result, error) {
					synced = true
					return &sync.Result{ItemID: itemID, Errors: []string{}}, nil
				},
			}
			handler := NewSyncHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.HandleWebhook(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if synced != tt.wantSync {
				t.Errorf("synced = %v, want %v", synced, tt.wantSync)
			}

			var got webhookResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !got.Received {
				t.Error("response should acknowledge receipt")
			}
		})
	}
}

func TestHandleWebhookSyncFailureStillAcknowledges(t *testing.T) {
	svc := &MockSyncService{
		SyncItemFunc: func(ctx context.Context, itemID string) (*sync.Result, error) {
			return nil, errors.New("provider down")
		},
	}
	handler := NewSyncHandler(svc)

	body := strings.NewReader(`{"event":"ITEM_UPDATED","itemId":"item-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", body)
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even when the sync fails", rec.Code)
	}
}

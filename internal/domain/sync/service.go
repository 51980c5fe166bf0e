// Package sync orchestrates the full refresh of one bank connection:
// fetching accounts, transactions and investments from the provider and
// persisting them idempotently.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/camillodev/my-expenses/internal/domain/account"
	"github.com/camillodev/my-expenses/internal/domain/transaction"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
)

// Result contains the outcome of syncing one connection item. Errors holds
// one tagged message per failed record; partial progress is never rolled back.
type Result struct {
	ItemID            string   `json:"itemId"`
	AccountsFound     int      `json:"accountsFound"`
	AccountsSaved     int      `json:"accountsSaved"`
	TransactionsSaved int      `json:"transactionsSaved"`
	InvestmentsFound  int      `json:"investmentsFound"`
	InvestmentsSaved  int      `json:"investmentsSaved"`
	Errors            []string `json:"errors"`
}

// Service syncs connection items from the aggregation provider into storage.
type Service struct {
	client      pluggy.ClientInterface
	accountRepo account.Repository
	txRepo      transaction.Repository

	mu     gosync.Mutex
	leases map[string]*gosync.Mutex
}

// NewService creates a new sync service
func NewService(client pluggy.ClientInterface, accountRepo account.Repository, txRepo transaction.Repository) *Service {
	return &Service{
		client:      client,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		leases:      make(map[string]*gosync.Mutex),
	}
}

// lease returns the per-item mutex, creating it on first use. Overlapping
// syncs of the same item serialize; distinct items run concurrently.
func (s *Service) lease(itemID string) *gosync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leases[itemID]
	if !ok {
		l = &gosync.Mutex{}
		s.leases[itemID] = l
	}
	return l
}

// SyncItem refreshes every account, its transactions and the investment
// positions of one connection item. Per-record failures are recorded in the
// result and the sync continues; the call as a whole fails only when the
// item id is malformed, the account listing cannot be fetched, or every
// found account failed to save.
func (s *Service) SyncItem(ctx context.Context, itemID string) (*Result, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("%w: item id %q is not a valid UUID", account.ErrInvalidInput, itemID)
	}

	l := s.lease(itemID)
	l.Lock()
	defer l.Unlock()

	result := &Result{ItemID: itemID, Errors: []string{}}

	accounts, err := s.client.FetchAccounts(ctx, itemID)
	if err != nil {
		return result, fmt.Errorf("failed to fetch accounts for item %s: %w", itemID, err)
	}
	result.AccountsFound = len(accounts)

	log.Printf("Item %s: syncing %d accounts", itemID, len(accounts))

	for _, apiAccount := range accounts {
		if err := s.syncAccount(ctx, apiAccount, result); err != nil {
			errMsg := fmt.Sprintf("account %s: %v", apiAccount.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Item %s: %s", itemID, errMsg)
		}
	}

	s.syncInvestments(ctx, itemID, accounts, result)

	log.Printf("Item %s: sync complete - accounts: %d/%d, transactions: %d, errors: %d",
		itemID, result.AccountsSaved, result.AccountsFound, result.TransactionsSaved, len(result.Errors))

	if result.AccountsFound > 0 && result.AccountsSaved == 0 {
		return result, fmt.Errorf("sync of item %s failed: none of %d accounts could be saved", itemID, result.AccountsFound)
	}

	return result, nil
}

// syncAccount fetches the full account payload, normalizes and persists it,
// then syncs its transactions. Everything here is inside the per-account
// boundary: a failure skips this account's transactions but not its siblings.
func (s *Service) syncAccount(ctx context.Context, apiAccount pluggy.Account, result *Result) error {
	// The listing payload is trimmed on some connectors; the detail
	// endpoint carries the full credit block.
	detail, err := s.client.FetchAccount(ctx, apiAccount.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch details: %w", err)
	}
	if detail != nil {
		detail.ItemID = apiAccount.ItemID
		apiAccount = *detail
	}

	subtype := account.NormalizeSubtype(apiAccount.Subtype)
	credit := account.ExtractCreditFields(toCreditSource(apiAccount, subtype))

	params := account.UpsertParams{
		ID:           apiAccount.ID,
		ItemID:       apiAccount.ItemID,
		Name:         apiAccount.Name,
		AccountType:  apiAccount.Type,
		Subtype:      subtype,
		CurrencyCode: apiAccount.CurrencyCode,
	}
	if apiAccount.Balance != nil {
		params.Balance = *apiAccount.Balance
	}
	if subtype == account.SubtypeCreditCard {
		params.CreditLimit = credit.CreditLimit
		params.AvailableCredit = credit.AvailableCredit
		params.CurrentInvoice = credit.CurrentInvoice
	}

	if _, err := s.accountRepo.Upsert(ctx, params); err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}
	result.AccountsSaved++

	return s.syncTransactions(ctx, apiAccount.ID, result)
}

// syncTransactions fetches and persists the full transaction set of one
// account. A transaction whose date cannot be parsed is skipped with a
// recorded error; the rest of the batch still saves.
func (s *Service) syncTransactions(ctx context.Context, accountID string, result *Result) error {
	txs, err := s.client.FetchAllTransactions(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil
	}

	batch := make([]transaction.UpsertParams, 0, len(txs))
	for _, apiTx := range txs {
		date, err := apiTx.GetDate()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", apiTx.ID, err))
			continue
		}

		batch = append(batch, transaction.UpsertParams{
			ID:          apiTx.ID,
			AccountID:   apiTx.AccountID,
			Amount:      apiTx.Amount,
			Date:        date,
			Category:    apiTx.Category,
			Description: apiTx.Description,
			Status:      apiTx.Status,
			Type:        apiTx.Type,
			PaymentData: toPaymentData(apiTx.PaymentData),
			Merchant:    toMerchant(apiTx.Merchant),
		})
	}
	if len(batch) == 0 {
		return nil
	}

	saved, err := s.txRepo.UpsertBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to upsert %d transactions: %w", len(batch), err)
	}
	result.TransactionsSaved += int(saved)

	return nil
}

// syncInvestments persists the item's investment positions as account rows
// with the type forced to investment. Best effort: failures are recorded but
// never fail the sync. When the provider has no investments endpoint the
// already-fetched accounts are filtered by subtype and re-upserted with the
// forced type.
func (s *Service) syncInvestments(ctx context.Context, itemID string, accounts []pluggy.Account, result *Result) {
	investments, err := s.client.FetchInvestments(ctx, itemID)
	if errors.Is(err, pluggy.ErrInvestmentsUnsupported) {
		for _, apiAccount := range accounts {
			if !account.IsInvestment(account.NormalizeSubtype(apiAccount.Subtype)) {
				continue
			}
			result.InvestmentsFound++

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

			if _, err := s.accountRepo.Upsert(ctx, params); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("investment %s: %v", apiAccount.ID, err))
				continue
			}
			result.InvestmentsSaved++
		}
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("investments: %v", err))
		return
	}

	result.InvestmentsFound = len(investments)
	for _, inv := range investments {
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

		if _, err := s.accountRepo.Upsert(ctx, params); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("investment %s: %v", inv.ID, err))
			continue
		}
		result.InvestmentsSaved++
	}
}

func toCreditSource(apiAccount pluggy.Account, subtype string) account.CreditSource {
	src := account.CreditSource{
		Subtype:         subtype,
		Balance:         apiAccount.Balance,
		CreditLimit:     apiAccount.CreditLimit,
		Limit:           apiAccount.Limit,
		AvailableCredit: apiAccount.AvailableCredit,
		Available:       apiAccount.Available,
	}
	if cd := apiAccount.CreditData; cd != nil {
		src.CreditData = &account.CreditData{
			TotalCreditLimit:     cd.TotalCreditLimit,
			Limit:                cd.Limit,
			AvailableCreditLimit: cd.AvailableCreditLimit,
			AvailableCredit:      cd.AvailableCredit,
			Available:            cd.Available,
			Balance:              cd.Balance,
		}
	}
	return src
}

func toPaymentData(pd *pluggy.PaymentData) *transaction.PaymentData {
	if pd == nil {
		return nil
	}
	return &transaction.PaymentData{
		Payer:           toParticipant(pd.Payer),
		Receiver:        toParticipant(pd.Receiver),
		PaymentMethod:   pd.PaymentMethod,
		ReferenceNumber: pd.ReferenceNumber,
		Reason:          pd.Reason,
	}
}

func toParticipant(p *pluggy.PaymentParticipant) *transaction.PaymentParticipant {
	if p == nil {
		return nil
	}
	out := &transaction.PaymentParticipant{
		BranchNumber:  p.BranchNumber,
		AccountNumber: p.AccountNumber,
		RoutingNumber: p.RoutingNumber,
	}
	if p.DocumentNumber != nil {
		out.DocumentNumber = &transaction.DocumentNumber{
			Type:  p.DocumentNumber.Type,
			Value: p.DocumentNumber.Value,
		}
	}
	return out
}

func toMerchant(m *pluggy.Merchant) *transaction.Merchant {
	if m == nil {
		return nil
	}
	return &transaction.Merchant{
		Name:         m.Name,
		BusinessName: m.BusinessName,
		CNPJ:         m.CNPJ,
		CNAE:         m.CNAE,
		Category:     m.Category,
	}
}

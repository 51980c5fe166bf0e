package main

import (
	"fmt"

	"github.com/camillodev/my-expenses/internal/domain/bank"
	"github.com/camillodev/my-expenses/internal/domain/sync"
	"github.com/camillodev/my-expenses/internal/infrastructure/pluggy"
	"github.com/camillodev/my-expenses/internal/infrastructure/postgres"
	httpiface "github.com/camillodev/my-expenses/internal/interfaces/http"
	"github.com/camillodev/my-expenses/internal/shared/config"
)

// Dependencies wires the provider client, repositories, services and HTTP
// handlers together from configuration.
type Dependencies struct {
	DB *postgres.DB

	AccountRepo     *postgres.AccountRepository
	TransactionRepo *postgres.TransactionRepository

	PluggyClient *pluggy.Client
	SyncService  *sync.Service
	Matcher      *bank.Matcher

	AccountHandler     *httpiface.AccountHandler
	TransactionHandler *httpiface.TransactionHandler
	BankHandler        *httpiface.BankHandler
	InvestmentHandler  *httpiface.InvestmentHandler
	SyncHandler        *httpiface.SyncHandler
	ReportHandler      *httpiface.ReportHandler
}

func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	pluggyClient := pluggy.NewClient(pluggy.Config{
		ClientID:     cfg.Pluggy.ClientID,
		ClientSecret: cfg.Pluggy.ClientSecret,
		BaseURL:      cfg.Pluggy.BaseURL,
	})

	syncService := sync.NewService(pluggyClient, accountRepo, transactionRepo)
	matcher := bank.NewMatcher(bank.DefaultTargets())

	return &Dependencies{
		DB:                 db,
		AccountRepo:        accountRepo,
		TransactionRepo:    transactionRepo,
		PluggyClient:       pluggyClient,
		SyncService:        syncService,
		Matcher:            matcher,
		AccountHandler:     httpiface.NewAccountHandler(accountRepo),
		TransactionHandler: httpiface.NewTransactionHandler(transactionRepo),
		BankHandler:        httpiface.NewBankHandler(pluggyClient, accountRepo, matcher),
		InvestmentHandler:  httpiface.NewInvestmentHandler(pluggyClient, accountRepo),
		SyncHandler:        httpiface.NewSyncHandler(syncService),
		ReportHandler:      httpiface.NewReportHandler(transactionRepo),
	}, nil
}

// Close releases held resources.
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

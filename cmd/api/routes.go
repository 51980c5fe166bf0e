package main

import (
	"net/http"

	httpiface "github.com/camillodev/my-expenses/internal/interfaces/http"
	"github.com/camillodev/my-expenses/internal/shared/config"
	"github.com/camillodev/my-expenses/internal/shared/middleware"
)

// SetupRoutes builds the HTTP routing table and wraps it with the shared
// middleware chain (logging outermost, then CORS, then telemetry).
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", httpiface.HandleHealth)

	mux.HandleFunc("GET /api/accounts", deps.AccountHandler.HandleListAccounts)
	mux.HandleFunc("GET /api/transactions", deps.TransactionHandler.HandleListTransactions)
	mux.HandleFunc("GET /api/banks", deps.BankHandler.HandleListBanks)
	mux.HandleFunc("GET /api/connectors", deps.BankHandler.HandleListConnectors)
	mux.HandleFunc("GET /api/investments", deps.InvestmentHandler.HandleListInvestments)
	mux.HandleFunc("GET /api/report", deps.ReportHandler.HandleCategoryReport)

	mux.HandleFunc("POST /api/items", deps.SyncHandler.HandleSyncItem)
	mux.HandleFunc("POST /api/webhook", deps.SyncHandler.HandleWebhook)

	var handler http.Handler = mux
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.Logging(handler)

	return handler
}

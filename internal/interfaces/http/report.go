package http

import (
	"log"
	"net/http"

	"github.com/camillodev/my-expenses/internal/domain/report"
	"github.com/camillodev/my-expenses/internal/domain/transaction"
)

// ReportHandler serves the category spending report.
type ReportHandler struct {
	transactions transaction.Repository
}

// NewReportHandler creates a new report handler
func NewReportHandler(transactions transaction.Repository) *ReportHandler {
	return &ReportHandler{transactions: transactions}
}

// HandleCategoryReport builds the category report over the stored
// transactions of one item. The itemId parameter is mandatory.
func (h *ReportHandler) HandleCategoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		http.Error(w, "itemId is required", http.StatusBadRequest)
		return
	}

	txs, err := h.transactions.ListByItemID(r.Context(), itemID)
	if err != nil {
		log.Printf("Error listing transactions for item %s: %v", itemID, err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report.BuildCategoryReport(txs))
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/camillodev/my-expenses/internal/domain/account"
	"github.com/camillodev/my-expenses/internal/domain/sync"
)

// SyncService is the sync operation the handlers depend on.
type SyncService interface {
	SyncItem(ctx context.Context, itemID string) (*sync.Result, error)
}

// SyncHandler exposes the sync entry points: the explicit item registration
// endpoint and the provider webhook.
type SyncHandler struct {
	syncService SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

type syncItemRequest struct {
	ItemID string `json:"itemId"`
}

// HandleSyncItem registers a connection item and runs a full sync of it.
// This is the only mutating entry point of the API.
func (h *SyncHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req syncItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		http.Error(w, "itemId is required", http.StatusBadRequest)
		return
	}

	result, err := h.syncService.SyncItem(r.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, account.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Sync of item %s failed: %v", req.ItemID, err)
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type webhookRequest struct {
	Event  string `json:"event"`
	ItemID string `json:"itemId"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// HandleWebhook receives provider events. An ITEM_UPDATED event triggers a
// sync of the item; every well-formed event is acknowledged with
// {received:true} regardless of the sync outcome, so the provider never
// retries a delivery because our sync had errors.
func (h *SyncHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Event == "ITEM_UPDATED" && req.ItemID != "" {
		if _, err := h.syncService.SyncItem(r.Context(), req.ItemID); err != nil {
			log.Printf("Webhook sync of item %s failed: %v", req.ItemID, err)
		}
	} else {
		log.Printf("Ignoring webhook event %q for item %q", req.Event, req.ItemID)
	}

	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}

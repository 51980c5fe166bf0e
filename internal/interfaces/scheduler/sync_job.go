package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/camillodev/my-expenses/internal/domain/sync"
)

// SyncService is the sync operation a job needs.
type SyncService interface {
	SyncItem(ctx context.Context, itemID string) (*sync.Result, error)
}

// ItemSyncJob implements the Job interface for refreshing one connection item.
type ItemSyncJob struct {
	itemID      string
	syncService SyncService
}

// NewItemSyncJob creates a new sync job for a connection item
func NewItemSyncJob(itemID string, syncService SyncService) *ItemSyncJob {
	return &ItemSyncJob{
		itemID:      itemID,
		syncService: syncService,
	}
}

// Execute runs the item sync job
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting sync for item %s", j.itemID)

	result, err := j.syncService.SyncItem(ctx, j.itemID)
	if err != nil {
		log.Printf("Sync failed for item %s: %v", j.itemID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	if len(result.Errors) > 0 {
		log.Printf("Sync for item %s completed with errors: Accounts=%d/%d, Transactions=%d, Errors=%d",
			j.itemID, result.AccountsSaved, result.AccountsFound, result.TransactionsSaved, len(result.Errors))
		// Return error to mark for retry
		return fmt.Errorf("sync completed with %d errors", len(result.Errors))
	}

	log.Printf("Sync for item %s completed successfully: Accounts=%d, Transactions=%d",
		j.itemID, result.AccountsSaved, result.TransactionsSaved)

	return nil
}

// ItemID returns the connection item this job refreshes
func (j *ItemSyncJob) ItemID() string {
	return j.itemID
}

// Description returns a human-readable description of the job
func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Item sync for %s", j.itemID)
}

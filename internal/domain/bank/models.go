package bank

import "time"

// Item connection statuses reported by the aggregation provider.
const (
	StatusUpdated    = "UPDATED"
	StatusUpdating   = "UPDATING"
	StatusLoginError = "LOGIN_ERROR"
	StatusOutdated   = "OUTDATED"
)

// Bank is a previously connected item with its institution resolved against
// the provider's connector catalog. It is derived on read, not persisted.
type Bank struct {
	ItemID        string    `json:"itemId"`
	ConnectorID   int       `json:"connectorId"`
	BankName      string    `json:"bankName"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ConnectorStatus describes, for one target institution, whether and through
// which items it is currently connected.
type ConnectorStatus struct {
	Name          string   `json:"name"`
	ConnectorID   *int     `json:"connectorId"`
	ConnectorName string   `json:"connectorName,omitempty"`
	IsConnected   bool     `json:"isConnected"`
	Status        *string  `json:"status"`
	ItemIDs       []string `json:"itemIds"`
}

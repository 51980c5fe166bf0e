package pluggy

import (
	"fmt"
	"time"
)

// Account represents an account payload from the aggregation API. Credit
// information is inconsistently shaped across connectors: some nest it under
// creditData, others expose flat fields — every variant is modeled as an
// explicit optional field rather than probed dynamically.
type Account struct {
	ID              string      `json:"id"`
	ItemID          string      `json:"itemId"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	Subtype         string      `json:"subtype"`
	Number          string      `json:"number"`
	Balance         *float64    `json:"balance"`
	CurrencyCode    string      `json:"currencyCode"`
	MarketingName   string      `json:"marketingName,omitempty"`
	CreditLimit     *float64    `json:"creditLimit,omitempty"`
	Limit           *float64    `json:"limit,omitempty"`
	AvailableCredit *float64    `json:"availableCredit,omitempty"`
	Available       *float64    `json:"available,omitempty"`
	CreditData      *CreditData `json:"creditData,omitempty"`
	BankData        *BankData   `json:"bankData,omitempty"`
}

// CreditData is the nested credit-card object some connectors attach to an
// account.
type CreditData struct {
	Brand                string   `json:"brand,omitempty"`
	Level                string   `json:"level,omitempty"`
	TotalCreditLimit     *float64 `json:"totalCreditLimit,omitempty"`
	Limit                *float64 `json:"limit,omitempty"`
	AvailableCreditLimit *float64 `json:"availableCreditLimit,omitempty"`
	AvailableCredit      *float64 `json:"availableCredit,omitempty"`
	Available            *float64 `json:"available,omitempty"`
	Balance              *float64 `json:"balance,omitempty"`
	BalanceDueDate       string   `json:"balanceDueDate,omitempty"`
	MinimumPayment       *float64 `json:"minimumPayment,omitempty"`
}

// BankData carries bank-account specifics.
type BankData struct {
	TransferNumber string   `json:"transferNumber,omitempty"`
	ClosingBalance *float64 `json:"closingBalance,omitempty"`
}

// Transaction represents a transaction payload from the aggregation API.
type Transaction struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"accountId"`
	Amount      float64      `json:"amount"`
	DateString  string       `json:"date"`
	Category    *string      `json:"category"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Type        string       `json:"type"`
	PaymentData *PaymentData `json:"paymentData,omitempty"`
	Merchant    *Merchant    `json:"merchant,omitempty"`
}

// GetDate parses the transaction date, accepting the RFC3339 and date-only
// forms the API emits.
func (t *Transaction) GetDate() (time.Time, error) {
	if t.DateString == "" {
		return time.Time{}, fmt.Errorf("transaction %s has no date", t.ID)
	}
	parsed, err := time.Parse(time.RFC3339, t.DateString)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", t.DateString)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
		}
	}
	return parsed, nil
}

// DocumentNumber identifies a counterparty document (CPF/CNPJ).
type DocumentNumber struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// PaymentParticipant is one side of a transfer.
type PaymentParticipant struct {
	DocumentNumber *DocumentNumber `json:"documentNumber,omitempty"`
	BranchNumber   string          `json:"branchNumber,omitempty"`
	AccountNumber  string          `json:"accountNumber,omitempty"`
	RoutingNumber  string          `json:"routingNumber,omitempty"`
}

// PaymentData is the structured counterparty block on transfer transactions.
type PaymentData struct {
	Payer           *PaymentParticipant `json:"payer,omitempty"`
	Receiver        *PaymentParticipant `json:"receiver,omitempty"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	ReferenceNumber string              `json:"referenceNumber,omitempty"`
	Reason          string              `json:"reason,omitempty"`
}

// Merchant is the merchant descriptor on card transactions.
type Merchant struct {
	Name         string `json:"name,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	CNPJ         string `json:"cnpj,omitempty"`
	CNAE         string `json:"cnae,omitempty"`
	Category     string `json:"category,omitempty"`
}

// Item represents a bank connection at the provider.
type Item struct {
	ID              string        `json:"id"`
	Connector       ItemConnector `json:"connector"`
	Status          string        `json:"status"`
	ExecutionStatus string        `json:"executionStatus,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ItemConnector is the connector reference embedded in an item payload.
type ItemConnector struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Connector is an entry of the provider's institution catalog.
type Connector struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	InstitutionURL string `json:"institutionUrl,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	Type           string `json:"type,omitempty"`
	Country        string `json:"country,omitempty"`
}

// Investment represents an investment position reported by the provider.
type Investment struct {
	ID           string   `json:"id"`
	ItemID       string   `json:"itemId"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype,omitempty"`
	Balance      *float64 `json:"balance"`
	CurrencyCode string   `json:"currencyCode"`
}

// Paged response envelopes.

type accountsResponse struct {
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	Page       int       `json:"page"`
	Results    []Account `json:"results"`
}

type transactionsResponse struct {
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
	Page       int           `json:"page"`
	Results    []Transaction `json:"results"`
}

type connectorsResponse struct {
	Total   int         `json:"total"`
	Results []Connector `json:"results"`
}

type investmentsResponse struct {
	Total   int          `json:"total"`
	Results []Investment `json:"results"`
}

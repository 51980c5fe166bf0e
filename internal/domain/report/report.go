// Package report aggregates stored transactions into category-level
// spending summaries.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/camillodev/my-expenses/internal/domain/transaction"
)

// OtherCategory is the bucket for transactions the provider left
// uncategorized. The substitution happens here, never in storage.
const OtherCategory = "Other"

// CategoryBalance is the summed, rounded balance of one category.
type CategoryBalance struct {
	Category string  `json:"category"`
	Balance  float64 `json:"balance"`
}

// Report is the category-level view over a set of transactions. StartDate is
// the earliest transaction date in the set, nil for an empty input.
type Report struct {
	CategoryBalances []CategoryBalance `json:"categoryBalances"`
	StartDate        *time.Time        `json:"startDate"`
}

// BuildCategoryReport groups transactions by category, sums the signed
// amounts and rounds each balance to 2 decimal places, half away from zero
// (decimal.Round semantics — this rounding mode is part of the contract
// since the totals are displayed as currency). The result is sorted
// ascending by balance, most negative first, with the category name as a
// deterministic tie-break. Pure function, no error cases.
func BuildCategoryReport(txs []*transaction.Transaction) Report {
	sums := make(map[string]decimal.Decimal)
	var startDate *time.Time

	for _, tx := range txs {
		category := OtherCategory
		if tx.Category != nil && *tx.Category != "" {
			category = *tx.Category
		}
		sums[category] = sums[category].Add(decimal.NewFromFloat(tx.Amount))

		if startDate == nil || tx.Date.Before(*startDate) {
			d := tx.Date
			startDate = &d
		}
	}

	balances := make([]CategoryBalance, 0, len(sums))
	for category, sum := range sums {
		value, _ := sum.Round(2).Float64()
		balances = append(balances, CategoryBalance{Category: category, Balance: value})
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Balance != balances[j].Balance {
			return balances[i].Balance < balances[j].Balance
		}
		return balances[i].Category < balances[j].Category
	})

	return Report{CategoryBalances: balances, StartDate: startDate}
}

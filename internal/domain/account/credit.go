package account

import "math"

// CreditFields holds the credit-card numbers extracted from a provider
// payload. A nil field means the provider did not supply the value; the
// engine never guesses missing limits.
type CreditFields struct {
	CreditLimit     *float64 `json:"creditLimit"`
	AvailableCredit *float64 `json:"availableCredit"`
	CurrentInvoice  *float64 `json:"currentInvoice"`
}

// CreditSource is an explicit optional-field view of the inconsistent shapes
// providers use for credit data: some nest it under a creditData object,
// others expose flat fields on the account itself.
type CreditSource struct {
	Subtype         string
	Balance         *float64
	CreditLimit     *float64
	Limit           *float64
	AvailableCredit *float64
	Available       *float64
	CreditData      *CreditData
}

// CreditData mirrors the nested credit-data object of a provider account.
type CreditData struct {
	TotalCreditLimit     *float64
	Limit                *float64
	AvailableCreditLimit *float64
	AvailableCredit      *float64
	Available            *float64
	Balance              *float64
}

// ExtractCreditFields resolves each credit field by a strict priority order,
// preferring the nested credit-data object over top-level fields. The current
// invoice is the absolute value of the nested credit balance when present;
// falling back to the account balance happens only for credit_card accounts,
// so a checking balance is never reinterpreted as an invoice.
func ExtractCreditFields(src CreditSource) CreditFields {
	var fields CreditFields

	cd := src.CreditData
	if cd != nil {
		fields.CreditLimit = firstNonNil(cd.TotalCreditLimit, cd.Limit)
		fields.AvailableCredit = firstNonNil(cd.AvailableCreditLimit, cd.AvailableCredit, cd.Available)
	}
	if fields.CreditLimit == nil {
		fields.CreditLimit = firstNonNil(src.CreditLimit, src.Limit)
	}
	if fields.AvailableCredit == nil {
		fields.AvailableCredit = firstNonNil(src.AvailableCredit, src.Available)
	}

	switch {
	case cd != nil && cd.Balance != nil:
		fields.CurrentInvoice = absFloat(*cd.Balance)
	case IsCreditCard(src.Subtype) && src.Balance != nil:
		fields.CurrentInvoice = absFloat(*src.Balance)
	}

	return fields
}

func firstNonNil(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			out := *v
			return &out
		}
	}
	return nil
}

func absFloat(v float64) *float64 {
	abs := math.Abs(v)
	return &abs
}

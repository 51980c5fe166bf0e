package account

import "strings"

// Canonical account subtypes. Unknown provider subtypes pass through
// lower-cased so no information is lost.
const (
	SubtypeChecking   = "checking"
	SubtypeSavings    = "savings"
	SubtypeCreditCard = "credit_card"
	SubtypeInvestment = "investment"
	SubtypeLoan       = "loan"
	SubtypeOther      = "other"
)

// NormalizeSubtype canonicalizes a raw provider subtype. Matching is case-
// and separator-insensitive ("CREDIT_CARD", "credit_card_account" and
// "Credit Card" all map to credit_card). An empty input yields the empty
// string, which never matches a specific rule. Normalization is idempotent:
// feeding the output back in returns it unchanged.
func NormalizeSubtype(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}

	switch foldSeparators(normalized) {
	case "credit_card", "credit_card_account":
		return SubtypeCreditCard
	case "checking", "checking_account":
		return SubtypeChecking
	case "savings", "savings_account":
		return SubtypeSavings
	case "investment", "brokerage", "mutual_fund":
		return SubtypeInvestment
	}

	return normalized
}

// IsCreditCard reports whether the raw subtype normalizes to credit_card.
func IsCreditCard(raw string) bool {
	return NormalizeSubtype(raw) == SubtypeCreditCard
}

// IsInvestment reports whether the raw subtype normalizes to investment.
// Used when filtering an item's accounts for investment-like entries.
func IsInvestment(raw string) bool {
	return NormalizeSubtype(raw) == SubtypeInvestment
}

func foldSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return '_'
		}
		return r
	}, s)
}

// Package bank resolves provider connector names to the fixed set of target
// institutions the application tracks, and models a connected item.
package bank

import "strings"

// TargetInstitution is a configured institution the system cares about.
// SearchTerms are matched case-insensitively as substrings in either
// direction; ConnectorNames are exact (case-insensitive) aliases.
type TargetInstitution struct {
	Name           string
	SearchTerms    []string
	ConnectorNames []string
}

// DefaultTargets returns the configured target institutions. List order is
// the first-match tie-break when a connector name loosely matches more than
// one entry.
func DefaultTargets() []TargetInstitution {
	return []TargetInstitution{
		{
			Name:           "Nubank",
			SearchTerms:    []string{"nubank", "nu", "nu bank"},
			ConnectorNames: []string{"Nubank", "Nu Bank", "Nu", "Nubank S.A."},
		},
		{
			Name:           "Bradesco",
			SearchTerms:    []string{"bradesco"},
			ConnectorNames: []string{"Bradesco", "Banco Bradesco S.A.", "Bradesco S.A."},
		},
		{
			Name:           "XP",
			SearchTerms:    []string{"xp", "xp investimentos", "xp inc"},
			ConnectorNames: []string{"XP Investimentos", "XP Inc", "XP", "XP Investimentos CCTVM S.A."},
		},
		{
			Name:           "BTG",
			SearchTerms:    []string{"btg", "btg banking", "btg pactual", "btg investimentos"},
			ConnectorNames: []string{"BTG Pactual", "BTG Banking", "BTG Investimentos", "BTG", "Banco BTG Pactual S.A."},
		},
	}
}

// Matches reports whether a connector name corresponds to the target
// institution: an exact alias match first, then a substring match in either
// direction against the search terms.
func Matches(connectorName string, target TargetInstitution) bool {
	name := strings.ToLower(connectorName)

	for _, alias := range target.ConnectorNames {
		if strings.ToLower(alias) == name {
			return true
		}
	}

	for _, term := range target.SearchTerms {
		term = strings.ToLower(term)
		if strings.Contains(name, term) || strings.Contains(term, name) {
			return true
		}
	}

	return false
}

// Matcher resolves connector names against a configured target list.
type Matcher struct {
	targets []TargetInstitution
}

// NewMatcher creates a matcher over the given targets. Pass DefaultTargets()
// for the standard configuration.
func NewMatcher(targets []TargetInstitution) *Matcher {
	return &Matcher{targets: targets}
}

// Targets returns the configured target institutions in list order.
func (m *Matcher) Targets() []TargetInstitution {
	return m.targets
}

// ResolveByConnectorName returns the first target institution, in configured
// order, that the connector name matches, or nil if none does.
func (m *Matcher) ResolveByConnectorName(connectorName string) *TargetInstitution {
	for i := range m.targets {
		if Matches(connectorName, m.targets[i]) {
			return &m.targets[i]
		}
	}
	return nil
}

// FindByName returns the target institution with the given display name.
func (m *Matcher) FindByName(name string) *TargetInstitution {
	for i := range m.targets {
		if m.targets[i].Name == name {
			return &m.targets[i]
		}
	}
	return nil
}

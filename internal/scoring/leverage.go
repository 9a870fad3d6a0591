package scoring

import (
	"fmt"
	"strings"
)

// LeverageRule states that a participant seeking SoughtType is served by a
// counterparty that controls RequiredLeverage.
type LeverageRule struct {
	SoughtType       string `json:"sought_type" mapstructure:"sought_type"`
	RequiredLeverage string `json:"required_leverage" mapstructure:"required_leverage"`
}

// LeverageTable is an ordered association list of complementarity rules.
type LeverageTable []LeverageRule

// DefaultLeverageTable returns the built-in sought-type to leverage mapping.
func DefaultLeverageTable() LeverageTable {
	return LeverageTable{
		{SoughtType: "Institutional allocator", RequiredLeverage: "Deployable financial capital"},
		{SoughtType: "Infrastructure provider", RequiredLeverage: "Technical infrastructure"},
		{SoughtType: "Early-stage builder", RequiredLeverage: "Developer ecosystem"},
		{SoughtType: "Regulatory stakeholder", RequiredLeverage: "Regulatory access / policy influence"},
		{SoughtType: "Global brand / distribution partner", RequiredLeverage: "Distribution channels (enterprise / retail)"},
	}
}

// Validate rejects rules with blank sides.
func (t LeverageTable) Validate() error {
	for i, rule := range t {
		if strings.TrimSpace(rule.SoughtType) == "" || strings.TrimSpace(rule.RequiredLeverage) == "" {
			return fmt.Errorf("complementarity rule %d: sought_type and required_leverage are required", i)
		}
	}
	return nil
}

// Satisfies reports whether any sought type is served by any of the given leverage tags.
func (t LeverageTable) Satisfies(sought, leverage []string) bool {
	if len(sought) == 0 || len(leverage) == 0 {
		return false
	}

	has := make(map[string]bool, len(leverage))
	for _, l := range leverage {
		has[l] = true
	}

	for _, want := range sought {
		for _, rule := range t {
			if rule.SoughtType == want && has[rule.RequiredLeverage] {
				return true
			}
		}
	}
	return false
}

package services

import (
	"sort"
	"strings"
)

const (
	TierOne   = "Tier 1"
	TierTwo   = "Tier 2"
	TierThree = "Tier 3"
)

// TierLabels gives the human reading of each tier bucket.
var TierLabels = map[string]string{
	TierOne:   "Critical Risk",
	TierTwo:   "Elevated Risk",
	TierThree: "Standard Risk",
}

// Rule fields refer to vendor classification attributes by these names.
const (
	TierFieldDataClassification  = "data_classification"
	TierFieldBusinessCriticality = "business_criticality"
	TierFieldAccessLevel         = "access_level"
)

// ComputeInherentTier derives the inherent risk tier from vendor
// classification fields. Rules, when supplied, are checked in ascending
// priority order and the first match wins; otherwise the fixed defaults
// apply:
//
//	Restricted data OR Critical business  -> Tier 1
//	Confidential data OR High business OR Extensive access -> Tier 2
//	otherwise -> Tier 3
func ComputeInherentTier(dataClassification, businessCriticality, accessLevel string, rules []*TierRule) string {
	dc := strings.TrimSpace(dataClassification)
	bc := strings.TrimSpace(businessCriticality)
	al := strings.TrimSpace(accessLevel)

	if len(rules) > 0 {
		ordered := append([]*TierRule(nil), rules...)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
		for _, r := range ordered {
			var actual string
			switch r.Field {
			case TierFieldDataClassification:
				actual = dc
			case TierFieldBusinessCriticality:
				actual = bc
			case TierFieldAccessLevel:
				actual = al
			default:
				continue
			}
			if actual != "" && actual == r.Value {
				return r.Tier
			}
		}
	}

	if dc == "Restricted" || bc == "Critical" {
		return TierOne
	}
	if dc == "Confidential" || bc == "High" || al == "Extensive" {
		return TierTwo
	}
	return TierThree
}

// EffectiveTier returns the manual override when set, else the stored
// inherent tier. Recomputation never overwrites an override.
func EffectiveTier(v *Vendor) string {
	if v == nil {
		return ""
	}
	if v.TierOverride != "" {
		return v.TierOverride
	}
	return v.InherentRiskTier
}

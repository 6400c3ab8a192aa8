package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is a priority bucket derived from a numeric score.
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Lower bounds, inclusive.
const (
	HighThreshold   = 80.0
	MediumThreshold = 50.0
)

// tierOrder defines the ordering of tiers (higher order = more urgent)
var tierOrder = map[Tier]int{
	TierLow:    1,
	TierMedium: 2,
	TierHigh:   3,
}

// ClassifyScore maps a score to its tier.
func ClassifyScore(score float64) Tier {
	switch {
	case score >= HighThreshold:
		return TierHigh
	case score >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// AllTiers returns all tiers from lowest to highest.
func AllTiers() []Tier {
	return []Tier{TierLow, TierMedium, TierHigh}
}

// IsValid returns true if the tier is one of the known tiers.
func (t Tier) IsValid() bool {
	_, ok := tierOrder[t]
	return ok
}

func (t Tier) String() string {
	return string(t)
}

// Class returns the lower-cased tier name used as a style selector.
func (t Tier) Class() string {
	return strings.ToLower(string(t))
}

// Order returns the numeric order of the tier (higher = more urgent).
func (t Tier) Order() int {
	return tierOrder[t]
}

// Compare returns -1 if t < other, 0 if equal, 1 if t > other.
func (t Tier) Compare(other Tier) int {
	a, b := t.Order(), other.Order()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsHigherThan returns true if this tier is more urgent than the other.
func (t Tier) IsHigherThan(other Tier) bool {
	return t.Compare(other) > 0
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid tier: %s", s)
	}
	return tier, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

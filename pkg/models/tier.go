package models

// Tier classifies a learner's overall difficulty level
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Valid reports whether t is one of the known tiers
func (t Tier) Valid() bool {
	switch t {
	case TierBeginner, TierIntermediate, TierAdvanced:
		return true
	}
	return false
}

// Promote returns the next tier up, or t itself at the top
func (t Tier) Promote() Tier {
	switch t {
	case TierBeginner:
		return TierIntermediate
	case TierIntermediate:
		return TierAdvanced
	}
	return t
}

// Demote returns the next tier down, or t itself at the bottom
func (t Tier) Demote() Tier {
	switch t {
	case TierAdvanced:
		return TierIntermediate
	case TierIntermediate:
		return TierBeginner
	}
	return t
}

// TierForDifficulty maps an item's intrinsic 1-5 difficulty to the tier
// it is appropriate for
func TierForDifficulty(difficulty int) Tier {
	switch {
	case difficulty <= 2:
		return TierBeginner
	case difficulty == 3:
		return TierIntermediate
	default:
		return TierAdvanced
	}
}

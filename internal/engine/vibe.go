package engine

import "finsim/internal/money"

// deriveVibe implements the spec's final-state classification: checked
// in order, first match wins.
func deriveVibe(s *state) VibeState {
	switch {
	case money.IsNegative(s.balance) && s.consecutiveDeficitDays > 30:
		return VibeCollapsed
	case money.IsNegative(s.balance):
		return VibeCritical
	case s.consecutiveDeficitDays > 7:
		return VibeStrained
	case s.creditScore.GreaterThan(money.New(700, 0)) && s.balance.IsPositive():
		return VibeThriving
	default:
		return VibeStable
	}
}

// petForVibe is a fixed 1-to-1 mapping from VibeState to PetState.
func petForVibe(v VibeState) PetState {
	switch v {
	case VibeThriving:
		return PetHappy
	case VibeStable:
		return PetContent
	case VibeStrained:
		return PetAnxious
	case VibeCritical:
		return PetDistressed
	case VibeCollapsed:
		return PetFainted
	default:
		return PetContent
	}
}

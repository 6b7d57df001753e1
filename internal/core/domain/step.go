package domain

// Step bounds of the wizard.
const (
	MinStep = 1
	MaxStep = 3
)

// ClampStep forces n into [MinStep, MaxStep]. Out-of-range requests are
// clamped, never rejected.
func ClampStep(n int) int {
	return max(MinStep, min(MaxStep, n))
}

// StepName returns a short label for a step.
func StepName(step int) string {
	switch ClampStep(step) {
	case 1:
		return "personal"
	case 2:
		return "family-financial"
	default:
		return "situation"
	}
}

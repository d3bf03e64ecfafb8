package models

import "strings"

// Priority is the single priority vocabulary shared by sections, questions,
// gaps, remediation items and recommendations.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ParsePriority normalizes free-form input. Empty or unknown values map to medium.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityCritical:
		return PriorityCritical, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	case "":
		return PriorityMedium, true
	default:
		return PriorityMedium, false
	}
}

// Normalize returns the canonical form of p.
func (p Priority) Normalize() Priority {
	n, _ := ParsePriority(string(p))
	return n
}

// Rank orders priorities: critical=4, high=3, medium=2, low=1.
func (p Priority) Rank() int {
	switch p.Normalize() {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

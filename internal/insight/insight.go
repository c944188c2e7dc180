// Package insight merges analysis outputs into a single prioritized,
// lifecycle-managed stream of insights.
package insight

import (
	"time"
)

// Type classifies an insight. The set is closed; the aggregator rejects
// signals with an unknown type.
type Type string

const (
	TypeAchievement Type = "achievement"
	TypeWarning     Type = "warning"
	TypeSuggestion  Type = "suggestion"
	TypeMilestone   Type = "milestone"
	TypePattern     Type = "pattern"
)

func (t Type) valid() bool {
	switch t {
	case TypeAchievement, TypeWarning, TypeSuggestion, TypeMilestone, TypePattern:
		return true
	default:
		return false
	}
}

// Priority orders insights in the visible set.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank maps the priority to a sortable weight, higher is more urgent.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Action is an optional call to action attached to an insight.
type Action struct {
	Type   string
	Label  string
	Target string
}

// Insight is one prioritized, time-bounded, dismissible notification. Its
// lifecycle runs created, visible, then dismissed or expired. The terminal
// states are absorbing; a dismissed or expired insight never becomes visible
// again, though the record itself is retained for audit.
type Insight struct {
	ID         string
	Type       Type
	Origin     string
	Title      string
	Message    string
	Priority   Priority
	Confidence int
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	Dismissed  bool
	Actionable bool
	Action     *Action
}

// visibleAt reports whether the insight belongs in the visible set.
func (i Insight) visibleAt(now time.Time) bool {
	if i.Dismissed {
		return false
	}
	if i.ExpiresAt != nil && !i.ExpiresAt.After(now) {
		return false
	}
	return true
}

// expiredAt reports whether a non-dismissed insight has passed its expiry.
func (i Insight) expiredAt(now time.Time) bool {
	return !i.Dismissed && i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// Signal is one upstream trigger mapped into the aggregator. Origin
// identifies the trigger so repeated signals update the existing insight
// instead of duplicating it. A zero TTL means the insight never expires.
type Signal struct {
	Type       Type
	Origin     string
	Title      string
	Message    string
	Priority   Priority
	Confidence int
	TTL        time.Duration
	Actionable bool
	Action     *Action
}

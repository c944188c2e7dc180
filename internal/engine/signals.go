package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/myrjola/fitsight/internal/fatigue"
	"github.com/myrjola/fitsight/internal/insight"
)

// Signal origins. Each origin deduplicates against itself across passes.
const (
	originFatigue     = "fatigue-analysis"
	originSuggestions = "suggestion-generator"
	originLeaderboard = "leaderboard"
)

const (
	fatigueSignalTTL     = 24 * time.Hour
	suggestionSignalTTL  = 24 * time.Hour
	leaderboardSignalTTL = 7 * 24 * time.Hour

	podiumRank = 3
)

// buildSignals maps the snapshot's component outputs to aggregation signals.
func (s *Service) buildSignals(snapshot *Snapshot, sparseHistory bool) []insight.Signal {
	var signals []insight.Signal

	if sparseHistory {
		signals = append(signals, insight.Signal{
			Type:       insight.TypeSuggestion,
			Origin:     originFatigue,
			Title:      "Keep logging your workouts",
			Message:    "Record a few more sessions and we can start tracking your fatigue and recovery.",
			Priority:   insight.PriorityLow,
			Confidence: 100,
			TTL:        fatigueSignalTTL,
		})
	} else if snapshot.Rest != nil && snapshot.Rest.RestDayNeeded {
		signals = append(signals, restSignal(snapshot))
	}

	if len(snapshot.Suggestions) > 0 {
		top := snapshot.Suggestions[0]
		signals = append(signals, insight.Signal{
			Type:       insight.TypeSuggestion,
			Origin:     originSuggestions,
			Title:      "Try " + top.Name,
			Message:    top.Reasoning,
			Priority:   insight.PriorityMedium,
			Confidence: 70,
			TTL:        suggestionSignalTTL,
			Actionable: true,
			Action: &insight.Action{
				Type:   "open_workout",
				Label:  "View workout",
				Target: top.ID,
			},
		})
	}

	if snapshot.Standings != nil && snapshot.Standings.CurrentUserRank != nil {
		rank := *snapshot.Standings.CurrentUserRank
		if rank <= podiumRank {
			signals = append(signals, insight.Signal{
				Type:   insight.TypeAchievement,
				Origin: originLeaderboard,
				Title:  fmt.Sprintf("You're ranked #%d", rank),
				Message: fmt.Sprintf("You hold place %d on the %s %s leaderboard. Keep it up!",
					rank, snapshot.Standings.Timeframe, snapshot.Standings.Board),
				Priority:   insight.PriorityMedium,
				Confidence: 100,
				TTL:        leaderboardSignalTTL,
			})
		}
	}

	return signals
}

// restSignal turns a rest recommendation into a warning insight.
func restSignal(snapshot *Snapshot) insight.Signal {
	rest := snapshot.Rest
	priority := insight.PriorityMedium
	if rest.Priority == fatigue.PriorityHigh {
		priority = insight.PriorityHigh
	}
	confidence := 50
	if snapshot.Assessment != nil {
		confidence = int(snapshot.Assessment.FatigueLevel * 100)
	}
	return insight.Signal{
		Type:       insight.TypeWarning,
		Origin:     originFatigue,
		Title:      "Time to prioritize recovery",
		Message:    strings.Join(rest.Reasoning, " "),
		Priority:   priority,
		Confidence: confidence,
		TTL:        fatigueSignalTTL,
		Actionable: true,
		Action: &insight.Action{
			Type:   "schedule_rest",
			Label:  "Plan a rest day",
			Target: string(rest.Type),
		},
	}
}

package fatigue

import (
	"fmt"
	"math"
)

// Priority grades how urgently the recommendation should be surfaced.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RecommendationType is the kind of rest being recommended.
type RecommendationType string

const (
	CompleteRest   RecommendationType = "complete_rest"
	ActiveRecovery RecommendationType = "active_recovery"
	LightActivity  RecommendationType = "light_activity"
)

// ActivitySuggestion groups suggested recovery activities by type.
type ActivitySuggestion struct {
	Type            string
	Activities      []string
	DurationMinutes int // zero when open-ended
}

// WorkoutGuidance steers the next workout after the recommended rest.
type WorkoutGuidance struct {
	RecommendedIntensity string
	FocusAreas           []string
	AvoidMuscleGroups    []string
}

// RestRecommendation is derived 1:1 from an [Assessment]. One is always
// produced; when rest is not strictly needed it is a low-priority
// maintenance recommendation.
type RestRecommendation struct {
	RestDayNeeded          bool
	Priority               Priority
	Type                   RecommendationType
	Reasoning              []string
	EstimatedRecoveryHours int
	SuggestedActivities    []ActivitySuggestion
	NextWorkout            WorkoutGuidance
}

// RecommenderConfig holds the decision thresholds. The boundary semantics
// are deliberate and tested: rest is needed strictly above FatigueHigh or
// strictly below RecoveryLow; the exact boundary values do not trigger rest.
type RecommenderConfig struct {
	FatigueHigh   float64
	RecoveryLow   float64
	FatigueSevere float64
	// EstimatedRecoveryHours = BaseRecoveryHours + fatigue * RecoveryHoursScale.
	BaseRecoveryHours  float64
	RecoveryHoursScale float64
}

// Recommender constants.
const (
	defaultFatigueHigh        = 0.7
	defaultRecoveryLow        = 0.3
	defaultFatigueSevere      = 0.85
	defaultBaseRecoveryHours  = 12.0
	defaultRecoveryHoursScale = 36.0

	moderateFatigue = 0.4
)

// DefaultRecommenderConfig returns the documented default thresholds.
func DefaultRecommenderConfig() RecommenderConfig {
	return RecommenderConfig{
		FatigueHigh:        defaultFatigueHigh,
		RecoveryLow:        defaultRecoveryLow,
		FatigueSevere:      defaultFatigueSevere,
		BaseRecoveryHours:  defaultBaseRecoveryHours,
		RecoveryHoursScale: defaultRecoveryHoursScale,
	}
}

// Recommender maps fatigue assessments to rest recommendations.
type Recommender struct {
	cfg RecommenderConfig
}

// NewRecommender constructs a recommender with the given thresholds.
func NewRecommender(cfg RecommenderConfig) *Recommender {
	return &Recommender{cfg: cfg}
}

// Recommend derives a rest recommendation from the assessment.
func (r *Recommender) Recommend(a Assessment) RestRecommendation {
	fatigued := a.FatigueLevel > r.cfg.FatigueHigh
	underRecovered := a.RecoveryScore < r.cfg.RecoveryLow
	restNeeded := fatigued || underRecovered

	rec := RestRecommendation{
		RestDayNeeded:          restNeeded,
		Priority:               r.priority(a, fatigued, underRecovered),
		Type:                   r.recommendationType(a, restNeeded),
		Reasoning:              r.reasoning(a, fatigued, underRecovered),
		EstimatedRecoveryHours: r.estimatedRecoveryHours(a.FatigueLevel),
		SuggestedActivities:    suggestedActivities(r.recommendationType(a, restNeeded)),
		NextWorkout:            r.nextWorkoutGuidance(a),
	}
	return rec
}

func (r *Recommender) priority(a Assessment, fatigued, underRecovered bool) Priority {
	switch {
	case fatigued && underRecovered, a.FatigueLevel > r.cfg.FatigueSevere:
		return PriorityHigh
	case fatigued || underRecovered:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func (r *Recommender) recommendationType(a Assessment, restNeeded bool) RecommendationType {
	switch {
	case a.FatigueLevel > r.cfg.FatigueSevere:
		return CompleteRest
	case restNeeded:
		return ActiveRecovery
	default:
		return LightActivity
	}
}

func (r *Recommender) reasoning(a Assessment, fatigued, underRecovered bool) []string {
	var reasons []string
	if fatigued {
		reasons = append(reasons, fmt.Sprintf("accumulated training stress is high (%.2f)", a.FatigueLevel))
	}
	if underRecovered {
		reasons = append(reasons, fmt.Sprintf("recovery from your last hard session is incomplete (%.2f)", a.RecoveryScore))
	}
	for _, ind := range a.Indicators {
		if ind.Severity == SeverityHigh || ind.Severity == SeverityMedium {
			reasons = append(reasons, ind.Description)
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "training load is within your usual range; keep up the routine")
	}
	return reasons
}

// estimatedRecoveryHours grows monotonically with the fatigue level.
func (r *Recommender) estimatedRecoveryHours(fatigueLevel float64) int {
	return int(math.Round(r.cfg.BaseRecoveryHours + fatigueLevel*r.cfg.RecoveryHoursScale))
}

func (r *Recommender) nextWorkoutGuidance(a Assessment) WorkoutGuidance {
	var avoid []string
	for _, ind := range a.Indicators {
		if ind.Type == IndicatorMuscleOveruse && ind.MuscleGroup != "" {
			avoid = append(avoid, ind.MuscleGroup)
		}
	}

	return WorkoutGuidance{
		RecommendedIntensity: r.recommendedIntensity(a.FatigueLevel),
		FocusAreas:           focusAreasAvoiding(avoid),
		AvoidMuscleGroups:    avoid,
	}
}

// recommendedIntensity inversely tracks the fatigue level, capping at "low"
// above the configured high-fatigue threshold.
func (r *Recommender) recommendedIntensity(fatigueLevel float64) string {
	switch {
	case fatigueLevel > r.cfg.FatigueHigh:
		return "low"
	case fatigueLevel > moderateFatigue:
		return "moderate"
	default:
		return "high"
	}
}

// focusAreasAvoiding proposes areas to train next, skipping overused groups.
func focusAreasAvoiding(avoid []string) []string {
	candidates := []string{"core", "mobility", "upper body", "lower body", "cardio"}
	avoided := make(map[string]bool, len(avoid))
	for _, g := range avoid {
		avoided[g] = true
	}

	var areas []string
	for _, c := range candidates {
		if !avoided[c] {
			areas = append(areas, c)
		}
	}
	return areas
}

// suggestedActivities maps the recommendation type to concrete activities.
func suggestedActivities(t RecommendationType) []ActivitySuggestion {
	const halfHour = 30
	switch t {
	case CompleteRest:
		return []ActivitySuggestion{
			{Type: "rest", Activities: []string{"sleep", "hydration", "gentle stretching"}},
		}
	case ActiveRecovery:
		return []ActivitySuggestion{
			{Type: "mobility", Activities: []string{"yoga", "foam rolling"}, DurationMinutes: halfHour},
			{Type: "cardio", Activities: []string{"easy walk", "easy spin"}, DurationMinutes: halfHour},
		}
	default:
		return []ActivitySuggestion{
			{Type: "cardio", Activities: []string{"brisk walk", "easy jog", "swimming"}, DurationMinutes: 2 * halfHour},
		}
	}
}

package fitness

// GoalType represents the user's selected training goal.
type GoalType string

// Goal type constants. The set is closed; anything else fails validation.
const (
	GoalStrength       GoalType = "strength"
	GoalMuscleGain     GoalType = "muscle_gain"
	GoalWeightLoss     GoalType = "weight_loss"
	GoalEndurance      GoalType = "endurance"
	GoalGeneralFitness GoalType = "general_fitness"
)

// Difficulty represents the user's difficulty preference.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Goal captures the user's training goal and preferences. It is supplied per
// suggestion request and not persisted by the engine.
type Goal struct {
	Type                  GoalType
	TargetDurationMinutes int
	DifficultyPreference  Difficulty
}

// Validate fails fast on malformed goal records.
func (g Goal) Validate() error {
	switch g.Type {
	case GoalStrength, GoalMuscleGain, GoalWeightLoss, GoalEndurance, GoalGeneralFitness:
	default:
		return &ValidationError{RecordID: "goal", Field: "type", Reason: "unknown goal type " + string(g.Type)}
	}
	if g.TargetDurationMinutes <= 0 {
		return &ValidationError{RecordID: "goal", Field: "target_duration_minutes", Reason: "must be positive"}
	}
	switch g.DifficultyPreference {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return &ValidationError{
			RecordID: "goal",
			Field:    "difficulty_preference",
			Reason:   "unknown difficulty " + string(g.DifficultyPreference),
		}
	}
	return nil
}

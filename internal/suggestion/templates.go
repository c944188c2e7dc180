package suggestion

import "github.com/myrjola/fitsight/internal/fitness"

// PlanItem is one prescribed exercise within a suggested workout.
type PlanItem struct {
	ExerciseID  string
	Sets        int
	RepsMin     int
	RepsMax     int
	RestSeconds int
}

// template is a candidate workout the generator scores against the user's
// goal and history. The catalog is fixed so generation stays a pure function
// of its inputs.
type template struct {
	id               string
	name             string
	description      string
	difficulty       fitness.Difficulty
	estimatedMinutes int
	calories         int
	focusAreas       []string
	muscleGroups     []string
	plan             []PlanItem
	// affinity scores the template's fit per goal type, in [0, 1].
	affinity map[fitness.GoalType]float64
}

// exerciseIDs returns the IDs of the exercises in the plan.
func (t template) exerciseIDs() []string {
	ids := make([]string, 0, len(t.plan))
	for _, item := range t.plan {
		ids = append(ids, item.ExerciseID)
	}
	return ids
}

// catalog returns the fixed candidate pool. Ordering is stable; template IDs
// double as the deterministic tie-break key.
func catalog() []template {
	return []template{
		{
			id:               "tpl-barbell-foundation",
			name:             "Barbell Foundation",
			description:      "Heavy compound lifts with long rests for maximal strength.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 50,
			calories:         320,
			focusAreas:       []string{"lower body", "posterior chain"},
			muscleGroups:     []string{"quadriceps", "glutes", "hamstrings", "core"},
			plan: []PlanItem{
				{ExerciseID: "back-squat", Sets: 5, RepsMin: 3, RepsMax: 5, RestSeconds: 180},
				{ExerciseID: "deadlift", Sets: 3, RepsMin: 3, RepsMax: 5, RestSeconds: 180},
				{ExerciseID: "front-squat", Sets: 3, RepsMin: 5, RepsMax: 6, RestSeconds: 150},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalStrength:       1.0,
				fitness.GoalMuscleGain:     0.7,
				fitness.GoalGeneralFitness: 0.5,
				fitness.GoalWeightLoss:     0.3,
				fitness.GoalEndurance:      0.1,
			},
		},
		{
			id:               "tpl-press-power",
			name:             "Press Power",
			description:      "Upper-body pressing strength built around the bench and overhead press.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 45,
			calories:         280,
			focusAreas:       []string{"upper body", "pressing"},
			muscleGroups:     []string{"chest", "shoulders", "triceps"},
			plan: []PlanItem{
				{ExerciseID: "bench-press", Sets: 5, RepsMin: 3, RepsMax: 5, RestSeconds: 180},
				{ExerciseID: "overhead-press", Sets: 4, RepsMin: 4, RepsMax: 6, RestSeconds: 150},
				{ExerciseID: "dip", Sets: 3, RepsMin: 6, RepsMax: 8, RestSeconds: 120},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalStrength:       0.95,
				fitness.GoalMuscleGain:     0.75,
				fitness.GoalGeneralFitness: 0.5,
				fitness.GoalWeightLoss:     0.25,
				fitness.GoalEndurance:      0.1,
			},
		},
		{
			id:               "tpl-pull-strength",
			name:             "Pull Strength",
			description:      "Rows and weighted pull-ups for back and grip strength.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 45,
			calories:         290,
			focusAreas:       []string{"upper body", "pulling"},
			muscleGroups:     []string{"back", "biceps", "forearms"},
			plan: []PlanItem{
				{ExerciseID: "weighted-pullup", Sets: 5, RepsMin: 3, RepsMax: 5, RestSeconds: 180},
				{ExerciseID: "barbell-row", Sets: 4, RepsMin: 5, RepsMax: 6, RestSeconds: 150},
				{ExerciseID: "face-pull", Sets: 3, RepsMin: 10, RepsMax: 12, RestSeconds: 90},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalStrength:       0.9,
				fitness.GoalMuscleGain:     0.75,
				fitness.GoalGeneralFitness: 0.5,
				fitness.GoalWeightLoss:     0.25,
				fitness.GoalEndurance:      0.1,
			},
		},
		{
			id:               "tpl-hypertrophy-upper",
			name:             "Upper Body Builder",
			description:      "Moderate loads and higher volume for upper-body muscle growth.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 55,
			calories:         340,
			focusAreas:       []string{"upper body"},
			muscleGroups:     []string{"chest", "back", "shoulders", "biceps", "triceps"},
			plan: []PlanItem{
				{ExerciseID: "incline-dumbbell-press", Sets: 4, RepsMin: 8, RepsMax: 12, RestSeconds: 90},
				{ExerciseID: "lat-pulldown", Sets: 4, RepsMin: 8, RepsMax: 12, RestSeconds: 90},
				{ExerciseID: "lateral-raise", Sets: 3, RepsMin: 12, RepsMax: 15, RestSeconds: 60},
				{ExerciseID: "cable-curl", Sets: 3, RepsMin: 10, RepsMax: 12, RestSeconds: 60},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalMuscleGain:     1.0,
				fitness.GoalStrength:       0.6,
				fitness.GoalGeneralFitness: 0.5,
				fitness.GoalWeightLoss:     0.35,
				fitness.GoalEndurance:      0.15,
			},
		},
		{
			id:               "tpl-hypertrophy-lower",
			name:             "Leg Day Volume",
			description:      "Squat variations and accessories for lower-body muscle growth.",
			difficulty:       fitness.DifficultyAdvanced,
			estimatedMinutes: 60,
			calories:         380,
			focusAreas:       []string{"lower body"},
			muscleGroups:     []string{"quadriceps", "glutes", "hamstrings", "calves"},
			plan: []PlanItem{
				{ExerciseID: "leg-press", Sets: 4, RepsMin: 8, RepsMax: 12, RestSeconds: 120},
				{ExerciseID: "romanian-deadlift", Sets: 4, RepsMin: 8, RepsMax: 10, RestSeconds: 120},
				{ExerciseID: "walking-lunge", Sets: 3, RepsMin: 10, RepsMax: 12, RestSeconds: 90},
				{ExerciseID: "calf-raise", Sets: 4, RepsMin: 12, RepsMax: 15, RestSeconds: 60},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalMuscleGain:     0.95,
				fitness.GoalStrength:       0.65,
				fitness.GoalGeneralFitness: 0.45,
				fitness.GoalWeightLoss:     0.35,
				fitness.GoalEndurance:      0.15,
			},
		},
		{
			id:               "tpl-hiit-circuit",
			name:             "HIIT Circuit",
			description:      "Short all-out intervals with minimal rest to maximize calorie burn.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 30,
			calories:         350,
			focusAreas:       []string{"conditioning", "full body"},
			muscleGroups:     []string{"quadriceps", "core", "shoulders", "calves"},
			plan: []PlanItem{
				{ExerciseID: "burpee", Sets: 5, RepsMin: 10, RepsMax: 15, RestSeconds: 30},
				{ExerciseID: "kettlebell-swing", Sets: 5, RepsMin: 15, RepsMax: 20, RestSeconds: 30},
				{ExerciseID: "mountain-climber", Sets: 5, RepsMin: 20, RepsMax: 30, RestSeconds: 30},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalWeightLoss:     1.0,
				fitness.GoalEndurance:      0.6,
				fitness.GoalGeneralFitness: 0.6,
				fitness.GoalMuscleGain:     0.2,
				fitness.GoalStrength:       0.15,
			},
		},
		{
			id:               "tpl-steady-state",
			name:             "Steady State Cardio",
			description:      "A sustained aerobic session at conversational pace.",
			difficulty:       fitness.DifficultyBeginner,
			estimatedMinutes: 45,
			calories:         400,
			focusAreas:       []string{"aerobic base"},
			muscleGroups:     []string{"quadriceps", "hamstrings", "calves"},
			plan: []PlanItem{
				{ExerciseID: "steady-run", Sets: 1, RepsMin: 1, RepsMax: 1, RestSeconds: 0},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalEndurance:      1.0,
				fitness.GoalWeightLoss:     0.7,
				fitness.GoalGeneralFitness: 0.55,
				fitness.GoalMuscleGain:     0.1,
				fitness.GoalStrength:       0.05,
			},
		},
		{
			id:               "tpl-tempo-intervals",
			name:             "Tempo Intervals",
			description:      "Threshold-pace repeats that raise your sustainable speed.",
			difficulty:       fitness.DifficultyAdvanced,
			estimatedMinutes: 40,
			calories:         380,
			focusAreas:       []string{"aerobic power"},
			muscleGroups:     []string{"quadriceps", "hamstrings", "calves", "core"},
			plan: []PlanItem{
				{ExerciseID: "tempo-repeat", Sets: 4, RepsMin: 1, RepsMax: 1, RestSeconds: 120},
				{ExerciseID: "easy-jog", Sets: 1, RepsMin: 1, RepsMax: 1, RestSeconds: 0},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalEndurance:      0.95,
				fitness.GoalWeightLoss:     0.55,
				fitness.GoalGeneralFitness: 0.45,
				fitness.GoalMuscleGain:     0.1,
				fitness.GoalStrength:       0.05,
			},
		},
		{
			id:               "tpl-kettlebell-conditioning",
			name:             "Kettlebell Conditioning",
			description:      "Full-body kettlebell flow mixing strength and conditioning.",
			difficulty:       fitness.DifficultyIntermediate,
			estimatedMinutes: 35,
			calories:         300,
			focusAreas:       []string{"full body", "conditioning"},
			muscleGroups:     []string{"glutes", "hamstrings", "shoulders", "core"},
			plan: []PlanItem{
				{ExerciseID: "kettlebell-swing", Sets: 4, RepsMin: 12, RepsMax: 15, RestSeconds: 60},
				{ExerciseID: "goblet-squat", Sets: 4, RepsMin: 10, RepsMax: 12, RestSeconds: 60},
				{ExerciseID: "kettlebell-press", Sets: 3, RepsMin: 8, RepsMax: 10, RestSeconds: 60},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalGeneralFitness: 1.0,
				fitness.GoalWeightLoss:     0.6,
				fitness.GoalMuscleGain:     0.45,
				fitness.GoalStrength:       0.4,
				fitness.GoalEndurance:      0.4,
			},
		},
		{
			id:               "tpl-bodyweight-basics",
			name:             "Bodyweight Basics",
			description:      "No-equipment circuit covering the fundamental movement patterns.",
			difficulty:       fitness.DifficultyBeginner,
			estimatedMinutes: 30,
			calories:         220,
			focusAreas:       []string{"full body"},
			muscleGroups:     []string{"chest", "quadriceps", "core", "back"},
			plan: []PlanItem{
				{ExerciseID: "pushup", Sets: 3, RepsMin: 8, RepsMax: 15, RestSeconds: 60},
				{ExerciseID: "bodyweight-squat", Sets: 3, RepsMin: 12, RepsMax: 20, RestSeconds: 60},
				{ExerciseID: "inverted-row", Sets: 3, RepsMin: 8, RepsMax: 12, RestSeconds: 60},
				{ExerciseID: "plank", Sets: 3, RepsMin: 1, RepsMax: 1, RestSeconds: 45},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalGeneralFitness: 0.9,
				fitness.GoalWeightLoss:     0.5,
				fitness.GoalMuscleGain:     0.4,
				fitness.GoalEndurance:      0.35,
				fitness.GoalStrength:       0.3,
			},
		},
		{
			id:               "tpl-core-mobility",
			name:             "Core & Mobility",
			description:      "Core stability work and mobility drills for an easy training day.",
			difficulty:       fitness.DifficultyBeginner,
			estimatedMinutes: 25,
			calories:         150,
			focusAreas:       []string{"core", "mobility"},
			muscleGroups:     []string{"core"},
			plan: []PlanItem{
				{ExerciseID: "dead-bug", Sets: 3, RepsMin: 8, RepsMax: 12, RestSeconds: 45},
				{ExerciseID: "side-plank", Sets: 3, RepsMin: 1, RepsMax: 1, RestSeconds: 45},
				{ExerciseID: "hip-opener", Sets: 2, RepsMin: 8, RepsMax: 10, RestSeconds: 30},
			},
			affinity: map[fitness.GoalType]float64{
				fitness.GoalGeneralFitness: 0.7,
				fitness.GoalEndurance:      0.3,
				fitness.GoalWeightLoss:     0.3,
				fitness.GoalMuscleGain:     0.25,
				fitness.GoalStrength:       0.25,
			},
		},
	}
}

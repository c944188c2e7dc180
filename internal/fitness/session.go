// Package fitness holds the domain records the insight engine consumes.
// Workout history and goals are supplied by external collaborators; the
// engine treats them as immutable snapshots.
package fitness

import (
	"time"
)

// ExercisePerformance records one exercise performed within a session.
type ExercisePerformance struct {
	ExerciseID     string
	MuscleGroups   []string
	Sets           int
	Reps           int
	IntensityProxy float64 // relative effort in [0, 1]
}

// Primary returns the primary muscle group, the first listed one.
func (p ExercisePerformance) Primary() string {
	if len(p.MuscleGroups) == 0 {
		return ""
	}
	return p.MuscleGroups[0]
}

// WorkoutSession is a completed workout recorded by the tracking flow.
// Sessions are immutable once recorded and read-only to the engine.
type WorkoutSession struct {
	ID               string
	Date             time.Time
	DurationMinutes  int
	Exercises        []ExercisePerformance
	CaloriesEstimate int
}

// Intensity returns the session-level intensity proxy, the mean of the
// per-exercise proxies. Sessions without exercises report zero.
func (s WorkoutSession) Intensity() float64 {
	if len(s.Exercises) == 0 {
		return 0
	}
	var sum float64
	for _, ex := range s.Exercises {
		sum += ex.IntensityProxy
	}
	return sum / float64(len(s.Exercises))
}

// Load is the training load contribution of the session before decay,
// duration times intensity.
func (s WorkoutSession) Load() float64 {
	return float64(s.DurationMinutes) * s.Intensity()
}

// PrimaryMuscleGroups returns the distinct primary muscle groups targeted by
// the session, in first-seen order.
func (s WorkoutSession) PrimaryMuscleGroups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, ex := range s.Exercises {
		primary := ex.Primary()
		if primary == "" || seen[primary] {
			continue
		}
		seen[primary] = true
		groups = append(groups, primary)
	}
	return groups
}

// Validate fails fast on malformed session records.
func (s WorkoutSession) Validate() error {
	if s.ID == "" {
		return &ValidationError{RecordID: "<unknown>", Field: "id", Reason: "must not be empty"}
	}
	if s.Date.IsZero() {
		return &ValidationError{RecordID: s.ID, Field: "date", Reason: "must not be zero"}
	}
	if s.DurationMinutes <= 0 {
		return &ValidationError{RecordID: s.ID, Field: "duration_minutes", Reason: "must be positive"}
	}
	for _, ex := range s.Exercises {
		if ex.ExerciseID == "" {
			return &ValidationError{RecordID: s.ID, Field: "exercise_id", Reason: "must not be empty"}
		}
		if ex.Sets <= 0 || ex.Reps < 0 {
			return &ValidationError{RecordID: s.ID, Field: "sets", Reason: "sets must be positive"}
		}
		if ex.IntensityProxy < 0 || ex.IntensityProxy > 1 {
			return &ValidationError{RecordID: s.ID, Field: "intensity_proxy", Reason: "must be within [0, 1]"}
		}
	}
	return nil
}

// ValidateSessions validates a history snapshot, failing on the first
// malformed record so the caller can report the offending ID.
func ValidateSessions(sessions []WorkoutSession) error {
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

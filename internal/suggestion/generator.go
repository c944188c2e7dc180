// Package suggestion generates ranked, goal-aware workout suggestions from
// the user's training history.
package suggestion

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/myrjola/fitsight/internal/fitness"
)

// WorkoutSuggestion is one ranked suggestion. Instances are created fresh on
// each generation call and never mutated.
type WorkoutSuggestion struct {
	ID                string
	Name              string
	Description       string
	Difficulty        fitness.Difficulty
	EstimatedDuration int
	Plan              []PlanItem
	FocusAreas        []string
	CaloriesEstimate  int
	Reasoning         string

	// score is the internal ranking score; it is deliberately not exposed.
	score float64
}

// Config holds the scoring constants.
type Config struct {
	// DefaultCount is the number of suggestions when the caller passes zero.
	DefaultCount int
	// OverlapWindow is how far back trained muscle groups are penalized.
	OverlapWindow time.Duration
	// NoveltySessionCount is how many recent sessions define "recently done"
	// exercises for the novelty bonus.
	NoveltySessionCount int
	// DurationTolerance is the relative deviation from the target duration
	// tolerated before the duration penalty kicks in.
	DurationTolerance float64

	// Scoring weights.
	AffinityWeight float64
	OverlapWeight  float64
	DurationWeight float64
	NoveltyWeight  float64
}

// Scoring constants.
const (
	defaultCount             = 3
	defaultOverlapWindow     = 60 * time.Hour // between 48 and 72 hours
	defaultNoveltySessions   = 5
	defaultDurationTolerance = 0.25

	defaultAffinityWeight = 0.4
	defaultOverlapWeight  = 0.25
	defaultDurationWeight = 0.2
	defaultNoveltyWeight  = 0.15

	// Reasoning thresholds.
	strongAffinity     = 0.7
	lowOverlapFraction = 1.0 / 3.0
	highNoveltyShare   = 0.5
)

// DefaultConfig returns the documented default scoring constants.
func DefaultConfig() Config {
	return Config{
		DefaultCount:        defaultCount,
		OverlapWindow:       defaultOverlapWindow,
		NoveltySessionCount: defaultNoveltySessions,
		DurationTolerance:   defaultDurationTolerance,
		AffinityWeight:      defaultAffinityWeight,
		OverlapWeight:       defaultOverlapWeight,
		DurationWeight:      defaultDurationWeight,
		NoveltyWeight:       defaultNoveltyWeight,
	}
}

// Generator produces ranked workout suggestions. Generation is a pure
// function of the goal, the history snapshot, "now" and the fixed template
// catalog; the optional reasoning enricher only rewrites the justification
// text and never affects ranking.
type Generator struct {
	cfg       Config
	templates []template
	enricher  *reasoningEnricher
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithReasoningEnrichment enables LLM-backed reasoning text using the given
// API key. Generation falls back to the template-derived reasoning when the
// enrichment fails for any reason.
func WithReasoningEnrichment(apiKey string) Option {
	return func(g *Generator) {
		if apiKey != "" {
			g.enricher = newReasoningEnricher(apiKey, g.logger)
		}
	}
}

// NewGenerator constructs a generator over the built-in template catalog.
func NewGenerator(cfg Config, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		cfg:       cfg,
		templates: catalog(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// factors is the per-template scoring breakdown used for ranking and for
// deriving the reasoning text.
type factors struct {
	affinity        float64 // goal affinity in [0, 1]
	overlapFraction float64 // share of template muscle groups trained recently
	durationDev     float64 // relative deviation from the target duration
	noveltyFraction float64 // share of plan exercises absent from recent sessions
}

type scoredTemplate struct {
	tpl     template
	score   float64
	factors factors
}

// Generate returns at most count ranked suggestions for the goal and history.
// A non-positive count selects the configured default.
func (g *Generator) Generate(
	ctx context.Context,
	goal fitness.Goal,
	sessions []fitness.WorkoutSession,
	now time.Time,
	count int,
) ([]WorkoutSuggestion, error) {
	if err := goal.Validate(); err != nil {
		return nil, fmt.Errorf("validate goal: %w", err)
	}
	if err := fitness.ValidateSessions(sessions); err != nil {
		return nil, fmt.Errorf("validate sessions: %w", err)
	}
	if count <= 0 {
		count = g.cfg.DefaultCount
	}

	recentGroups := g.recentMuscleGroups(sessions, now)
	recentExercises := g.recentExerciseIDs(sessions, now)

	scored := make([]scoredTemplate, 0, len(g.templates))
	for _, tpl := range g.templates {
		f := g.scoreFactors(tpl, goal, recentGroups, recentExercises)
		scored = append(scored, scoredTemplate{tpl: tpl, score: g.totalScore(f), factors: f})
	}

	// Rank by score descending; the template ID is the stable tie-break so
	// generation stays reproducible.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].tpl.id < scored[j].tpl.id
	})

	if count > len(scored) {
		count = len(scored)
	}

	suggestions := make([]WorkoutSuggestion, 0, count)
	for _, st := range scored[:count] {
		suggestions = append(suggestions, g.buildSuggestion(ctx, st, goal, len(recentGroups) > 0))
	}
	return suggestions, nil
}

// recentMuscleGroups collects the muscle groups trained inside the overlap
// window, keyed for lookup.
func (g *Generator) recentMuscleGroups(sessions []fitness.WorkoutSession, now time.Time) map[string]bool {
	groups := make(map[string]bool)
	for _, s := range sessions {
		age := now.Sub(s.Date)
		if age < 0 || age > g.cfg.OverlapWindow {
			continue
		}
		for _, ex := range s.Exercises {
			for _, group := range ex.MuscleGroups {
				groups[group] = true
			}
		}
	}
	return groups
}

// recentExerciseIDs collects the exercises performed in the last N sessions.
func (g *Generator) recentExerciseIDs(sessions []fitness.WorkoutSession, now time.Time) map[string]bool {
	past := make([]fitness.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if !s.Date.After(now) {
			past = append(past, s)
		}
	}
	sort.Slice(past, func(i, j int) bool {
		return past[i].Date.After(past[j].Date)
	})
	if len(past) > g.cfg.NoveltySessionCount {
		past = past[:g.cfg.NoveltySessionCount]
	}

	ids := make(map[string]bool)
	for _, s := range past {
		for _, ex := range s.Exercises {
			ids[ex.ExerciseID] = true
		}
	}
	return ids
}

// scoreFactors computes the scoring breakdown of one template.
func (g *Generator) scoreFactors(
	tpl template,
	goal fitness.Goal,
	recentGroups map[string]bool,
	recentExercises map[string]bool,
) factors {
	var overlap int
	for _, group := range tpl.muscleGroups {
		if recentGroups[group] {
			overlap++
		}
	}
	overlapFraction := 0.0
	if len(tpl.muscleGroups) > 0 {
		overlapFraction = float64(overlap) / float64(len(tpl.muscleGroups))
	}

	var novel int
	for _, id := range tpl.exerciseIDs() {
		if !recentExercises[id] {
			novel++
		}
	}
	noveltyFraction := 0.0
	if len(tpl.plan) > 0 {
		noveltyFraction = float64(novel) / float64(len(tpl.plan))
	}

	durationDev := math.Abs(float64(tpl.estimatedMinutes)-float64(goal.TargetDurationMinutes)) /
		float64(goal.TargetDurationMinutes)

	return factors{
		affinity:        tpl.affinity[goal.Type],
		overlapFraction: overlapFraction,
		durationDev:     durationDev,
		noveltyFraction: noveltyFraction,
	}
}

// totalScore folds the breakdown into the ranking score. Overlap and
// out-of-tolerance duration deviation penalize; affinity and novelty reward.
func (g *Generator) totalScore(f factors) float64 {
	durationPenalty := math.Max(0, f.durationDev-g.cfg.DurationTolerance)
	return f.affinity*g.cfg.AffinityWeight -
		f.overlapFraction*g.cfg.OverlapWeight -
		durationPenalty*g.cfg.DurationWeight +
		f.noveltyFraction*g.cfg.NoveltyWeight
}

// buildSuggestion materializes a template into a suggestion with reasoning.
func (g *Generator) buildSuggestion(
	ctx context.Context,
	st scoredTemplate,
	goal fitness.Goal,
	hasRecentTraining bool,
) WorkoutSuggestion {
	reasoning := g.reasoning(st.factors, goal, hasRecentTraining)

	s := WorkoutSuggestion{
		ID:                uuid.NewString(),
		Name:              st.tpl.name,
		Description:       st.tpl.description,
		Difficulty:        st.tpl.difficulty,
		EstimatedDuration: st.tpl.estimatedMinutes,
		Plan:              st.tpl.plan,
		FocusAreas:        st.tpl.focusAreas,
		CaloriesEstimate:  st.tpl.calories,
		Reasoning:         reasoning,
		score:             st.score,
	}

	if g.enricher != nil {
		enriched, err := g.enricher.Enrich(ctx, s, goal)
		if err != nil {
			g.logger.LogAttrs(ctx, slog.LevelWarn, "reasoning enrichment failed, using template reasoning",
				slog.String("suggestion", s.Name), slog.Any("error", err))
		} else {
			s.Reasoning = enriched
		}
	}

	return s
}

// reasoning derives the justification text from the dominant scoring factors.
func (g *Generator) reasoning(f factors, goal fitness.Goal, hasRecentTraining bool) string {
	var parts []string

	if f.affinity >= strongAffinity {
		parts = append(parts, fmt.Sprintf("matches your %s goal", strings.ReplaceAll(string(goal.Type), "_", " ")))
	}
	if hasRecentTraining && f.overlapFraction <= lowOverlapFraction {
		parts = append(parts, "avoids muscle groups you trained in the last couple of days")
	}
	if f.durationDev <= g.cfg.DurationTolerance {
		parts = append(parts, fmt.Sprintf("fits your %d-minute window", goal.TargetDurationMinutes))
	}
	if f.noveltyFraction >= highNoveltyShare {
		parts = append(parts, "adds variety with exercises you haven't done lately")
	}

	if len(parts) == 0 {
		return "A solid option to keep your training moving."
	}
	sentence := strings.Join(parts, " and ")
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}

// Package engine owns the refresh cycle: it pulls training history, goals,
// score events and external triggers from its providers, runs the analysis
// components and folds their outputs into the insight aggregator.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/myrjola/fitsight/internal/fatigue"
	"github.com/myrjola/fitsight/internal/fitness"
	"github.com/myrjola/fitsight/internal/flightrecorder"
	"github.com/myrjola/fitsight/internal/insight"
	"github.com/myrjola/fitsight/internal/leaderboard"
	"github.com/myrjola/fitsight/internal/suggestion"
)

// HistoryProvider supplies the workout history snapshot. The engine treats
// the returned slice as immutable.
type HistoryProvider interface {
	Sessions(ctx context.Context) ([]fitness.WorkoutSession, error)
}

// GoalProvider supplies the user's current training goal.
type GoalProvider interface {
	Goal(ctx context.Context) (fitness.Goal, error)
}

// ScoreSource supplies the score-event stream for leaderboard ranking.
type ScoreSource interface {
	Events(ctx context.Context) ([]leaderboard.ScoreEvent, error)
}

// TriggerSource supplies externally produced signals, such as achievement and
// streak triggers, that join the aggregation pass alongside the engine's own.
type TriggerSource interface {
	Triggers(ctx context.Context) ([]insight.Signal, error)
}

// Config holds the engine's tunables.
type Config struct {
	// RefreshTimeout bounds one full refresh computation.
	RefreshTimeout time.Duration
	// MaxVisible caps the visible insight set returned by a refresh.
	MaxVisible int
	// SuggestionCount is how many workout suggestions a refresh requests.
	SuggestionCount int
	// CurrentUserID marks the requesting user in leaderboard standings.
	CurrentUserID string
	// Leaderboard selects which standings a refresh computes.
	Leaderboard leaderboard.Query
}

const (
	defaultRefreshTimeout  = 5 * time.Second
	defaultMaxVisible      = 10
	defaultSuggestionCount = 3
)

// DefaultConfig returns the engine defaults with a weekly global points
// leaderboard.
func DefaultConfig() Config {
	return Config{
		RefreshTimeout:  defaultRefreshTimeout,
		MaxVisible:      defaultMaxVisible,
		SuggestionCount: defaultSuggestionCount,
		Leaderboard: leaderboard.Query{
			Board:     leaderboard.BoardGlobal,
			ScoreType: leaderboard.ScorePoints,
			Timeframe: leaderboard.TimeframeWeekly,
		},
	}
}

// Snapshot is the result of one refresh: every component's output plus the
// visible insight set after the aggregation pass.
type Snapshot struct {
	Assessment  *fatigue.Assessment
	Rest        *fatigue.RestRecommendation
	Suggestions []suggestion.WorkoutSuggestion
	Standings   *leaderboard.Standings
	Insights    []insight.Insight
	GeneratedAt time.Time
}

// Service coordinates the analysis components. The components themselves are
// pure; all caching, coalescing and cancellation lives here.
type Service struct {
	cfg Config

	history  HistoryProvider
	goals    GoalProvider
	scores   ScoreSource
	triggers TriggerSource

	analyzer    *fatigue.Analyzer
	recommender *fatigue.Recommender
	generator   *suggestion.Generator
	ranker      *leaderboard.Ranker
	aggregator  *insight.Aggregator
	recorder    *flightrecorder.Service

	logger *slog.Logger

	group     singleflight.Group
	refreshes refreshState
}

// Option configures optional collaborators.
type Option func(*Service)

// WithTriggerSource adds an external trigger source to the refresh cycle.
func WithTriggerSource(triggers TriggerSource) Option {
	return func(s *Service) {
		s.triggers = triggers
	}
}

// WithFlightRecorder captures a runtime trace when a refresh times out.
func WithFlightRecorder(recorder *flightrecorder.Service) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// NewService wires the engine. The aggregator may carry an audit log; the
// engine does not care.
func NewService(
	cfg Config,
	history HistoryProvider,
	goals GoalProvider,
	scores ScoreSource,
	analyzer *fatigue.Analyzer,
	recommender *fatigue.Recommender,
	generator *suggestion.Generator,
	ranker *leaderboard.Ranker,
	aggregator *insight.Aggregator,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	if cfg.MaxVisible <= 0 {
		cfg.MaxVisible = defaultMaxVisible
	}
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = defaultSuggestionCount
	}
	s := &Service{
		cfg:         cfg,
		history:     history,
		goals:       goals,
		scores:      scores,
		analyzer:    analyzer,
		recommender: recommender,
		generator:   generator,
		ranker:      ranker,
		aggregator:  aggregator,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VisibleInsights returns the current visible insight set without triggering
// a refresh.
func (s *Service) VisibleInsights(now time.Time) []insight.Insight {
	return s.aggregator.Visible(now, s.cfg.MaxVisible)
}

// DismissInsight flips an insight into its terminal dismissed state.
func (s *Service) DismissInsight(ctx context.Context, id string, now time.Time) error {
	return s.aggregator.Dismiss(ctx, id, now)
}

// Command smoketest exercises the full insight engine against a synthetic
// training history and fails loudly if any piece of the pipeline misbehaves.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/fitsight/internal/engine"
	"github.com/myrjola/fitsight/internal/envstruct"
	"github.com/myrjola/fitsight/internal/errors"
	"github.com/myrjola/fitsight/internal/fatigue"
	"github.com/myrjola/fitsight/internal/fitness"
	"github.com/myrjola/fitsight/internal/flightrecorder"
	"github.com/myrjola/fitsight/internal/insight"
	"github.com/myrjola/fitsight/internal/leaderboard"
	"github.com/myrjola/fitsight/internal/logging"
	"github.com/myrjola/fitsight/internal/sqlite"
	"github.com/myrjola/fitsight/internal/suggestion"
)

type config struct {
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITSIGHT_SQLITE_URL" envDefault:":memory:"`
	// RefreshTimeout bounds one refresh computation.
	RefreshTimeout time.Duration `env:"FITSIGHT_REFRESH_TIMEOUT" envDefault:"5s"`
	// MaxVisible caps the visible insight set.
	MaxVisible int `env:"FITSIGHT_MAX_VISIBLE" envDefault:"10"`
	// OpenAIAPIKey enables LLM-backed suggestion reasoning when set.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// TracesDirectory enables flight-recorder trace capture on refresh timeouts when set.
	TracesDirectory string `env:"FITSIGHT_TRACES_DIR" envDefault:""`
}

type syntheticHistory struct {
	now time.Time
}

func (h syntheticHistory) Sessions(context.Context) ([]fitness.WorkoutSession, error) {
	legDay := fitness.WorkoutSession{
		ID:              "session-legs",
		Date:            h.now.Add(-20 * time.Hour),
		DurationMinutes: 60,
		Exercises: []fitness.ExercisePerformance{
			{ExerciseID: "back-squat", MuscleGroups: []string{"quadriceps", "glutes"}, Sets: 5, Reps: 5, IntensityProxy: 0.9},
		},
		CaloriesEstimate: 380,
	}
	upperDay := fitness.WorkoutSession{
		ID:              "session-upper",
		Date:            h.now.Add(-4 * 24 * time.Hour),
		DurationMinutes: 45,
		Exercises: []fitness.ExercisePerformance{
			{ExerciseID: "bench-press", MuscleGroups: []string{"chest", "triceps"}, Sets: 5, Reps: 5, IntensityProxy: 0.8},
		},
		CaloriesEstimate: 300,
	}
	return []fitness.WorkoutSession{legDay, upperDay}, nil
}

type syntheticGoals struct{}

func (syntheticGoals) Goal(context.Context) (fitness.Goal, error) {
	return fitness.Goal{
		Type:                  fitness.GoalStrength,
		TargetDurationMinutes: 45,
		DifficultyPreference:  fitness.DifficultyIntermediate,
	}, nil
}

type syntheticScores struct {
	now time.Time
}

func (s syntheticScores) Events(context.Context) ([]leaderboard.ScoreEvent, error) {
	return []leaderboard.ScoreEvent{
		{UserID: "me", DisplayName: "Me", Score: 320, Type: leaderboard.ScorePoints, AchievedAt: s.now.Add(-3 * time.Hour)},
		{UserID: "ada", DisplayName: "Ada", Score: 290, Type: leaderboard.ScorePoints, AchievedAt: s.now.Add(-5 * time.Hour)},
		{UserID: "sam", DisplayName: "Sam", Score: 150, Type: leaderboard.ScorePoints, AchievedAt: s.now.Add(-8 * time.Hour)},
	}, nil
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", slog.Any("error", err))
		}
	}()

	now := time.Now()
	auditRepository := insight.NewAuditRepository(db, logger)
	aggregator := insight.NewAggregator(auditRepository, logger)

	var generatorOpts []suggestion.Option
	if cfg.OpenAIAPIKey != "" {
		generatorOpts = append(generatorOpts, suggestion.WithReasoningEnrichment(cfg.OpenAIAPIKey))
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.RefreshTimeout = cfg.RefreshTimeout
	engineCfg.MaxVisible = cfg.MaxVisible
	engineCfg.CurrentUserID = "me"

	var engineOpts []engine.Option
	if cfg.TracesDirectory != "" {
		recorder, recorderErr := flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			TracesDirectory: cfg.TracesDirectory,
		})
		if recorderErr != nil {
			return errors.Wrap(recorderErr, "create flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
		engineOpts = append(engineOpts, engine.WithFlightRecorder(recorder))
	}

	service := engine.NewService(
		engineCfg,
		syntheticHistory{now: now},
		syntheticGoals{},
		syntheticScores{now: now},
		fatigue.NewAnalyzer(fatigue.DefaultConfig()),
		fatigue.NewRecommender(fatigue.DefaultRecommenderConfig()),
		suggestion.NewGenerator(suggestion.DefaultConfig(), logger, generatorOpts...),
		leaderboard.NewRanker(),
		aggregator,
		logger,
		engineOpts...,
	)

	snapshot, err := service.Refresh(ctx, now)
	if err != nil {
		return errors.Wrap(err, "refresh")
	}

	if snapshot.Assessment == nil {
		return errors.New("expected a fatigue assessment from the synthetic history")
	}
	if len(snapshot.Suggestions) == 0 {
		return errors.New("expected workout suggestions")
	}
	if snapshot.Standings == nil || snapshot.Standings.CurrentUserRank == nil {
		return errors.New("expected standings with the current user ranked")
	}
	if len(snapshot.Insights) == 0 {
		return errors.New("expected visible insights after the refresh")
	}

	for _, ins := range snapshot.Insights {
		logger.LogAttrs(ctx, slog.LevelInfo, "insight",
			slog.String("type", string(ins.Type)),
			slog.String("priority", string(ins.Priority)),
			slog.String("title", ins.Title))
	}

	// Dismiss the most urgent insight and verify it stays gone on the next pass.
	dismissed := snapshot.Insights[0]
	if err = service.DismissInsight(ctx, dismissed.ID, now); err != nil {
		return errors.Wrap(err, "dismiss insight")
	}
	later, err := service.Refresh(ctx, now.Add(2*time.Minute))
	if err != nil {
		return errors.Wrap(err, "refresh after dismissal")
	}
	for _, ins := range later.Insights {
		if ins.ID == dismissed.ID {
			return errors.Wrap(errors.New("dismissed insight reappeared"), "verify dismissal",
				slog.String("id", dismissed.ID), slog.String("title", dismissed.Title))
		}
	}

	history, err := auditRepository.History(ctx, dismissed.ID)
	if err != nil {
		return errors.Wrap(err, "load audit history")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "audit trail",
		slog.String("insight_id", dismissed.ID), slog.Int("events", len(history)))
	if len(history) == 0 {
		return errors.New("expected an audit trail for the dismissed insight")
	}

	fatigueLevel := fmt.Sprintf("%.2f", snapshot.Assessment.FatigueLevel)
	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌",
		slog.String("fatigue_level", fatigueLevel),
		slog.Int("suggestions", len(snapshot.Suggestions)),
		slog.Int("visible_insights", len(snapshot.Insights)))
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		os.Exit(1)
	}
}

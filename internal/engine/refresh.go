package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/fitsight/internal/errors"
	"github.com/myrjola/fitsight/internal/fatigue"
	"github.com/myrjola/fitsight/internal/fitness"
	"github.com/myrjola/fitsight/internal/insight"
	"github.com/myrjola/fitsight/internal/leaderboard"
	"github.com/myrjola/fitsight/internal/suggestion"
)

// refreshState holds the mutable bookkeeping of the refresh cycle: the
// latest completed snapshot and its input key, the key of the in-flight
// computation and its cancel function, and the last known-good component
// outputs used by the isolation boundary. Only the latest snapshot is
// retained; older inputs recompute.
type refreshState struct {
	mu           sync.Mutex
	memoKey      string
	memoSnapshot *Snapshot
	inflightKey  string
	cancel       context.CancelFunc

	lastAssessment  *fatigue.Assessment
	lastRest        *fatigue.RestRecommendation
	lastSuggestions []suggestion.WorkoutSuggestion
	lastStandings   *leaderboard.Standings
}

// Refresh runs one full computation pass and returns the snapshot. Identical
// inputs within the same minute reuse the latest snapshot; concurrent calls
// with the same inputs coalesce into one computation; a call with different
// inputs cancels the stale in-flight computation before starting its own.
func (s *Service) Refresh(ctx context.Context, now time.Time) (*Snapshot, error) {
	sessions, err := s.history.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	goal, err := s.goals.Goal(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	events, err := s.scores.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("load score events: %w", err)
	}
	var triggers []insight.Signal
	if s.triggers != nil {
		if triggers, err = s.triggers.Triggers(ctx); err != nil {
			return nil, fmt.Errorf("load triggers: %w", err)
		}
	}

	key := inputKey(sessions, goal, events, now)

	s.refreshes.mu.Lock()
	if s.refreshes.memoKey == key && s.refreshes.memoSnapshot != nil {
		cached := s.refreshes.memoSnapshot
		s.refreshes.mu.Unlock()
		return cached, nil
	}
	if s.refreshes.inflightKey != "" && s.refreshes.inflightKey != key && s.refreshes.cancel != nil {
		// A superseding request invalidates the stale computation instead of
		// racing it.
		s.refreshes.cancel()
	}
	s.refreshes.mu.Unlock()

	result, err, _ := s.group.Do(key, func() (any, error) {
		// Only the caller that actually runs the computation owns the cancel
		// slot; coalesced callers must not touch it. The computation outlives
		// any single caller so coalesced requests can share its result.
		computeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.refreshes.mu.Lock()
		s.refreshes.inflightKey = key
		s.refreshes.cancel = cancel
		s.refreshes.mu.Unlock()
		defer func() {
			s.refreshes.mu.Lock()
			if s.refreshes.inflightKey == key {
				s.refreshes.inflightKey = ""
				s.refreshes.cancel = nil
			}
			s.refreshes.mu.Unlock()
			cancel()
		}()
		snapshot, computeErr := s.compute(computeCtx, sessions, goal, events, triggers, now)
		if computeErr != nil {
			return nil, computeErr
		}
		s.refreshes.mu.Lock()
		s.refreshes.memoKey = key
		s.refreshes.memoSnapshot = snapshot
		s.refreshes.mu.Unlock()
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	snapshot, ok := result.(*Snapshot)
	if !ok {
		return nil, errors.New("unexpected refresh result type")
	}
	return snapshot, nil
}

// compute runs the analysis components in parallel under the refresh
// timeout. A component failure is contained: the engine logs it and falls
// back to the component's last known-good output so the other components
// still contribute to the pass. Only a timeout fails the whole refresh.
func (s *Service) compute(
	ctx context.Context,
	sessions []fitness.WorkoutSession,
	goal fitness.Goal,
	events []leaderboard.ScoreEvent,
	triggers []insight.Signal,
	now time.Time,
) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	defer cancel()

	snapshot := &Snapshot{GeneratedAt: now}
	sparseHistory := false

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.isolated(gctx, "fatigue", func() error {
			assessment, err := s.analyzer.Analyze(sessions, now)
			if err != nil {
				if errors.Is(err, fitness.ErrInsufficientData) {
					sparseHistory = true
					return nil
				}
				return err
			}
			rest := s.recommender.Recommend(assessment)
			snapshot.Assessment = &assessment
			snapshot.Rest = &rest
			return nil
		}, func() {
			snapshot.Assessment = s.refreshes.lastAssessment
			snapshot.Rest = s.refreshes.lastRest
		})
	})

	g.Go(func() error {
		return s.isolated(gctx, "suggestions", func() error {
			suggestions, err := s.generator.Generate(gctx, goal, sessions, now, s.cfg.SuggestionCount)
			if err != nil {
				return err
			}
			snapshot.Suggestions = suggestions
			return nil
		}, func() {
			snapshot.Suggestions = s.refreshes.lastSuggestions
		})
	})

	g.Go(func() error {
		return s.isolated(gctx, "leaderboard", func() error {
			query := s.cfg.Leaderboard
			query.CurrentUserID = s.cfg.CurrentUserID
			standings, err := s.ranker.Rank(events, query, now)
			if err != nil {
				return err
			}
			snapshot.Standings = &standings
			return nil
		}, func() {
			snapshot.Standings = s.refreshes.lastStandings
		})
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			if s.recorder != nil {
				s.recorder.CaptureTimeoutTrace(ctx)
			}
			return nil, errors.Wrap(fitness.ErrComputationTimeout, "refresh",
				slog.Duration("timeout", s.cfg.RefreshTimeout))
		}
		return nil, err
	}
	// The components tolerate an expired context internally; the bounded-time
	// guarantee is enforced here at the boundary.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if s.recorder != nil {
			s.recorder.CaptureTimeoutTrace(ctx)
		}
		return nil, errors.Wrap(fitness.ErrComputationTimeout, "refresh",
			slog.Duration("timeout", s.cfg.RefreshTimeout))
	}

	s.rememberLastGood(snapshot)

	signals := s.buildSignals(snapshot, sparseHistory)
	signals = append(signals, triggers...)
	if err := s.aggregator.Apply(ctx, signals, now); err != nil {
		return nil, fmt.Errorf("apply signals: %w", err)
	}
	snapshot.Insights = s.aggregator.Visible(now, s.cfg.MaxVisible)

	return snapshot, nil
}

// isolated contains one component's failure: panics become annotated errors,
// and any failure other than the refresh deadline is logged and replaced by
// the fallback instead of propagating.
func (s *Service) isolated(ctx context.Context, component string, fn func() error, fallback func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.DecoratePanic(r)
		}
		if err == nil {
			return
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		s.logger.LogAttrs(ctx, slog.LevelError, "component failed, using last known-good output",
			slog.String("component", component), slog.Any("error", err))
		s.refreshes.mu.Lock()
		fallback()
		s.refreshes.mu.Unlock()
		err = nil
	}()
	return fn()
}

// rememberLastGood stores the snapshot's component outputs for the isolation
// fallback of later passes.
func (s *Service) rememberLastGood(snapshot *Snapshot) {
	s.refreshes.mu.Lock()
	defer s.refreshes.mu.Unlock()
	if snapshot.Assessment != nil {
		s.refreshes.lastAssessment = snapshot.Assessment
		s.refreshes.lastRest = snapshot.Rest
	}
	if snapshot.Suggestions != nil {
		s.refreshes.lastSuggestions = snapshot.Suggestions
	}
	if snapshot.Standings != nil {
		s.refreshes.lastStandings = snapshot.Standings
	}
}

// inputKey hashes the refresh inputs. "now" is truncated to the minute so
// rapid re-renders inside the same minute hit the memo.
func inputKey(
	sessions []fitness.WorkoutSession,
	goal fitness.Goal,
	events []leaderboard.ScoreEvent,
	now time.Time,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "goal:%s:%d:%s\n", goal.Type, goal.TargetDurationMinutes, goal.DifficultyPreference)
	fmt.Fprintf(&b, "now:%d\n", now.Truncate(time.Minute).Unix())
	for _, session := range sessions {
		fmt.Fprintf(&b, "s:%s:%d:%d\n", session.ID, session.Date.Unix(), session.DurationMinutes)
	}
	for _, event := range events {
		fmt.Fprintf(&b, "e:%s:%s:%g:%d\n", event.UserID, event.Type, event.Score, event.AchievedAt.Unix())
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

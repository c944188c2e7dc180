// Package leaderboard ranks score events into standings per board and
// timeframe. Ranking is always recomputed from the event stream; ranks are
// never stored.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/myrjola/fitsight/internal/fitness"
)

// ScoreType identifies the metric a score event measures.
type ScoreType string

const (
	ScorePoints   ScoreType = "points"
	ScoreTime     ScoreType = "time"
	ScoreWeight   ScoreType = "weight"
	ScoreDistance ScoreType = "distance"
	ScoreReps     ScoreType = "reps"
)

// LowerIsBetter reports the winning direction of the metric. Time is a race
// result, everything else accumulates.
func (s ScoreType) LowerIsBetter() bool {
	return s == ScoreTime
}

func (s ScoreType) valid() bool {
	switch s {
	case ScorePoints, ScoreTime, ScoreWeight, ScoreDistance, ScoreReps:
		return true
	default:
		return false
	}
}

// BoardType selects which slice of the event stream competes together.
type BoardType string

const (
	BoardGlobal    BoardType = "global"
	BoardChallenge BoardType = "challenge"
	BoardCategory  BoardType = "category"
)

// Timeframe buckets events by calendar period. Weeks start on Monday.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeAllTime Timeframe = "all_time"
)

// ScoreEvent is one recorded score for one user. Challenge and Category are
// only set for events tied to a challenge or an exercise category.
type ScoreEvent struct {
	UserID      string
	DisplayName string
	Score       float64
	Type        ScoreType
	AchievedAt  time.Time
	Challenge   string
	Category    string
}

// Entry is one ranked row of a standings computation.
type Entry struct {
	UserID        string
	DisplayName   string
	Score         float64
	ScoreType     ScoreType
	Rank          int
	IsCurrentUser bool
	AchievedAt    time.Time
}

// Standings is the result of one ranking request. CurrentUserRank is nil when
// the requesting user has no event in the window.
type Standings struct {
	Board           BoardType
	Timeframe       Timeframe
	Entries         []Entry
	CurrentUserRank *int
}

// Query describes one ranking request. Scope names the challenge or category
// for the non-global boards and must be empty for the global board.
type Query struct {
	Board         BoardType
	Scope         string
	ScoreType     ScoreType
	Timeframe     Timeframe
	CurrentUserID string
}

// Validate checks the query against the closed board, metric and timeframe
// sets.
func (q Query) Validate() error {
	if !q.ScoreType.valid() {
		return &fitness.ValidationError{Field: "score_type", Reason: fmt.Sprintf("unknown score type %q", q.ScoreType)}
	}
	switch q.Board {
	case BoardGlobal:
		if q.Scope != "" {
			return &fitness.ValidationError{Field: "scope", Reason: "global board takes no scope"}
		}
	case BoardChallenge, BoardCategory:
		if q.Scope == "" {
			return &fitness.ValidationError{Field: "scope", Reason: fmt.Sprintf("%s board requires a scope", q.Board)}
		}
	default:
		return &fitness.ValidationError{Field: "board", Reason: fmt.Sprintf("unknown board type %q", q.Board)}
	}
	switch q.Timeframe {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeAllTime:
	default:
		return &fitness.ValidationError{Field: "timeframe", Reason: fmt.Sprintf("unknown timeframe %q", q.Timeframe)}
	}
	return nil
}

// Ranker computes standings from score events. It holds no state; every call
// is a pure function of the events, the query and "now".
type Ranker struct{}

// NewRanker constructs a Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank filters the events to the query's board, metric and timeframe, keeps
// each user's best in-window score and assigns competition ranks. A true dead
// heat, equal score and equal AchievedAt, shares a rank and the next distinct
// entry continues from the tie count. An earlier AchievedAt alone breaks an
// equal-score tie and the entries get distinct consecutive ranks.
func (r *Ranker) Rank(events []ScoreEvent, q Query, now time.Time) (Standings, error) {
	if err := q.Validate(); err != nil {
		return Standings{}, fmt.Errorf("validate query: %w", err)
	}

	windowStart, hasWindow := timeframeStart(q.Timeframe, now)

	best := make(map[string]ScoreEvent)
	for _, ev := range events {
		if ev.Type != q.ScoreType || !r.inScope(ev, q) {
			continue
		}
		if ev.AchievedAt.After(now) {
			continue
		}
		if hasWindow && ev.AchievedAt.Before(windowStart) {
			continue
		}
		current, ok := best[ev.UserID]
		if !ok || beats(ev, current) {
			best[ev.UserID] = ev
		}
	}

	ranked := make([]ScoreEvent, 0, len(best))
	for _, ev := range best {
		ranked = append(ranked, ev)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			if q.ScoreType.LowerIsBetter() {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		if !a.AchievedAt.Equal(b.AchievedAt) {
			return a.AchievedAt.Before(b.AchievedAt)
		}
		return a.UserID < b.UserID
	})

	standings := Standings{
		Board:     q.Board,
		Timeframe: q.Timeframe,
		Entries:   make([]Entry, 0, len(ranked)),
	}
	for i, ev := range ranked {
		rank := i + 1
		if i > 0 {
			prev := standings.Entries[i-1]
			if prev.Score == ev.Score && prev.AchievedAt.Equal(ev.AchievedAt) {
				rank = prev.Rank
			}
		}
		entry := Entry{
			UserID:        ev.UserID,
			DisplayName:   ev.DisplayName,
			Score:         ev.Score,
			ScoreType:     ev.Type,
			Rank:          rank,
			IsCurrentUser: q.CurrentUserID != "" && ev.UserID == q.CurrentUserID,
			AchievedAt:    ev.AchievedAt,
		}
		if entry.IsCurrentUser {
			standings.CurrentUserRank = &entry.Rank
		}
		standings.Entries = append(standings.Entries, entry)
	}
	return standings, nil
}

// inScope reports whether the event belongs to the queried board.
func (r *Ranker) inScope(ev ScoreEvent, q Query) bool {
	switch q.Board {
	case BoardChallenge:
		return ev.Challenge == q.Scope
	case BoardCategory:
		return ev.Category == q.Scope
	default:
		return true
	}
}

// beats reports whether the candidate event is a better personal result than
// the incumbent, preferring the earlier AchievedAt on an equal score.
func beats(candidate, incumbent ScoreEvent) bool {
	if candidate.Score != incumbent.Score {
		if candidate.Type.LowerIsBetter() {
			return candidate.Score < incumbent.Score
		}
		return candidate.Score > incumbent.Score
	}
	return candidate.AchievedAt.Before(incumbent.AchievedAt)
}

// timeframeStart returns the inclusive start of the calendar bucket that
// contains now. All-time reports no window.
func timeframeStart(tf Timeframe, now time.Time) (time.Time, bool) {
	switch tf {
	case TimeframeDaily:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case TimeframeWeekly:
		year, month, day := now.Date()
		midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		// time.Weekday counts Sunday as zero; shift so Monday starts the week.
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), true
	case TimeframeMonthly:
		year, month, _ := now.Date()
		return time.Date(year, month, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

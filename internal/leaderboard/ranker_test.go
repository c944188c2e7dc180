package leaderboard_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitsight/internal/leaderboard"
)

var rankNow = time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC) // a Monday

func event(userID string, score float64, achievedAt time.Time) leaderboard.ScoreEvent {
	return leaderboard.ScoreEvent{
		UserID:      userID,
		DisplayName: "User " + userID,
		Score:       score,
		Type:        leaderboard.ScorePoints,
		AchievedAt:  achievedAt,
	}
}

func globalQuery() leaderboard.Query {
	return leaderboard.Query{
		Board:     leaderboard.BoardGlobal,
		ScoreType: leaderboard.ScorePoints,
		Timeframe: leaderboard.TimeframeAllTime,
	}
}

// TestRankPermutation verifies ranks form a gapless 1..N sequence when all
// scores differ.
func TestRankPermutation(t *testing.T) {
	r := leaderboard.NewRanker()
	events := []leaderboard.ScoreEvent{
		event("u1", 150, rankNow.Add(-time.Hour)),
		event("u2", 300, rankNow.Add(-2*time.Hour)),
		event("u3", 50, rankNow.Add(-3*time.Hour)),
		event("u4", 220, rankNow.Add(-4*time.Hour)),
	}

	standings, err := r.Rank(events, globalQuery(), rankNow)
	if err != nil {
		t.Fatalf("Rank returned unexpected error: %v", err)
	}

	wantOrder := []string{"u2", "u4", "u1", "u3"}
	gotOrder := make([]string, 0, len(standings.Entries))
	for i, e := range standings.Entries {
		gotOrder = append(gotOrder, e.UserID)
		if e.Rank != i+1 {
			t.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("ranking order mismatch (-want +got):\n%s", diff)
	}
}

// TestEqualScoreEarlierAchievedWins pins down the tie-break: with equal
// points the user who got there first ranks higher, and the ranks stay
// distinct because the achievement times differ.
func TestEqualScoreEarlierAchievedWins(t *testing.T) {
	r := leaderboard.NewRanker()
	t0 := rankNow.Add(-2 * time.Hour)
	events := []leaderboard.ScoreEvent{
		event("u1", 100, t0),
		event("u2", 100, t0.Add(-time.Hour)),
	}

	standings, err := r.Rank(events, globalQuery(), rankNow)
	if err != nil {
		t.Fatalf("Rank returned unexpected error: %v", err)
	}
	if len(standings.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(standings.Entries))
	}
	if standings.Entries[0].UserID != "u2" || standings.Entries[0].Rank != 1 {
		t.Errorf("first entry = %s rank %d, want u2 rank 1", standings.Entries[0].UserID, standings.Entries[0].Rank)
	}
	if standings.Entries[1].UserID != "u1" || standings.Entries[1].Rank != 2 {
		t.Errorf("second entry = %s rank %d, want u1 rank 2", standings.Entries[1].UserID, standings.Entries[1].Rank)
	}
}

// TestDeadHeatSharesRank verifies competition ranking: a true dead heat
// shares a rank and the next distinct entry continues past the tie count.
func TestDeadHeatSharesRank(t *testing.T) {
	r := leaderboard.NewRanker()
	t0 := rankNow.Add(-3 * time.Hour)
	events := []leaderboard.ScoreEvent{
		event("u1", 200, t0),
		event("u2", 200, t0),
		event("u3", 150, t0),
	}

	standings, err := r.Rank(events, globalQuery(), rankNow)
	if err != nil {
		t.Fatalf("Rank returned unexpected error: %v", err)
	}

	wantRanks := []int{1, 1, 3}
	for i, want := range wantRanks {
		if standings.Entries[i].Rank != want {
			t.Errorf("entry %d rank = %d, want %d", i, standings.Entries[i].Rank, want)
		}
	}
	// Dead heats fall back to user ID so the order is still deterministic.
	if standings.Entries[0].UserID != "u1" || standings.Entries[1].UserID != "u2" {
		t.Errorf("dead heat order = %s, %s, want u1, u2",
			standings.Entries[0].UserID, standings.Entries[1].UserID)
	}
}

// TestTimeScoresRankAscending verifies the lower-is-better direction for time
// results, including best-per-user selection.
func TestTimeScoresRankAscending(t *testing.T) {
	r := leaderboard.NewRanker()
	timeEvent := func(userID string, seconds float64, achievedAt time.Time) leaderboard.ScoreEvent {
		ev := event(userID, seconds, achievedAt)
		ev.Type = leaderboard.ScoreTime
		return ev
	}
	events := []leaderboard.ScoreEvent{
		timeEvent("u1", 245, rankNow.Add(-5*time.Hour)),
		timeEvent("u1", 232, rankNow.Add(-time.Hour)), // personal best
		timeEvent("u2", 238, rankNow.Add(-2*time.Hour)),
	}
	q := globalQuery()
	q.ScoreType = leaderboard.ScoreTime

	standings, err := r.Rank(events, q, rankNow)
	if err != nil {
		t.Fatalf("Rank returned unexpected error: %v", err)
	}
	if len(standings.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2 (one per user)", len(standings.Entries))
	}
	if standings.Entries[0].UserID != "u1" || standings.Entries[0].Score != 232 {
		t.Errorf("fastest entry = %s at %.0f, want u1 at 232", standings.Entries[0].UserID, standings.Entries[0].Score)
	}
	if standings.Entries[1].UserID != "u2" {
		t.Errorf("second entry = %s, want u2", standings.Entries[1].UserID)
	}
}

// TestTimeframeWindows verifies the calendar bucketing: daily keeps only
// today, weekly keeps the Monday-started week, monthly the calendar month.
func TestTimeframeWindows(t *testing.T) {
	r := leaderboard.NewRanker()
	events := []leaderboard.ScoreEvent{
		event("today", 10, rankNow.Add(-2*time.Hour)),
		event("yesterday", 20, rankNow.Add(-24*time.Hour)),
		event("lastweek", 30, rankNow.Add(-6*24*time.Hour)),
		event("lastmonth", 40, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)),
	}

	tests := []struct {
		timeframe leaderboard.Timeframe
		wantUsers map[string]bool
	}{
		{
			timeframe: leaderboard.TimeframeDaily,
			wantUsers: map[string]bool{"today": true},
		},
		{
			// rankNow is a Monday, so yesterday and last week fall outside.
			timeframe: leaderboard.TimeframeWeekly,
			wantUsers: map[string]bool{"today": true},
		},
		{
			timeframe: leaderboard.TimeframeMonthly,
			wantUsers: map[string]bool{"today": true, "yesterday": true, "lastweek": true},
		},
		{
			timeframe: leaderboard.TimeframeAllTime,
			wantUsers: map[string]bool{"today": true, "yesterday": true, "lastweek": true, "lastmonth": true},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.timeframe), func(t *testing.T) {
			q := globalQuery()
			q.Timeframe = tt.timeframe
			standings, err := r.Rank(events, q, rankNow)
			if err != nil {
				t.Fatalf("Rank returned unexpected error: %v", err)
			}
			got := make(map[string]bool)
			for _, e := range standings.Entries {
				got[e.UserID] = true
			}
			if diff := cmp.Diff(tt.wantUsers, got); diff != "" {
				t.Errorf("in-window users mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestScopedBoards verifies challenge and category boards only rank events
// tagged with the queried scope.
func TestScopedBoards(t *testing.T) {
	r := leaderboard.NewRanker()
	challengeEvent := event("u1", 80, rankNow.Add(-time.Hour))
	challengeEvent.Challenge = "summer-shred"
	otherChallenge := event("u2", 90, rankNow.Add(-time.Hour))
	otherChallenge.Challenge = "winter-bulk"
	events := []leaderboard.ScoreEvent{challengeEvent, otherChallenge, event("u3", 100, rankNow.Add(-time.Hour))}

	q := leaderboard.Query{
		Board:     leaderboard.BoardChallenge,
		Scope:     "summer-shred",
		ScoreType: leaderboard.ScorePoints,
		Timeframe: leaderboard.TimeframeAllTime,
	}
	standings, err := r.Rank(events, q, rankNow)
	if err != nil {
		t.Fatalf("Rank returned unexpected error: %v", err)
	}
	if len(standings.Entries) != 1 || standings.Entries[0].UserID != "u1" {
		t.Errorf("challenge board entries = %+v, want only u1", standings.Entries)
	}
}

func TestCurrentUserRank(t *testing.T) {
	r := leaderboard.NewRanker()
	events := []leaderboard.ScoreEvent{
		event("u1", 300, rankNow.Add(-time.Hour)),
		event("u2", 200, rankNow.Add(-time.Hour)),
		event("u3", 100, rankNow.Add(-time.Hour)),
	}

	t.Run("present", func(t *testing.T) {
		q := globalQuery()
		q.CurrentUserID = "u2"
		standings, err := r.Rank(events, q, rankNow)
		if err != nil {
			t.Fatalf("Rank returned unexpected error: %v", err)
		}
		if standings.CurrentUserRank == nil || *standings.CurrentUserRank != 2 {
			t.Errorf("CurrentUserRank = %v, want 2", standings.CurrentUserRank)
		}
		if !standings.Entries[1].IsCurrentUser {
			t.Error("expected entry for u2 to be flagged as current user")
		}
	})

	t.Run("absent", func(t *testing.T) {
		q := globalQuery()
		q.CurrentUserID = "u9"
		standings, err := r.Rank(events, q, rankNow)
		if err != nil {
			t.Fatalf("Rank returned unexpected error: %v", err)
		}
		if standings.CurrentUserRank != nil {
			t.Errorf("CurrentUserRank = %v, want nil for a user with no events", standings.CurrentUserRank)
		}
	})
}

func TestQueryValidation(t *testing.T) {
	r := leaderboard.NewRanker()

	tests := []struct {
		name string
		q    leaderboard.Query
	}{
		{name: "unknown score type", q: leaderboard.Query{Board: leaderboard.BoardGlobal, ScoreType: "steps", Timeframe: leaderboard.TimeframeAllTime}},
		{name: "unknown board", q: leaderboard.Query{Board: "regional", ScoreType: leaderboard.ScorePoints, Timeframe: leaderboard.TimeframeAllTime}},
		{name: "unknown timeframe", q: leaderboard.Query{Board: leaderboard.BoardGlobal, ScoreType: leaderboard.ScorePoints, Timeframe: "fortnightly"}},
		{name: "global with scope", q: leaderboard.Query{Board: leaderboard.BoardGlobal, Scope: "x", ScoreType: leaderboard.ScorePoints, Timeframe: leaderboard.TimeframeAllTime}},
		{name: "challenge without scope", q: leaderboard.Query{Board: leaderboard.BoardChallenge, ScoreType: leaderboard.ScorePoints, Timeframe: leaderboard.TimeframeAllTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Rank(nil, tt.q, rankNow); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

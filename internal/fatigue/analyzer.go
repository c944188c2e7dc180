// Package fatigue derives fatigue and recovery estimates from recent
// session load and turns them into rest-day recommendations.
package fatigue

import (
	"math"
	"sort"
	"time"

	"github.com/myrjola/fitsight/internal/fitness"
)

// Severity grades an indicator.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IndicatorType identifies what triggered an indicator.
type IndicatorType string

const (
	IndicatorAcuteOverload   IndicatorType = "acute_overload"
	IndicatorMuscleOveruse   IndicatorType = "muscle_overuse"
	IndicatorExcessiveVolume IndicatorType = "excessive_volume"
)

// Indicator flags a notable pattern found in the trailing window.
type Indicator struct {
	Type        IndicatorType
	Severity    Severity
	Description string
	// MuscleGroup is set for muscle overuse indicators.
	MuscleGroup string
}

// Assessment is the analyzer output. It has no lifecycle of its own and is
// recomputed on demand.
type Assessment struct {
	FatigueLevel  float64 // accumulated recent training stress in [0, 1]
	RecoveryScore float64 // readiness to train again in [0, 1]
	Indicators    []Indicator
	GeneratedAt   time.Time
}

// Config holds the analyzer constants. The numeric defaults are documented
// starting points, overridable through configuration.
type Config struct {
	// DecayTau controls how fast past session load loses influence.
	DecayTau time.Duration
	// AcuteWindow is the trailing span whose load defines the fatigue level.
	AcuteWindow time.Duration
	// BaselineWindow is the trailing span used for the user's own baseline.
	// Sessions inside the acute window are excluded from the baseline so
	// adding a recent session can only raise the fatigue level.
	BaselineWindow time.Duration
	// BaselineFloor is the minimum weekly baseline load. Without it a user
	// with no prior history would divide by near-zero.
	BaselineFloor float64
	// HighIntensityCutoff marks a session as high intensity.
	HighIntensityCutoff float64
	// RecoveryHorizon is the elapsed time after the last high-intensity
	// session at which the recovery score saturates at 1.
	RecoveryHorizon time.Duration
	// OveruseWindow and OveruseSessionCount flag repeated work on the same
	// primary muscle group.
	OveruseWindow       time.Duration
	OveruseSessionCount int
	// WeeklyDurationCeilingMinutes flags excessive total weekly volume.
	WeeklyDurationCeilingMinutes int
	// AcuteOverloadFactor is the baseline multiple that flags acute overload.
	AcuteOverloadFactor float64
}

// Analyzer constants.
const (
	defaultDecayTau             = 72 * time.Hour
	defaultAcuteWindow          = 7 * 24 * time.Hour
	defaultBaselineWindow       = 28 * 24 * time.Hour
	defaultBaselineFloor        = 30.0
	defaultHighIntensityCutoff  = 0.75
	defaultRecoveryHorizon      = 48 * time.Hour
	defaultOveruseWindow        = 72 * time.Hour
	defaultOveruseSessionCount  = 3
	defaultWeeklyCeilingMinutes = 420
	defaultAcuteOverloadFactor  = 1.5

	hoursPerDay           = 24
	excessiveVolumeMedium = 1.25 // ceiling multiple that upgrades severity
)

// DefaultConfig returns the documented default constants.
func DefaultConfig() Config {
	return Config{
		DecayTau:                     defaultDecayTau,
		AcuteWindow:                  defaultAcuteWindow,
		BaselineWindow:               defaultBaselineWindow,
		BaselineFloor:                defaultBaselineFloor,
		HighIntensityCutoff:          defaultHighIntensityCutoff,
		RecoveryHorizon:              defaultRecoveryHorizon,
		OveruseWindow:                defaultOveruseWindow,
		OveruseSessionCount:          defaultOveruseSessionCount,
		WeeklyDurationCeilingMinutes: defaultWeeklyCeilingMinutes,
		AcuteOverloadFactor:          defaultAcuteOverloadFactor,
	}
}

// Analyzer computes fatigue assessments. It is a pure function of its inputs
// and the explicit "now"; it holds no state beyond configuration.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze assesses fatigue and recovery from the trailing session window.
//
// It returns [fitness.ErrInsufficientData] when no sessions fall inside the
// acute window; that is an empty-state outcome, not a failure.
func (a *Analyzer) Analyze(sessions []fitness.WorkoutSession, now time.Time) (Assessment, error) {
	if err := fitness.ValidateSessions(sessions); err != nil {
		return Assessment{}, err
	}

	acute := a.sessionsWithin(sessions, now, a.cfg.AcuteWindow)
	if len(acute) == 0 {
		return Assessment{}, fitness.ErrInsufficientData
	}

	fatigueLevel := a.fatigueLevel(sessions, acute, now)
	recoveryScore := a.recoveryScore(sessions, now)
	indicators := a.indicators(sessions, acute, now)

	return Assessment{
		FatigueLevel:  fatigueLevel,
		RecoveryScore: recoveryScore,
		Indicators:    indicators,
		GeneratedAt:   now,
	}, nil
}

// sessionsWithin returns sessions no older than window, excluding future ones.
func (a *Analyzer) sessionsWithin(sessions []fitness.WorkoutSession, now time.Time, window time.Duration) []fitness.WorkoutSession {
	var within []fitness.WorkoutSession
	for _, s := range sessions {
		age := now.Sub(s.Date)
		if age < 0 || age > window {
			continue
		}
		within = append(within, s)
	}
	return within
}

// fatigueLevel normalizes the decayed acute load against the user's own
// trailing baseline, clipped to [0, 1].
func (a *Analyzer) fatigueLevel(all, acute []fitness.WorkoutSession, now time.Time) float64 {
	tauDays := a.cfg.DecayTau.Hours() / hoursPerDay

	var decayed float64
	for _, s := range acute {
		ageDays := now.Sub(s.Date).Hours() / hoursPerDay
		decayed += s.Load() * math.Exp(-ageDays/tauDays)
	}

	return clip01(decayed / a.weeklyBaseline(all, now))
}

// weeklyBaseline averages the raw load of sessions older than the acute
// window but inside the baseline window into a per-week figure, floored so
// sparse histories still produce a usable scale.
func (a *Analyzer) weeklyBaseline(sessions []fitness.WorkoutSession, now time.Time) float64 {
	var raw float64
	for _, s := range sessions {
		age := now.Sub(s.Date)
		if age <= a.cfg.AcuteWindow || age > a.cfg.BaselineWindow {
			continue
		}
		raw += s.Load()
	}

	weeks := (a.cfg.BaselineWindow - a.cfg.AcuteWindow).Hours() / (7 * hoursPerDay)
	if weeks <= 0 {
		return a.cfg.BaselineFloor
	}
	return math.Max(raw/weeks, a.cfg.BaselineFloor)
}

// recoveryScore ramps from 0 right after the last high-intensity session to 1
// once the recovery horizon has elapsed. Without any high-intensity exposure
// the user is considered fully recovered.
func (a *Analyzer) recoveryScore(sessions []fitness.WorkoutSession, now time.Time) float64 {
	var last time.Time
	for _, s := range sessions {
		if s.Date.After(now) {
			continue
		}
		if s.Intensity() >= a.cfg.HighIntensityCutoff && s.Date.After(last) {
			last = s.Date
		}
	}
	if last.IsZero() {
		return 1
	}
	return clip01(now.Sub(last).Hours() / a.cfg.RecoveryHorizon.Hours())
}

// indicators generates the overload, overuse and volume indicators.
func (a *Analyzer) indicators(all, acute []fitness.WorkoutSession, now time.Time) []Indicator {
	var indicators []Indicator

	var acuteRaw float64
	var acuteMinutes int
	for _, s := range acute {
		acuteRaw += s.Load()
		acuteMinutes += s.DurationMinutes
	}

	baseline := a.weeklyBaseline(all, now)
	if acuteRaw > a.cfg.AcuteOverloadFactor*baseline {
		indicators = append(indicators, Indicator{
			Type:        IndicatorAcuteOverload,
			Severity:    SeverityHigh,
			Description: "weekly training load well above your recent baseline",
		})
	}

	indicators = append(indicators, a.overuseIndicators(all, now)...)

	if ceiling := a.cfg.WeeklyDurationCeilingMinutes; ceiling > 0 && acuteMinutes > ceiling {
		severity := SeverityLow
		if float64(acuteMinutes) > excessiveVolumeMedium*float64(ceiling) {
			severity = SeverityMedium
		}
		indicators = append(indicators, Indicator{
			Type:        IndicatorExcessiveVolume,
			Severity:    severity,
			Description: "total weekly training time exceeds the configured ceiling",
		})
	}

	return indicators
}

// overuseIndicators flags primary muscle groups trained in three or more
// sessions within the overuse window, one indicator per group.
func (a *Analyzer) overuseIndicators(sessions []fitness.WorkoutSession, now time.Time) []Indicator {
	counts := make(map[string]int)
	for _, s := range a.sessionsWithin(sessions, now, a.cfg.OveruseWindow) {
		for _, group := range s.PrimaryMuscleGroups() {
			counts[group]++
		}
	}

	var groups []string
	for group, n := range counts {
		if n >= a.cfg.OveruseSessionCount {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)

	indicators := make([]Indicator, 0, len(groups))
	for _, group := range groups {
		indicators = append(indicators, Indicator{
			Type:        IndicatorMuscleOveruse,
			Severity:    SeverityMedium,
			Description: "repeated sessions targeting " + group + " without enough recovery",
			MuscleGroup: group,
		})
	}
	return indicators
}

func clip01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

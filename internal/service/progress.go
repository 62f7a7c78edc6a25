package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

// ProgressPercentage reports how far current frequency has moved from the
// baseline towards the target, clamped into [0,100]. When target and baseline
// are equal the goal counts as complete once current reaches the baseline.
func ProgressPercentage(baseline models.BaselineData, target models.TargetData, current models.CurrentProgress) float64 {
	span := target.Frequency - baseline.Frequency
	if span == 0 {
		if current.Frequency >= baseline.Frequency {
			return 100
		}
		return 0
	}
	return clampPercent((current.Frequency - baseline.Frequency) / span * 100)
}

func goalProgress(goal *models.TherapyGoal) float64 {
	return ProgressPercentage(goal.Baseline, goal.Target, goal.CurrentProgress)
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// meetsMastery checks the three thresholds against a merged snapshot. A
// missing accuracy or independence reading never qualifies.
func meetsMastery(criteria models.MasteryCriteria, target models.TargetData, current models.CurrentProgress) bool {
	if current.Accuracy == nil || current.Independence == nil {
		return false
	}
	return *current.Accuracy >= criteria.AccuracyThreshold &&
		*current.Independence >= criteria.IndependenceThreshold &&
		current.Frequency >= target.Frequency
}

func validateSnapshot(p models.ProgressSnapshot) error {
	if p.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "measurement must include at least one metric")
	}
	fields := []struct {
		name    string
		value   *float64
		percent bool
	}{
		{"frequency", p.Frequency, false},
		{"duration", p.Duration, false},
		{"accuracy", p.Accuracy, true},
		{"independence", p.Independence, true},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := *f.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a non-negative number", f.name))
		}
		if f.percent && v > 100 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must not exceed 100", f.name))
		}
	}
	return nil
}

func mergeSnapshot(current models.CurrentProgress, p models.ProgressSnapshot, stamp time.Time) models.CurrentProgress {
	if p.Frequency != nil {
		current.Frequency = *p.Frequency
	}
	if p.Duration != nil {
		current.Duration = copyFloat(p.Duration)
	}
	if p.Accuracy != nil {
		current.Accuracy = copyFloat(p.Accuracy)
	}
	if p.Independence != nil {
		current.Independence = copyFloat(p.Independence)
	}
	current.LastUpdated = stamp
	return current
}

// nextTimestamp keeps lastUpdated strictly increasing even when the clock
// stalls or steps backwards.
func nextTimestamp(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// sessionScore averages (accuracy + independence) / 2 over the measurements of
// a session that target goalID. Measurements without a goal apply to all.
func sessionScore(session models.TherapySession, goalID string) (float64, bool) {
	var sum float64
	var n int
	for _, m := range session.Measurements {
		if m.GoalID != nil && *m.GoalID != goalID {
			continue
		}
		sum += (m.Accuracy + m.Independence) / 2
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// classifyTrend compares the mean of the first half of the scores with the
// mean of the second half. With an odd count the middle point belongs to the
// second half.
func classifyTrend(scores []float64, minPoints int, delta float64) models.Trend {
	if minPoints < 2 {
		minPoints = 2
	}
	if len(scores) < minPoints {
		return models.TrendStable
	}
	half := len(scores) / 2
	diff := mean(scores[half:]) - mean(scores[:half])
	switch {
	case diff >= delta:
		return models.TrendImproving
	case diff <= -delta:
		return models.TrendDeclining
	}
	return models.TrendStable
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sessionsForGoal keeps the sessions inside [start, end] that addressed the
// goal, ordered oldest first.
func sessionsForGoal(sessions []models.TherapySession, goalID string, start, end time.Time) []models.TherapySession {
	var filtered []models.TherapySession
	for _, s := range sessions {
		if s.SessionDate.Before(start) || s.SessionDate.After(end) {
			continue
		}
		if !s.AddressesGoal(goalID) {
			continue
		}
		filtered = append(filtered, s)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SessionDate.Before(filtered[j].SessionDate)
	})
	return filtered
}

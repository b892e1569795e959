package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/engramlabs/engram-go/pkg/scoring"
)

func TestRecencyScore(t *testing.T) {
	scorer := scoring.NewScorer()
	now := time.Now()

	// A brand-new memory scores 1.0
	assert.InDelta(t, 1.0, scorer.RecencyScore(now, now), 1e-9)

	// At exactly one decay constant of age the score is 0.5
	createdAt := now.Add(-time.Duration(scoring.DefaultShortTermDecayHours) * time.Hour)
	assert.InDelta(t, 0.5, scorer.RecencyScore(createdAt, now), 1e-9)

	// The score decays toward zero but never reaches it
	ancient := now.Add(-10 * 365 * 24 * time.Hour)
	score := scorer.RecencyScore(ancient, now)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 0.05)
}

func TestRecencyMonotonicity(t *testing.T) {
	scorer := scoring.NewScorer()
	now := time.Now()

	// Smaller age scores strictly higher
	ages := []time.Duration{0, time.Hour, 6 * time.Hour, 24 * time.Hour, 168 * time.Hour}
	for i := 1; i < len(ages); i++ {
		newer := scorer.RecencyScore(now.Add(-ages[i-1]), now)
		older := scorer.RecencyScore(now.Add(-ages[i]), now)
		assert.Greater(t, newer, older,
			"age %v should score higher than age %v", ages[i-1], ages[i])
	}
}

func TestLongTermRecencyScore(t *testing.T) {
	scorer := scoring.NewScorer()
	now := time.Now()

	// Decays off the last access, in days
	assert.InDelta(t, 1.0, scorer.LongTermRecencyScore(now, now), 1e-9)

	lastAccessed := now.Add(-time.Duration(scoring.DefaultHalfLifeDays) * 24 * time.Hour)
	assert.InDelta(t, 0.5, scorer.LongTermRecencyScore(lastAccessed, now), 1e-9)

	// Day-scale idle barely moves the long-term score while the same
	// interval decimates the short-term score
	dayOld := now.Add(-24 * time.Hour)
	assert.Greater(t, scorer.LongTermRecencyScore(dayOld, now), scorer.RecencyScore(dayOld, now))
}

func TestFrequencyScore(t *testing.T) {
	scorer := scoring.NewScorer()

	assert.InDelta(t, 0.1, scorer.FrequencyScore(1), 1e-9)
	assert.InDelta(t, 0.5, scorer.FrequencyScore(5), 1e-9)
	assert.InDelta(t, 1.0, scorer.FrequencyScore(10), 1e-9)

	// Saturates: a very frequently touched memory cannot dominate
	assert.InDelta(t, 1.0, scorer.FrequencyScore(1000), 1e-9)

	// Monotone below saturation
	for count := 1; count < 10; count++ {
		assert.Greater(t, scorer.FrequencyScore(count+1), scorer.FrequencyScore(count))
	}
}

func TestCombinedScore(t *testing.T) {
	scorer := scoring.NewScorer()
	now := time.Now()

	// A fresh memory with access count 1: 0.7*1.0 + 0.3*0.1
	assert.InDelta(t, 0.73, scorer.Score(now, 1, now), 1e-9)

	// For identical age, higher access count scores higher
	createdAt := now.Add(-3 * time.Hour)
	assert.Greater(t, scorer.Score(createdAt, 5, now), scorer.Score(createdAt, 1, now))

	// For identical access count, smaller age scores higher
	assert.Greater(t, scorer.Score(now.Add(-time.Hour), 1, now), scorer.Score(createdAt, 1, now))
}

func TestCustomWeights(t *testing.T) {
	// Frequency-only scorer ignores age entirely
	scorer := scoring.NewScorerWithConfig(0.0, 1.0, 24, 30)
	now := time.Now()

	fresh := scorer.Score(now, 5, now)
	stale := scorer.Score(now.Add(-100*time.Hour), 5, now)
	assert.InDelta(t, fresh, stale, 1e-9)
	assert.InDelta(t, 0.5, fresh, 1e-9)
}

func TestConfigFallbacks(t *testing.T) {
	// Non-positive decay constants fall back to the defaults
	scorer := scoring.NewScorerWithConfig(0.7, 0.3, 0, -1)
	assert.InDelta(t, scoring.DefaultHalfLifeDays, scorer.HalfLifeDays(), 1e-9)

	now := time.Now()
	createdAt := now.Add(-time.Duration(scoring.DefaultShortTermDecayHours) * time.Hour)
	assert.InDelta(t, 0.5, scorer.RecencyScore(createdAt, now), 1e-9)
}

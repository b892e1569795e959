// Package scoring provides the relevance scoring used to rank memories.
//
// Relevance combines a time-decayed recency signal with a saturating access
// frequency signal. The same shape of decay is applied to both storage tiers:
// the short-term tier decays in hours off the creation time, the long-term
// tier decays in days off the last access time.
package scoring

import "time"

// Default scoring policy. These are policy values, not mechanism; callers
// override them through the constructor.
const (
	// DefaultShortTermDecayHours is the characteristic decay time for
	// short-term recency, in hours.
	DefaultShortTermDecayHours = 24.0

	// DefaultHalfLifeDays is the characteristic decay time for long-term
	// recency, in days, measured from the last access.
	DefaultHalfLifeDays = 30.0

	// DefaultRecencyWeight is the weight of the recency component.
	DefaultRecencyWeight = 0.7

	// DefaultFrequencyWeight is the weight of the frequency component.
	DefaultFrequencyWeight = 0.3

	// frequencySaturation is the access count at which the frequency
	// signal saturates at 1.0.
	frequencySaturation = 10.0
)

// Scorer computes relevance scores from recency and frequency signals.
//
// A Scorer is immutable after construction and safe for concurrent use.
//
// Example usage:
//
//	scorer := scoring.NewScorer()
//	score := scorer.Score(memory.CreatedAt, memory.AccessCount, time.Now())
type Scorer struct {
	// recencyWeight is the weight of the recency component.
	recencyWeight float64

	// frequencyWeight is the weight of the frequency component.
	frequencyWeight float64

	// shortTermDecayHours is the short-term decay constant, in hours.
	shortTermDecayHours float64

	// halfLifeDays is the long-term decay constant, in days.
	halfLifeDays float64
}

// NewScorer creates a Scorer with the default policy:
// weights 0.7/0.3, 24 hour short-term decay, 30 day half-life.
func NewScorer() *Scorer {
	return NewScorerWithConfig(
		DefaultRecencyWeight,
		DefaultFrequencyWeight,
		DefaultShortTermDecayHours,
		DefaultHalfLifeDays,
	)
}

// NewScorerWithConfig creates a Scorer with custom policy values.
//
// Parameters:
//   - recencyWeight: Weight of the recency component
//   - frequencyWeight: Weight of the frequency component (the two weights
//     are expected to sum to 1.0)
//   - shortTermDecayHours: Short-term decay constant in hours
//   - halfLifeDays: Long-term decay constant in days
//
// Non-positive decay constants fall back to the defaults.
func NewScorerWithConfig(recencyWeight, frequencyWeight, shortTermDecayHours, halfLifeDays float64) *Scorer {
	if shortTermDecayHours <= 0 {
		shortTermDecayHours = DefaultShortTermDecayHours
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	return &Scorer{
		recencyWeight:       recencyWeight,
		frequencyWeight:     frequencyWeight,
		shortTermDecayHours: shortTermDecayHours,
		halfLifeDays:        halfLifeDays,
	}
}

// RecencyScore computes the short-term recency component.
//
// The formula is: 1 / (1 + age_hours / shortTermDecayHours)
// yielding 1.0 for a brand-new memory and asymptotically approaching 0 as
// the memory ages. Age is measured from the creation time.
func (s *Scorer) RecencyScore(createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return 1.0 / (1.0 + ageHours/s.shortTermDecayHours)
}

// LongTermRecencyScore computes the long-term recency component.
//
// It has the same shape as RecencyScore but decays in days against the last
// access time, reflecting that long-term relevance decays off the last use,
// not the original write.
func (s *Scorer) LongTermRecencyScore(lastAccessed, now time.Time) float64 {
	idleDays := now.Sub(lastAccessed).Hours() / 24.0
	if idleDays < 0 {
		idleDays = 0
	}
	return 1.0 / (1.0 + idleDays/s.halfLifeDays)
}

// FrequencyScore computes the saturating frequency component.
//
// The formula is: min(accessCount / 10, 1.0), so a single very frequently
// touched memory cannot dominate indefinitely.
func (s *Scorer) FrequencyScore(accessCount int) float64 {
	score := float64(accessCount) / frequencySaturation
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Score computes the combined short-term relevance score:
//
//	recencyWeight * RecencyScore + frequencyWeight * FrequencyScore
//
// Higher scores indicate more relevant memories.
func (s *Scorer) Score(createdAt time.Time, accessCount int, now time.Time) float64 {
	return s.recencyWeight*s.RecencyScore(createdAt, now) +
		s.frequencyWeight*s.FrequencyScore(accessCount)
}

// RecencyWeight returns the configured recency weight.
func (s *Scorer) RecencyWeight() float64 { return s.recencyWeight }

// FrequencyWeight returns the configured frequency weight.
func (s *Scorer) FrequencyWeight() float64 { return s.frequencyWeight }

// HalfLifeDays returns the configured long-term decay constant in days.
func (s *Scorer) HalfLifeDays() float64 { return s.halfLifeDays }

package model

import "time"

// BehaviorPattern 用户行为画像，懒创建，按 userId 持有
// Not persisted; the store behind it is pluggable (see service.BehaviorStore).
type BehaviorPattern struct {
	UserID                 uint                `json:"userId"`
	CompletionRate         float64             `json:"completionRate"`
	AverageTimePerPhase    map[Phase]float64   `json:"averageTimePerPhase"` // minutes
	CommonStuckPoints      []string            `json:"commonStuckPoints"`
	PreferredResourceTypes []ResourceType      `json:"preferredResourceTypes"`
	LastActiveDate         time.Time           `json:"lastActiveDate"`

	phaseSamples map[Phase]int
}

func NewBehaviorPattern(userID uint, now time.Time) *BehaviorPattern {
	return &BehaviorPattern{
		UserID:              userID,
		AverageTimePerPhase: make(map[Phase]float64),
		LastActiveDate:      now,
		phaseSamples:        make(map[Phase]int),
	}
}

// RecordStuckPoint remembers a step the user stalled on, once.
func (b *BehaviorPattern) RecordStuckPoint(stepID string) {
	for _, s := range b.CommonStuckPoints {
		if s == stepID {
			return
		}
	}
	b.CommonStuckPoints = append(b.CommonStuckPoints, stepID)
}

// IsStuckPoint reports whether stepID was previously recorded.
func (b *BehaviorPattern) IsStuckPoint(stepID string) bool {
	for _, s := range b.CommonStuckPoints {
		if s == stepID {
			return true
		}
	}
	return false
}

// AccumulatePhaseTime folds a new time sample (minutes) into the running
// average for the phase.
func (b *BehaviorPattern) AccumulatePhaseTime(phase Phase, minutes float64) {
	if b.AverageTimePerPhase == nil {
		b.AverageTimePerPhase = make(map[Phase]float64)
	}
	if b.phaseSamples == nil {
		b.phaseSamples = make(map[Phase]int)
	}
	n := b.phaseSamples[phase]
	b.AverageTimePerPhase[phase] = (b.AverageTimePerPhase[phase]*float64(n) + minutes) / float64(n+1)
	b.phaseSamples[phase] = n + 1
}

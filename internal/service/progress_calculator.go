package service

import (
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"
)

// ProgressCalculator 纯函数进度计算器
// Derives completion metrics, next-step pointers, stuck areas and momentum
// from a progress snapshot. Holds no state beyond its thresholds.
type ProgressCalculator struct {
	StuckDelta           int
	HighMomentumWindow   time.Duration
	MediumMomentumWindow time.Duration
}

func NewProgressCalculator(cfg config.EngineConfig) *ProgressCalculator {
	return &ProgressCalculator{
		StuckDelta:           cfg.StuckDelta,
		HighMomentumWindow:   time.Duration(cfg.HighMomentumHours) * time.Hour,
		MediumMomentumWindow: time.Duration(cfg.MediumMomentumDays) * 24 * time.Hour,
	}
}

// Calculate derives the full metric set from a snapshot. Overall completion
// is the arithmetic mean of the eight phase percentages, not step-weighted.
func (c *ProgressCalculator) Calculate(p *model.UserProgress) *model.ProgressCalculation {
	calc := &model.ProgressCalculation{
		PhaseCompletion: make(map[model.Phase]int, len(model.Phases)),
	}
	if p == nil {
		for _, ph := range model.Phases {
			calc.PhaseCompletion[ph] = 0
		}
		return calc
	}

	sum := 0
	for _, ph := range model.Phases {
		pct := 0
		if pp := p.Phases[ph]; pp != nil {
			pct = pp.CompletionPercentage
			calc.TotalSteps += len(pp.Steps)
			for _, s := range pp.Steps {
				if s.Status.Terminal() {
					calc.CompletedSteps++
				}
			}
		}
		calc.PhaseCompletion[ph] = pct
		sum += pct
	}
	calc.OverallCompletion = float64(sum) / float64(len(model.Phases))

	calc.NextStep, calc.NextPhase = c.nextIncomplete(p)
	return calc
}

// nextIncomplete finds the first step, in canonical phase order then step
// order, that is not yet terminal. Both results are nil when every step is
// terminal or no steps exist.
func (c *ProgressCalculator) nextIncomplete(p *model.UserProgress) (*model.StepRef, *model.Phase) {
	for _, ph := range model.Phases {
		pp := p.Phases[ph]
		if pp == nil {
			continue
		}
		for _, s := range pp.Steps {
			if s.Status == model.StepNotStarted || s.Status == model.StepInProgress {
				phase := ph
				return &model.StepRef{Phase: ph, StepID: s.StepID}, &phase
			}
		}
	}
	return nil, nil
}

// FindStuckAreas flags started phases whose completion trails the reference
// completion by at least StuckDelta percentage points. The reference is the
// higher of the given overall completion and the mean across started phases:
// untouched phases dilute the eight-phase mean, which would otherwise hide a
// lagging phase next to a nearly finished sibling.
func (c *ProgressCalculator) FindStuckAreas(phaseCompletion map[model.Phase]int, overall float64) []model.Phase {
	startedSum, startedCount := 0, 0
	for _, pct := range phaseCompletion {
		if pct > 0 {
			startedSum += pct
			startedCount++
		}
	}
	reference := overall
	if startedCount > 0 {
		if startedMean := float64(startedSum) / float64(startedCount); startedMean > reference {
			reference = startedMean
		}
	}

	var stuck []model.Phase
	for _, ph := range model.Phases {
		pct, ok := phaseCompletion[ph]
		if !ok || pct == 0 {
			// 未开始的阶段不算卡住
			continue
		}
		if reference-float64(pct) >= float64(c.StuckDelta) {
			stuck = append(stuck, ph)
		}
	}
	return stuck
}

// Momentum classifies recency of activity.
func (c *ProgressCalculator) Momentum(updatedAt, now time.Time) model.Momentum {
	age := now.Sub(updatedAt)
	switch {
	case age <= c.HighMomentumWindow:
		return model.MomentumHigh
	case age <= c.MediumMomentumWindow:
		return model.MomentumMedium
	default:
		return model.MomentumLow
	}
}

// CompletedPhases lists phases with at least one step that reached 100%.
func (c *ProgressCalculator) CompletedPhases(p *model.UserProgress) []model.Phase {
	var done []model.Phase
	if p == nil {
		return done
	}
	for _, ph := range model.Phases {
		if pp := p.Phases[ph]; pp != nil && len(pp.Steps) > 0 && pp.CompletionPercentage == 100 {
			done = append(done, ph)
		}
	}
	return done
}

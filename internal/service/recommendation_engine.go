package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"
)

// riskLevelTable 概率×影响 → 等级 的直接查表，不按分数阈值推导
var riskLevelTable = map[model.RiskLevel]map[model.RiskLevel]model.RiskLevel{
	model.RiskLow: {
		model.RiskLow:    model.RiskLow,
		model.RiskMedium: model.RiskLow,
		model.RiskHigh:   model.RiskMedium,
	},
	model.RiskMedium: {
		model.RiskLow:    model.RiskLow,
		model.RiskMedium: model.RiskMedium,
		model.RiskHigh:   model.RiskHigh,
	},
	model.RiskHigh: {
		model.RiskLow:    model.RiskMedium,
		model.RiskMedium: model.RiskHigh,
		model.RiskHigh:   model.RiskCritical,
	},
}

// industryCriticalPhases 行业关键阶段
var industryCriticalPhases = map[string]model.Phase{
	"saas":        model.PhaseTechnical,
	"ecommerce":   model.PhaseOperations,
	"fintech":     model.PhaseRisk,
	"marketplace": model.PhaseMarketing,
}

// RecommendationEngine 规则驱动的推荐与风险引擎
// Every public entry point is a total function: malformed, nil or empty
// input yields an empty result, never a panic or an error. UI code renders
// whatever comes back, so this contract is load-bearing.
type RecommendationEngine struct {
	cfg      config.EngineConfig
	calc     *ProgressCalculator
	behavior BehaviorStore
	catalog  []model.Resource

	nowFn func() time.Time
}

func NewRecommendationEngine(cfg config.EngineConfig, calc *ProgressCalculator, behavior BehaviorStore, catalog []model.Resource) *RecommendationEngine {
	return &RecommendationEngine{
		cfg:      cfg,
		calc:     calc,
		behavior: behavior,
		catalog:  catalog,
		nowFn:    time.Now,
	}
}

// nextStepRule contributes zero or one recommendation; all matching rules
// emit, then the aggregate is sorted by priority.
type nextStepRule func(progress *model.UserProgress, project *model.Project, calc *model.ProgressCalculation) *model.Recommendation

// CalculateNextSteps evaluates the ordered rule list and returns the full
// match set sorted high > medium > low.
func (e *RecommendationEngine) CalculateNextSteps(progress *model.UserProgress, project *model.Project) []model.Recommendation {
	if progress == nil {
		return []model.Recommendation{}
	}
	progress.Normalize()
	calc := e.calc.Calculate(progress)

	rules := []nextStepRule{
		e.currentPhaseStepRule,
		e.phaseProgressionRule,
		e.criticalPathRule,
		e.milestoneRule,
	}

	recs := []model.Recommendation{}
	for _, rule := range rules {
		if rec := rule(progress, project, calc); rec != nil {
			recs = append(recs, *rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})
	return recs
}

// currentPhaseStepRule points at the first incomplete step of the current
// phase, or at starting the phase when it has no steps yet.
func (e *RecommendationEngine) currentPhaseStepRule(progress *model.UserProgress, _ *model.Project, _ *model.ProgressCalculation) *model.Recommendation {
	pp := progress.Phases[progress.CurrentPhase]
	if pp == nil {
		return nil
	}

	if len(pp.Steps) == 0 {
		return &model.Recommendation{
			ID:          fmt.Sprintf("start-%s", progress.CurrentPhase),
			Title:       fmt.Sprintf("Start the %s Phase", progress.CurrentPhase.Label()),
			Description: fmt.Sprintf("Begin working through the %s phase of your launch plan", progress.CurrentPhase),
			Priority:    model.PriorityHigh,
			Phase:       progress.CurrentPhase,
			Category:    "progress",
			ActionItems: []string{
				"Review the phase checklist",
				"Pick the first step and mark it in progress",
				"Set a target date for finishing the phase",
			},
			Type: model.RecommendationNextStep,
		}
	}

	for _, s := range pp.Steps {
		if s.Status.Terminal() {
			continue
		}
		return &model.Recommendation{
			ID:          fmt.Sprintf("step-%s", s.StepID),
			Title:       fmt.Sprintf("Complete: %s", stepTitle(s.StepID)),
			Description: fmt.Sprintf("Finish the %s step to keep the %s phase moving", stepTitle(s.StepID), progress.CurrentPhase),
			Priority:    model.PriorityHigh,
			Phase:       progress.CurrentPhase,
			Category:    "progress",
			ActionItems: []string{
				fmt.Sprintf("Open the %s step", stepTitle(s.StepID)),
				"Capture findings in the step notes",
				"Mark the step completed or skipped",
			},
			Type: model.RecommendationNextStep,
		}
	}
	return nil
}

// phaseProgressionRule fires when the current phase is fully complete.
func (e *RecommendationEngine) phaseProgressionRule(progress *model.UserProgress, _ *model.Project, calc *model.ProgressCalculation) *model.Recommendation {
	if calc.PhaseCompletion[progress.CurrentPhase] < 100 {
		return nil
	}
	pp := progress.Phases[progress.CurrentPhase]
	if pp == nil || len(pp.Steps) == 0 {
		return nil
	}
	next := progress.CurrentPhase.Next()
	if next == nil {
		return nil
	}
	return &model.Recommendation{
		ID:          fmt.Sprintf("phase-progression-%s", *next),
		Title:       fmt.Sprintf("Move on to the %s Phase", next.Label()),
		Description: fmt.Sprintf("The %s phase is complete; the %s phase is next in the plan", progress.CurrentPhase, *next),
		Priority:    model.PriorityHigh,
		Phase:       *next,
		Category:    "progress",
		ActionItems: []string{
			fmt.Sprintf("Switch your current phase to %s", *next),
			"Review what the phase covers before starting",
		},
		Type: model.RecommendationNextStep,
	}
}

// criticalPathRule flags an industry-critical phase that is lagging.
func (e *RecommendationEngine) criticalPathRule(progress *model.UserProgress, project *model.Project, calc *model.ProgressCalculation) *model.Recommendation {
	if project == nil {
		return nil
	}
	critical, ok := industryCriticalPhases[strings.ToLower(project.Industry)]
	if !ok {
		return nil
	}
	if calc.PhaseCompletion[critical] >= e.cfg.CriticalPhaseCompletion {
		return nil
	}
	return &model.Recommendation{
		ID:          fmt.Sprintf("critical-path-%s", critical),
		Title:       fmt.Sprintf("Prioritize the %s Phase", critical.Label()),
		Description: fmt.Sprintf("For %s businesses the %s phase is on the critical path and it is lagging", project.Industry, critical),
		Priority:    model.PriorityHigh,
		Phase:       critical,
		Category:    "critical-path",
		ActionItems: []string{
			fmt.Sprintf("Schedule dedicated time for %s work", critical),
			"Identify blockers that kept this phase idle",
		},
		Type: model.RecommendationOptimization,
	}
}

// milestoneRule marks the 25/50/75/100 overall-completion bands.
func (e *RecommendationEngine) milestoneRule(progress *model.UserProgress, _ *model.Project, calc *model.ProgressCalculation) *model.Recommendation {
	overall := calc.OverallCompletion
	var id, title, description string
	switch {
	case overall >= 100:
		id, title = "milestone-launch-ready", "Launch Ready"
		description = "Every phase is complete - time to launch"
	case overall >= 75:
		id, title = "milestone-final-stretch", "Final Stretch"
		description = "You are past three quarters of the plan"
	case overall >= 50:
		id, title = "milestone-halfway", "Halfway There"
		description = "Half of the launch plan is behind you"
	case overall >= 25:
		id, title = "milestone-quarter", "Quarter Milestone"
		description = "The first quarter of the plan is done"
	default:
		return nil
	}
	return &model.Recommendation{
		ID:          id,
		Title:       title,
		Description: description,
		Priority:    model.PriorityMedium,
		Phase:       progress.CurrentPhase,
		Category:    "milestone",
		ActionItems: []string{"Review remaining phases", "Update your launch timeline"},
		Type:        model.RecommendationOptimization,
	}
}

// riskRule contributes zero or one risk, independently of the others.
type riskRule func(project *model.Project, progress *model.UserProgress, calc *model.ProgressCalculation) *model.Risk

// IdentifyRisks evaluates the independent risk rules and returns the
// matches sorted by priority descending.
func (e *RecommendationEngine) IdentifyRisks(project *model.Project, progress *model.UserProgress) []model.Risk {
	if progress == nil {
		return []model.Risk{}
	}
	progress.Normalize()
	calc := e.calc.Calculate(progress)

	rules := []riskRule{
		e.validationRiskRule,
		e.technicalLagRiskRule,
		e.financialLagRiskRule,
		e.inactivityRiskRule,
	}

	risks := []model.Risk{}
	for _, rule := range rules {
		if r := rule(project, progress, calc); r != nil {
			risks = append(risks, *r)
		}
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Priority > risks[j].Priority
	})
	return risks
}

func (e *RecommendationEngine) validationRiskRule(_ *model.Project, progress *model.UserProgress, calc *model.ProgressCalculation) *model.Risk {
	if calc.PhaseCompletion[model.PhaseValidation] >= e.cfg.LowCompletion {
		return nil
	}
	if progress.CurrentPhase.Index() <= model.PhaseValidation.Index() {
		return nil
	}
	return e.buildRisk(
		"risk-validation-gap",
		"Insufficient Market Validation",
		"Work has advanced past validation while the validation phase itself is mostly incomplete; later phases may be built on untested assumptions",
		model.RiskCategoryMarket,
		model.RiskHigh, model.RiskHigh,
		"Pause feature work and run customer interviews until the validation phase is substantially complete",
	)
}

func (e *RecommendationEngine) technicalLagRiskRule(_ *model.Project, _ *model.UserProgress, calc *model.ProgressCalculation) *model.Risk {
	if calc.PhaseCompletion[model.PhaseTechnical] >= e.cfg.TechnicalLagPhase {
		return nil
	}
	if calc.OverallCompletion <= float64(e.cfg.TechnicalLagOverall) {
		return nil
	}
	return e.buildRisk(
		"risk-technical-lag",
		"Technical Readiness Lagging",
		"Overall progress is well ahead of the technical phase; the build may become the launch bottleneck",
		model.RiskCategoryTechnical,
		model.RiskMedium, model.RiskHigh,
		"Front-load the remaining technical steps and cut scope where possible",
	)
}

func (e *RecommendationEngine) financialLagRiskRule(_ *model.Project, _ *model.UserProgress, calc *model.ProgressCalculation) *model.Risk {
	if calc.PhaseCompletion[model.PhaseFinancial] >= e.cfg.FinancialLagPhase {
		return nil
	}
	if calc.OverallCompletion <= float64(e.cfg.FinancialLagOverall) {
		return nil
	}
	return e.buildRisk(
		"risk-financial-lag",
		"Financial Planning Behind",
		"The financial phase trails the rest of the plan; runway and pricing may be unexamined",
		model.RiskCategoryFinancial,
		model.RiskMedium, model.RiskMedium,
		"Build at least a basic financial model before committing further spend",
	)
}

func (e *RecommendationEngine) inactivityRiskRule(_ *model.Project, progress *model.UserProgress, _ *model.ProgressCalculation) *model.Risk {
	inactiveFor := e.nowFn().Sub(progress.UpdatedAt)
	if inactiveFor <= time.Duration(e.cfg.InactivityDays)*24*time.Hour {
		return nil
	}
	return e.buildRisk(
		"risk-inactivity",
		"Project Inactivity",
		fmt.Sprintf("No progress updates for over %d days; momentum and market timing are at risk", e.cfg.InactivityDays),
		model.RiskCategoryTimeline,
		model.RiskMedium, model.RiskMedium,
		"Schedule a short working session and complete one small step to restart momentum",
	)
}

func (e *RecommendationEngine) buildRisk(id, title, description string, category model.RiskCategory, probability, impact model.RiskLevel, mitigation string) *model.Risk {
	score := e.CalculateRiskScore(probability, impact)
	return &model.Risk{
		ID:          id,
		Title:       title,
		Description: description,
		Category:    category,
		Probability: probability,
		Impact:      impact,
		Priority:    priorityFromLevel(score.Level),
		Mitigation:  mitigation,
		Status:      "open",
	}
}

// priorityFromLevel collapses the four severity levels into the 1-3
// priority scale carried on the risk itself.
func priorityFromLevel(level model.RiskLevel) int {
	switch level {
	case model.RiskCritical, model.RiskHigh:
		return 3
	case model.RiskMedium:
		return 2
	default:
		return 1
	}
}

// CalculateRiskScore maps qualitative probability and impact to the numeric
// score and the combined severity level. The level is a direct table lookup,
// not a score threshold.
func (e *RecommendationEngine) CalculateRiskScore(probability, impact model.RiskLevel) model.RiskScore {
	p := probability.Numeric()
	i := impact.Numeric()
	score := model.RiskScore{Probability: p, Impact: i, Score: p * i, Level: model.RiskLow}
	if p == 0 || i == 0 {
		return score
	}
	score.Level = riskLevelTable[probability][impact]
	return score
}

// CalculateOverallRiskLevel classifies a risk list by counting high and
// critical entries: none is low, one or two is medium, three or more high.
func (e *RecommendationEngine) CalculateOverallRiskLevel(risks []model.Risk) model.RiskLevel {
	severe := 0
	for _, r := range risks {
		level := e.CalculateRiskScore(r.Probability, r.Impact).Level
		if level == model.RiskHigh || level == model.RiskCritical {
			severe++
		}
	}
	switch {
	case severe == 0:
		return model.RiskLow
	case severe <= 2:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// PrioritizeRisks stable-sorts by computed score descending, ties broken by
// the risk's own priority field.
func (e *RecommendationEngine) PrioritizeRisks(risks []model.Risk) []model.Risk {
	sorted := make([]model.Risk, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		si := e.CalculateRiskScore(sorted[i].Probability, sorted[i].Impact).Score
		sj := e.CalculateRiskScore(sorted[j].Probability, sorted[j].Impact).Score
		if si != sj {
			return si > sj
		}
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

// SuggestResources filters the catalog by tag intersection with the project
// and progress context. Unknown industries or stages still match the
// general tier, so a non-degenerate catalog never filters to nothing.
func (e *RecommendationEngine) SuggestResources(project *model.Project, progress *model.UserProgress, limit int) []model.Resource {
	if project == nil && progress == nil {
		return []model.Resource{}
	}

	tags := []string{"general"}
	if project != nil {
		if project.Industry != "" {
			tags = append(tags, strings.ToLower(project.Industry))
		}
		if project.Stage != "" {
			tags = append(tags, strings.ToLower(project.Stage))
		}
		if budget := project.Budget(); budget > 0 && budget < e.cfg.LowBudgetThreshold {
			tags = append(tags, "low-budget")
		}
		if project.TeamSize() == 1 {
			tags = append(tags, "solo")
		}
	}
	if progress != nil && progress.CurrentPhase.Valid() {
		tags = append(tags, string(progress.CurrentPhase))
	}

	seen := make(map[string]bool)
	matched := []model.Resource{}
	for _, res := range e.catalog {
		if seen[res.ID] {
			continue
		}
		for _, tag := range tags {
			if res.HasTag(tag) {
				seen[res.ID] = true
				matched = append(matched, res)
				break
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RelevanceScore > matched[j].RelevanceScore
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// GeneratePersonalizedRecommendations reads (or lazily creates) the user's
// behavior pattern and emits pattern-driven recommendations.
func (e *RecommendationEngine) GeneratePersonalizedRecommendations(userID uint, progress *model.UserProgress, project *model.Project) []model.Recommendation {
	if progress == nil {
		return []model.Recommendation{}
	}
	progress.Normalize()

	recs := []model.Recommendation{}
	pattern := e.behavior.Get(userID)
	if pattern == nil {
		e.behavior.GetOrCreate(userID, e.nowFn())
		recs = append(recs, model.Recommendation{
			ID:          "welcome-first-time",
			Title:       "Welcome to Your Launch Plan",
			Description: "Work through the phases in order, starting with validation; each completed step sharpens the recommendations here",
			Priority:    model.PriorityMedium,
			Phase:       progress.CurrentPhase,
			Category:    "onboarding",
			ActionItems: []string{"Open the validation phase", "Complete your first step"},
			Type:        model.RecommendationPersonalized,
		})
		return recs
	}

	if pattern.CompletionRate < e.cfg.LowCompletionRate {
		recs = append(recs, model.Recommendation{
			ID:          "completion-boost",
			Title:       "Build Momentum with Small Steps",
			Description: "Your completion rate is low; finishing or explicitly skipping a few small steps makes the plan easier to act on",
			Priority:    model.PriorityMedium,
			Phase:       progress.CurrentPhase,
			Category:    "habit",
			ActionItems: []string{"Pick the smallest open step", "Finish or skip it today"},
			Type:        model.RecommendationPersonalized,
		})
	}

	if step := currentInProgressStep(progress); step != nil && pattern.IsStuckPoint(step.StepID) {
		recs = append(recs, model.Recommendation{
			ID:          fmt.Sprintf("stuck-help-%s", step.StepID),
			Title:       fmt.Sprintf("Unstick: %s", stepTitle(step.StepID)),
			Description: "You have stalled on this step before; a different approach or outside input may help",
			Priority:    model.PriorityHigh,
			Phase:       progress.CurrentPhase,
			Category:    "habit",
			ActionItems: []string{"Break the step into smaller pieces", "Ask a mentor or community for input", "Timebox one focused session"},
			Type:        model.RecommendationPersonalized,
		})
	}

	return recs
}

// UpdateUserBehaviorPattern folds a fresh observation into the user's
// pattern: completion rate from the snapshot, stuck-point detection for the
// given step, and per-phase time accumulation when a duration is supplied.
func (e *RecommendationEngine) UpdateUserBehaviorPattern(userID uint, progress *model.UserProgress, stepID string, timeSpent time.Duration) {
	if progress == nil {
		return
	}
	progress.Normalize()
	now := e.nowFn()

	pattern := e.behavior.GetOrCreate(userID, now)
	calc := e.calc.Calculate(progress)
	if calc.TotalSteps > 0 {
		pattern.CompletionRate = float64(calc.CompletedSteps) / float64(calc.TotalSteps)
	} else {
		pattern.CompletionRate = 0
	}

	if stepID != "" {
		if phase, step := findStep(progress, stepID); step != nil {
			stuckWindow := time.Duration(e.cfg.StuckStepHours) * time.Hour
			if step.Status == model.StepInProgress &&
				(timeSpent >= stuckWindow || now.Sub(progress.UpdatedAt) >= stuckWindow) {
				pattern.RecordStuckPoint(stepID)
			}
			if timeSpent > 0 {
				pattern.AccumulatePhaseTime(phase, timeSpent.Minutes())
			}
		}
	} else if timeSpent > 0 {
		pattern.AccumulatePhaseTime(progress.CurrentPhase, timeSpent.Minutes())
	}

	pattern.LastActiveDate = now
	e.behavior.Put(pattern)
}

// phase+industry keyed template names; the inner "" key is the industry
// fallback.
var templateCatalog = map[model.Phase]map[string][]string{
	model.PhaseValidation: {
		"":          {"Customer Interview Script", "Problem Hypothesis Canvas"},
		"saas":      {"SaaS Demand Test Landing Page", "Pricing Sensitivity Survey"},
		"ecommerce": {"Product-Market Survey", "Pre-order Landing Page"},
	},
	model.PhaseDefinition: {
		"":     {"Product Requirements Document", "Positioning Statement"},
		"saas": {"Feature Prioritization Matrix"},
	},
	model.PhaseTechnical: {
		"":        {"Architecture Decision Record", "MVP Scope Cut List"},
		"fintech": {"Security & Compliance Checklist"},
	},
	model.PhaseMarketing: {
		"": {"Go-to-Market One-Pager", "Launch Announcement Draft"},
	},
	model.PhaseOperations: {
		"":          {"Standard Operating Procedure Template"},
		"ecommerce": {"Fulfillment Runbook"},
	},
	model.PhaseFinancial: {
		"": {"Financial Projection Model", "Pricing Worksheet"},
	},
	model.PhaseRisk: {
		"":        {"Risk Register", "Mitigation Plan Template"},
		"fintech": {"Regulatory Mapping Worksheet"},
	},
	model.PhaseOptimization: {
		"": {"Experiment Backlog", "Metrics Review Template"},
	},
}

// contentIdeaKeys are the structured userInput fields echoed as ideas.
var contentIdeaKeys = []string{"targetAudience", "problemStatement", "valueProposition", "competitors", "channels"}

// SuggestContent produces template names, framework adjustments and content
// ideas for the given context. Nil context yields an empty result.
func (e *RecommendationEngine) SuggestContent(sctx *model.SuggestionContext) *model.ContentSuggestions {
	out := &model.ContentSuggestions{
		TemplateSuggestions:  []string{},
		FrameworkAdjustments: []string{},
		ContentIdeas:         []string{},
	}
	if sctx == nil {
		return out
	}

	if byIndustry, ok := templateCatalog[sctx.Phase]; ok {
		out.TemplateSuggestions = append(out.TemplateSuggestions, byIndustry[""]...)
		if industry := strings.ToLower(sctx.Industry); industry != "" {
			out.TemplateSuggestions = append(out.TemplateSuggestions, byIndustry[industry]...)
		}
	}

	if sctx.Budget > 0 && sctx.Budget < e.cfg.LowBudgetThreshold {
		out.FrameworkAdjustments = append(out.FrameworkAdjustments,
			"Focus on lean validation methods and low-cost experiments")
	}
	if sctx.TeamSize == 1 {
		out.FrameworkAdjustments = append(out.FrameworkAdjustments,
			"Prefer no-code and off-the-shelf tooling to keep the solo workload manageable")
	}
	if strings.EqualFold(sctx.Stage, "growth") {
		out.FrameworkAdjustments = append(out.FrameworkAdjustments,
			"Shift emphasis from discovery to repeatable acquisition and retention loops")
	}

	for _, key := range contentIdeaKeys {
		v, ok := sctx.UserInput[key]
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		out.ContentIdeas = append(out.ContentIdeas,
			fmt.Sprintf("Expand on your %s: turn what you captured into a shareable positioning asset", key))
	}

	return out
}

// stepTitle derives a display title from a step id, e.g.
// "market-research" -> "Market Research".
func stepTitle(stepID string) string {
	parts := strings.FieldsFunc(stepID, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func currentInProgressStep(progress *model.UserProgress) *model.StepProgress {
	pp := progress.Phases[progress.CurrentPhase]
	if pp == nil {
		return nil
	}
	for i := range pp.Steps {
		if pp.Steps[i].Status == model.StepInProgress {
			return &pp.Steps[i]
		}
	}
	return nil
}

func findStep(progress *model.UserProgress, stepID string) (model.Phase, *model.StepProgress) {
	for _, ph := range model.Phases {
		pp := progress.Phases[ph]
		if pp == nil {
			continue
		}
		for i := range pp.Steps {
			if pp.Steps[i].StepID == stepID {
				return ph, &pp.Steps[i]
			}
		}
	}
	return "", nil
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"
	"launchpad_backend/internal/util"
	"launchpad_backend/pkg/monitoring"
)

const (
	bundleResourceLimit  = 5
	phaseResourceLimit   = 3
	relatedResourceLimit = 3
	insightRecLimit      = 5
)

// ProjectStore 项目读取协作方接口
type ProjectStore interface {
	// GetProject returns (nil, nil) when the project does not exist.
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

// RecommendationService orchestrates the tracker, the rule engine and the
// project store into the aggregate views the API serves.
type RecommendationService struct {
	Tracker  *ProgressTracker
	Projects ProjectStore
	Engine   *RecommendationEngine
	Calc     *ProgressCalculator

	cfg config.EngineConfig
}

func NewRecommendationService(tracker *ProgressTracker, projects ProjectStore, engine *RecommendationEngine, calc *ProgressCalculator, cfg config.EngineConfig) *RecommendationService {
	return &RecommendationService{
		Tracker:  tracker,
		Projects: projects,
		Engine:   engine,
		Calc:     calc,
		cfg:      cfg,
	}
}

// loadContext fetches progress and project concurrently. Either may come
// back nil without an error when the underlying document is absent.
func (s *RecommendationService) loadContext(ctx context.Context, userID uint, projectID string) (*model.UserProgress, *model.Project, error) {
	var (
		wg          sync.WaitGroup
		progress    *model.UserProgress
		project     *model.Project
		progressErr error
		projectErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		progress, progressErr = s.Tracker.GetProgress(ctx, userID, projectID)
	}()
	go func() {
		defer wg.Done()
		project, projectErr = s.Projects.GetProject(ctx, projectID)
	}()
	wg.Wait()

	if progressErr != nil {
		return nil, nil, progressErr
	}
	if projectErr != nil {
		return nil, nil, projectErr
	}
	return progress, project, nil
}

// GetRecommendations builds the full bundle: next steps, resources, risks
// and personalized recommendations for one user/project pair.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID uint, projectID string) (*model.RecommendationBundle, error) {
	start := time.Now()
	defer func() {
		monitoring.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil || project == nil {
		return nil, util.ErrProgressOrProjectNotFound
	}

	return &model.RecommendationBundle{
		NextSteps:                   s.Engine.CalculateNextSteps(progress, project),
		Resources:                   s.Engine.SuggestResources(project, progress, bundleResourceLimit),
		Risks:                       s.Engine.IdentifyRisks(project, progress),
		PersonalizedRecommendations: s.Engine.GeneratePersonalizedRecommendations(userID, progress, project),
	}, nil
}

// GetPhaseRecommendations narrows the bundle to a single phase and adds
// content suggestions for it.
func (s *RecommendationService) GetPhaseRecommendations(ctx context.Context, userID uint, projectID string, phase model.Phase) (*model.PhaseRecommendations, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownPhase, phase)
	}

	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil || project == nil {
		return nil, util.ErrProgressOrProjectNotFound
	}

	out := &model.PhaseRecommendations{
		Phase:                       phase,
		NextSteps:                   filterByPhase(s.Engine.CalculateNextSteps(progress, project), phase),
		Resources:                   []model.Resource{},
		Risks:                       s.Engine.IdentifyRisks(project, progress),
		PersonalizedRecommendations: filterByPhase(s.Engine.GeneratePersonalizedRecommendations(userID, progress, project), phase),
		ContentSuggestions:          s.Engine.SuggestContent(buildSuggestionContext(project, phase, nil)),
	}

	// 资源按目标阶段过滤，而不是按当前阶段
	scoped := progress
	if scoped != nil {
		scoped = scoped.Clone()
		scoped.CurrentPhase = phase
	}
	out.Resources = s.Engine.SuggestResources(project, scoped, phaseResourceLimit)

	return out, nil
}

// GetRiskAnalysis identifies risks and aggregates them into a summary plus
// a mitigation recommendation per risk at or above the mitigation priority.
func (s *RecommendationService) GetRiskAnalysis(ctx context.Context, userID uint, projectID string) (*model.RiskAnalysis, error) {
	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil || project == nil {
		return nil, util.ErrProgressOrProjectNotFound
	}

	risks := s.Engine.PrioritizeRisks(s.Engine.IdentifyRisks(project, progress))

	summary := model.RiskSummary{
		TotalRisks:         len(risks),
		CriticalCategories: []model.RiskCategory{},
		OverallRiskLevel:   s.Engine.CalculateOverallRiskLevel(risks),
	}
	seenCategory := make(map[model.RiskCategory]bool)
	mitigations := []model.Recommendation{}
	for _, r := range risks {
		level := s.Engine.CalculateRiskScore(r.Probability, r.Impact).Level
		if level == model.RiskHigh || level == model.RiskCritical {
			summary.HighPriorityRisks++
			if !seenCategory[r.Category] {
				seenCategory[r.Category] = true
				summary.CriticalCategories = append(summary.CriticalCategories, r.Category)
			}
		}
		if r.Priority >= s.cfg.MitigationPriority {
			mitigations = append(mitigations, model.Recommendation{
				ID:          fmt.Sprintf("mitigate-%s", r.ID),
				Title:       fmt.Sprintf("Mitigate: %s", r.Title),
				Description: r.Mitigation,
				Priority:    mitigationPriority(r.Priority),
				Phase:       phaseForCategory(r.Category),
				Category:    "risk-mitigation",
				ActionItems: []string{r.Mitigation},
				Type:        model.RecommendationRisk,
			})
		}
	}

	return &model.RiskAnalysis{
		Risks:                     risks,
		RiskSummary:               summary,
		MitigationRecommendations: mitigations,
	}, nil
}

// UpdateUserActivity records a behavior observation for the user and returns
// the personalized recommendations it unlocked. Unlike the read paths it
// requires both documents to exist.
func (s *RecommendationService) UpdateUserActivity(ctx context.Context, userID uint, projectID string, stepID string, timeSpent time.Duration) ([]model.Recommendation, error) {
	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.ErrProgressNotFound
	}
	if project == nil {
		return nil, util.ErrProjectNotFound
	}

	s.Engine.UpdateUserBehaviorPattern(userID, progress, stepID, timeSpent)
	return s.Engine.GeneratePersonalizedRecommendations(userID, progress, project), nil
}

// GetContentSuggestions adapts content templates to the project and the
// free-form user input, pairing them with resources related by tag.
func (s *RecommendationService) GetContentSuggestions(ctx context.Context, userID uint, projectID string, phase model.Phase, userInput map[string]interface{}) (*model.ContentSuggestionResult, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownPhase, phase)
	}

	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil || project == nil {
		return nil, util.ErrProgressOrProjectNotFound
	}

	suggestions := s.Engine.SuggestContent(buildSuggestionContext(project, phase, userInput))

	scoped := progress
	if scoped != nil {
		scoped = scoped.Clone()
		scoped.CurrentPhase = phase
	}
	related := s.Engine.SuggestResources(project, scoped, relatedResourceLimit)

	return &model.ContentSuggestionResult{
		Suggestions:      suggestions,
		RelatedResources: related,
	}, nil
}

// GetProgressInsights summarizes trajectory: completion, momentum, stuck
// areas, and a trimmed recommendation list.
func (s *RecommendationService) GetProgressInsights(ctx context.Context, userID uint, projectID string) (*model.ProgressInsights, error) {
	progress, project, err := s.loadContext(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.ErrProgressNotFound
	}

	calc := s.Calc.Calculate(progress)
	stuck := s.Calc.FindStuckAreas(calc.PhaseCompletion, calc.OverallCompletion)
	momentum := s.Calc.Momentum(progress.UpdatedAt, time.Now())

	summary := model.InsightSummary{
		OverallCompletion: calc.OverallCompletion,
		CurrentPhase:      progress.CurrentPhase,
		CompletedPhases:   s.Calc.CompletedPhases(progress),
		StuckAreas:        stuck,
		Momentum:          momentum,
	}

	insights := []string{}
	switch momentum {
	case model.MomentumHigh:
		insights = append(insights, "You are making steady progress - keep the current cadence")
	case model.MomentumMedium:
		insights = append(insights, "Progress has slowed this week; a small completed step will restore momentum")
	default:
		insights = append(insights, "The project has been idle for a while; pick one small step to restart")
	}
	for _, ph := range stuck {
		insights = append(insights, fmt.Sprintf("The %s phase is lagging well behind the rest of your plan", ph))
	}
	if len(summary.CompletedPhases) > 0 {
		insights = append(insights, fmt.Sprintf("%d of %d phases are fully complete", len(summary.CompletedPhases), len(model.Phases)))
	}

	recs := s.Engine.CalculateNextSteps(progress, project)
	recs = append(recs, s.Engine.GeneratePersonalizedRecommendations(userID, progress, project)...)
	if len(recs) > insightRecLimit {
		recs = recs[:insightRecLimit]
	}

	return &model.ProgressInsights{
		ProgressSummary: summary,
		Insights:        insights,
		Recommendations: recs,
	}, nil
}

func filterByPhase(recs []model.Recommendation, phase model.Phase) []model.Recommendation {
	out := []model.Recommendation{}
	for _, r := range recs {
		if r.Phase == phase {
			out = append(out, r)
		}
	}
	return out
}

func buildSuggestionContext(project *model.Project, phase model.Phase, userInput map[string]interface{}) *model.SuggestionContext {
	sctx := &model.SuggestionContext{Phase: phase, UserInput: userInput}
	if project != nil {
		sctx.Industry = project.Industry
		sctx.Stage = project.Stage
		sctx.Budget = project.Budget()
		sctx.TeamSize = project.TeamSize()
	}
	return sctx
}

// mitigationPriority maps the 1-3 risk priority onto the recommendation scale.
func mitigationPriority(p int) model.Priority {
	switch {
	case p >= 3:
		return model.PriorityHigh
	case p == 2:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// phaseForCategory anchors a mitigation recommendation to the phase that
// owns the risk's subject matter.
func phaseForCategory(category model.RiskCategory) model.Phase {
	switch category {
	case model.RiskCategoryTechnical:
		return model.PhaseTechnical
	case model.RiskCategoryMarket:
		return model.PhaseValidation
	case model.RiskCategoryFinancial:
		return model.PhaseFinancial
	case model.RiskCategoryOperational:
		return model.PhaseOperations
	default:
		return model.PhaseRisk
	}
}

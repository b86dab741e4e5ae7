package service

import (
	"context"
	"testing"
	"time"

	"launchpad_backend/internal/model"
	"launchpad_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjectStore struct {
	projects map[string]*model.Project
}

func (f *fakeProjectStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	return f.projects[id], nil
}

type recommendationFixture struct {
	svc      *RecommendationService
	store    *fakeProgressStore
	projects *fakeProjectStore
	engine   *RecommendationEngine
}

func newRecommendationFixture() *recommendationFixture {
	cfg := testEngineConfig()
	store := newFakeProgressStore()
	calc := NewProgressCalculator(cfg)
	tracker := NewProgressTracker(store, calc, slowTrackerConfig(), cfg)
	engine := NewRecommendationEngine(cfg, calc, NewMemoryBehaviorStore(), model.DefaultResourceCatalog())
	projects := &fakeProjectStore{projects: make(map[string]*model.Project)}
	return &recommendationFixture{
		svc:      NewRecommendationService(tracker, projects, engine, calc, cfg),
		store:    store,
		projects: projects,
		engine:   engine,
	}
}

func (fx *recommendationFixture) seedProject(id, industry string) {
	fx.projects.projects[id] = &model.Project{
		ID:       id,
		UserID:   1,
		Name:     "test venture",
		Industry: industry,
		Stage:    "idea",
	}
}

func (fx *recommendationFixture) seedProgress(p *model.UserProgress) {
	fx.store.docs[trackKey{p.UserID, p.ProjectID}] = p
}

func TestGetRecommendations_BothAbsent(t *testing.T) {
	fx := newRecommendationFixture()
	_, err := fx.svc.GetRecommendations(context.Background(), 1, "ghost")
	assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
}

func TestGetRecommendations_FullBundle(t *testing.T) {
	fx := newRecommendationFixture()
	fx.seedProject("p1", "saas")
	fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))

	bundle, err := fx.svc.GetRecommendations(context.Background(), 1, "p1")
	require.NoError(t, err)

	require.NotEmpty(t, bundle.NextSteps)
	assert.Equal(t, "start-validation", bundle.NextSteps[0].ID)
	assert.NotEmpty(t, bundle.Resources)
	assert.NotNil(t, bundle.Risks)
	assert.Contains(t, recommendationIDs(bundle.PersonalizedRecommendations), "welcome-first-time")
}

func TestGetRecommendations_EitherDocumentAbsentFails(t *testing.T) {
	ctx := context.Background()

	t.Run("project without progress", func(t *testing.T) {
		fx := newRecommendationFixture()
		fx.seedProject("p1", "ecommerce")
		_, err := fx.svc.GetRecommendations(ctx, 1, "p1")
		assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
	})

	t.Run("progress without project", func(t *testing.T) {
		fx := newRecommendationFixture()
		fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))

		_, err := fx.svc.GetRecommendations(ctx, 1, "p1")
		assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
		_, err = fx.svc.GetPhaseRecommendations(ctx, 1, "p1", model.PhaseValidation)
		assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
		_, err = fx.svc.GetRiskAnalysis(ctx, 1, "p1")
		assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
		_, err = fx.svc.GetContentSuggestions(ctx, 1, "p1", model.PhaseValidation, nil)
		assert.ErrorIs(t, err, util.ErrProgressOrProjectNotFound)
	})
}

func TestGetPhaseRecommendations_InvalidPhase(t *testing.T) {
	fx := newRecommendationFixture()
	_, err := fx.svc.GetPhaseRecommendations(context.Background(), 1, "p1", model.Phase("warp"))
	assert.ErrorIs(t, err, util.ErrUnknownPhase)
}

func TestGetPhaseRecommendations_FiltersToPhase(t *testing.T) {
	fx := newRecommendationFixture()
	fx.seedProject("p1", "saas")
	fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))

	out, err := fx.svc.GetPhaseRecommendations(context.Background(), 1, "p1", model.PhaseValidation)
	require.NoError(t, err)

	assert.Equal(t, model.PhaseValidation, out.Phase)
	require.NotEmpty(t, out.NextSteps)
	for _, r := range out.NextSteps {
		assert.Equal(t, model.PhaseValidation, r.Phase)
	}
	assert.NotEmpty(t, out.ContentSuggestions, "saas validation has content templates")
	assert.LessOrEqual(t, len(out.Resources), phaseResourceLimit)

	// a phase the user has no footprint in produces no next-step entries
	other, err := fx.svc.GetPhaseRecommendations(context.Background(), 1, "p1", model.PhaseOptimization)
	require.NoError(t, err)
	assert.Empty(t, other.NextSteps)
}

func TestGetRiskAnalysis(t *testing.T) {
	fx := newRecommendationFixture()
	fx.seedProject("p1", "saas")
	// everything done except technical work
	fx.seedProgress(progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
		model.PhaseMarketing:  100,
		model.PhaseOperations: 100,
		model.PhaseFinancial:  100,
		model.PhaseRisk:       100,
	}))

	analysis, err := fx.svc.GetRiskAnalysis(context.Background(), 1, "p1")
	require.NoError(t, err)

	require.Len(t, analysis.Risks, 1)
	risk := analysis.Risks[0]
	assert.Equal(t, "risk-technical-lag", risk.ID)

	assert.Equal(t, 1, analysis.RiskSummary.TotalRisks)
	assert.Equal(t, 1, analysis.RiskSummary.HighPriorityRisks)
	assert.Equal(t, []model.RiskCategory{model.RiskCategoryTechnical}, analysis.RiskSummary.CriticalCategories)
	assert.Equal(t, model.RiskMedium, analysis.RiskSummary.OverallRiskLevel)

	require.Len(t, analysis.MitigationRecommendations, 1)
	mit := analysis.MitigationRecommendations[0]
	assert.Equal(t, "mitigate-risk-technical-lag", mit.ID)
	assert.Equal(t, "Mitigate: "+risk.Title, mit.Title)
	assert.Equal(t, model.PhaseTechnical, mit.Phase)
	assert.Equal(t, model.RecommendationRisk, mit.Type)
}

func TestGetRiskAnalysis_NoRisks(t *testing.T) {
	fx := newRecommendationFixture()
	fx.seedProject("p1", "saas")
	fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))

	analysis, err := fx.svc.GetRiskAnalysis(context.Background(), 1, "p1")
	require.NoError(t, err)
	assert.Zero(t, analysis.RiskSummary.TotalRisks)
	assert.Equal(t, model.RiskLow, analysis.RiskSummary.OverallRiskLevel)
	assert.Empty(t, analysis.MitigationRecommendations)
}

func TestUpdateUserActivity(t *testing.T) {
	fx := newRecommendationFixture()
	ctx := context.Background()

	_, err := fx.svc.UpdateUserActivity(ctx, 1, "ghost", "a", time.Minute)
	assert.ErrorIs(t, err, util.ErrProgressNotFound)

	fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))
	_, err = fx.svc.UpdateUserActivity(ctx, 1, "p1", "a", time.Minute)
	assert.ErrorIs(t, err, util.ErrProjectNotFound)

	fx.seedProject("p1", "saas")
	recs, err := fx.svc.UpdateUserActivity(ctx, 1, "p1", "a", 30*time.Minute)
	require.NoError(t, err)

	// the observation materialized a behavior pattern, so the first-time
	// welcome never fires; the fresh recommendations reflect the pattern
	assert.NotContains(t, recommendationIDs(recs), "welcome-first-time")
	assert.Contains(t, recommendationIDs(recs), "completion-boost")
}

func TestGetContentSuggestions(t *testing.T) {
	fx := newRecommendationFixture()
	ctx := context.Background()

	_, err := fx.svc.GetContentSuggestions(ctx, 1, "p1", model.Phase("warp"), nil)
	assert.ErrorIs(t, err, util.ErrUnknownPhase)

	fx.seedProject("p1", "saas")
	fx.seedProgress(model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now()))

	result, err := fx.svc.GetContentSuggestions(ctx, 1, "p1", model.PhaseValidation,
		map[string]interface{}{"targetAudience": "indie founders"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Suggestions)
	assert.LessOrEqual(t, len(result.RelatedResources), relatedResourceLimit)
}

func TestGetProgressInsights(t *testing.T) {
	fx := newRecommendationFixture()
	ctx := context.Background()

	fx.seedProject("p1", "saas")
	_, err := fx.svc.GetProgressInsights(ctx, 1, "p1")
	assert.ErrorIs(t, err, util.ErrProgressNotFound)

	fx.seedProgress(progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 40,
	}))

	insights, err := fx.svc.GetProgressInsights(ctx, 1, "p1")
	require.NoError(t, err)

	assert.Equal(t, model.MomentumHigh, insights.ProgressSummary.Momentum)
	assert.Equal(t, []model.Phase{model.PhaseValidation}, insights.ProgressSummary.CompletedPhases)
	assert.InDelta(t, 17.5, insights.ProgressSummary.OverallCompletion, 0.01)
	assert.NotEmpty(t, insights.Insights)
	assert.LessOrEqual(t, len(insights.Recommendations), insightRecLimit)
}

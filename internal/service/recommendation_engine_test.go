package service

import (
	"testing"
	"time"

	"launchpad_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *RecommendationEngine {
	cfg := testEngineConfig()
	return NewRecommendationEngine(cfg, NewProgressCalculator(cfg), NewMemoryBehaviorStore(), model.DefaultResourceCatalog())
}

func recommendationIDs(recs []model.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCalculateNextSteps_EmptyProgress(t *testing.T) {
	e := newTestEngine()
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())

	recs := e.CalculateNextSteps(p, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, "start-validation", recs[0].ID)
	assert.Equal(t, model.PriorityHigh, recs[0].Priority)
	assert.Equal(t, model.PhaseValidation, recs[0].Phase)
	assert.Equal(t, model.RecommendationNextStep, recs[0].Type)
}

func TestCalculateNextSteps_NilProgress(t *testing.T) {
	e := newTestEngine()
	recs := e.CalculateNextSteps(nil, &model.Project{Industry: "saas"})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestCalculateNextSteps_PhaseProgression(t *testing.T) {
	e := newTestEngine()
	p := progressWithCompletion(map[model.Phase]int{model.PhaseValidation: 100})

	recs := e.CalculateNextSteps(p, nil)
	require.NotEmpty(t, recs)
	assert.Equal(t, "phase-progression-definition", recs[0].ID)
	assert.Contains(t, recs[0].Title, "Definition Phase")
	assert.Equal(t, model.PhaseDefinition, recs[0].Phase)
}

func TestCalculateNextSteps_IncompleteStepInCurrentPhase(t *testing.T) {
	e := newTestEngine()
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())
	p.Phases[model.PhaseValidation].Steps = []model.StepProgress{
		{StepID: "market-research", Status: model.StepInProgress},
	}

	recs := e.CalculateNextSteps(p, nil)
	require.NotEmpty(t, recs)
	assert.Equal(t, "step-market-research", recs[0].ID)
	assert.Contains(t, recs[0].Title, "Market Research")
}

func TestCalculateNextSteps_CriticalPathForIndustry(t *testing.T) {
	e := newTestEngine()
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())
	p.Phases[model.PhaseValidation].Steps = []model.StepProgress{
		{StepID: "interviews", Status: model.StepInProgress},
	}
	project := &model.Project{Industry: "saas"}

	recs := e.CalculateNextSteps(p, project)
	assert.Contains(t, recommendationIDs(recs), "critical-path-technical")
}

func TestCalculateNextSteps_Milestones(t *testing.T) {
	e := newTestEngine()

	quarter := progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
	})
	assert.Contains(t, recommendationIDs(e.CalculateNextSteps(quarter, nil)), "milestone-quarter")

	halfway := progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
		model.PhaseTechnical:  100,
		model.PhaseMarketing:  100,
	})
	assert.Contains(t, recommendationIDs(e.CalculateNextSteps(halfway, nil)), "milestone-halfway")
}

func TestCalculateNextSteps_SortedByPriority(t *testing.T) {
	e := newTestEngine()
	quarter := progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
	})

	recs := e.CalculateNextSteps(quarter, nil)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank())
	}
}

func TestIdentifyRisks_NilInputs(t *testing.T) {
	e := newTestEngine()
	risks := e.IdentifyRisks(nil, nil)
	assert.NotNil(t, risks)
	assert.Empty(t, risks)
}

func TestIdentifyRisks_ValidationGap(t *testing.T) {
	e := newTestEngine()
	p := progressWithCompletion(map[model.Phase]int{model.PhaseValidation: 20})
	p.CurrentPhase = model.PhaseTechnical

	risks := e.IdentifyRisks(nil, p)
	require.Len(t, risks, 1)
	assert.Equal(t, "risk-validation-gap", risks[0].ID)
	assert.Equal(t, model.RiskCategoryMarket, risks[0].Category)
	assert.Equal(t, 3, risks[0].Priority)
}

func TestIdentifyRisks_TechnicalLag(t *testing.T) {
	e := newTestEngine()
	p := progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
		model.PhaseMarketing:  100,
		model.PhaseOperations: 100,
		model.PhaseFinancial:  100,
		model.PhaseRisk:       100,
	})

	risks := e.IdentifyRisks(nil, p)
	require.Len(t, risks, 1)
	assert.Equal(t, "risk-technical-lag", risks[0].ID)
}

func TestIdentifyRisks_LagThresholdsComeFromConfig(t *testing.T) {
	// overall here is 75%; raising the overall bound above that silences
	// the technical-lag rule without touching the progress snapshot
	cfg := testEngineConfig()
	cfg.TechnicalLagOverall = 80
	e := NewRecommendationEngine(cfg, NewProgressCalculator(cfg), NewMemoryBehaviorStore(), model.DefaultResourceCatalog())

	p := progressWithCompletion(map[model.Phase]int{
		model.PhaseValidation: 100,
		model.PhaseDefinition: 100,
		model.PhaseMarketing:  100,
		model.PhaseOperations: 100,
		model.PhaseFinancial:  100,
		model.PhaseRisk:       100,
	})

	assert.Empty(t, e.IdentifyRisks(nil, p))
}

func TestIdentifyRisks_Inactivity(t *testing.T) {
	e := newTestEngine()
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())
	e.nowFn = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	risks := e.IdentifyRisks(nil, p)
	require.Len(t, risks, 1)
	assert.Equal(t, "risk-inactivity", risks[0].ID)
	assert.Equal(t, model.RiskCategoryTimeline, risks[0].Category)
}

func TestCalculateRiskScore_Table(t *testing.T) {
	e := newTestEngine()
	cases := []struct {
		probability, impact model.RiskLevel
		score               int
		level               model.RiskLevel
	}{
		{model.RiskLow, model.RiskLow, 1, model.RiskLow},
		{model.RiskLow, model.RiskMedium, 2, model.RiskLow},
		{model.RiskLow, model.RiskHigh, 3, model.RiskMedium},
		{model.RiskMedium, model.RiskLow, 2, model.RiskLow},
		{model.RiskMedium, model.RiskMedium, 4, model.RiskMedium},
		{model.RiskMedium, model.RiskHigh, 6, model.RiskHigh},
		{model.RiskHigh, model.RiskLow, 3, model.RiskMedium},
		{model.RiskHigh, model.RiskMedium, 6, model.RiskHigh},
		{model.RiskHigh, model.RiskHigh, 9, model.RiskCritical},
	}
	for _, tc := range cases {
		got := e.CalculateRiskScore(tc.probability, tc.impact)
		assert.Equal(t, tc.score, got.Score, "%s x %s score", tc.probability, tc.impact)
		assert.Equal(t, tc.level, got.Level, "%s x %s level", tc.probability, tc.impact)
	}
}

func TestCalculateOverallRiskLevel(t *testing.T) {
	e := newTestEngine()
	high := model.Risk{Probability: model.RiskHigh, Impact: model.RiskHigh}
	low := model.Risk{Probability: model.RiskLow, Impact: model.RiskLow}

	assert.Equal(t, model.RiskLow, e.CalculateOverallRiskLevel(nil))
	assert.Equal(t, model.RiskLow, e.CalculateOverallRiskLevel([]model.Risk{low}))
	assert.Equal(t, model.RiskMedium, e.CalculateOverallRiskLevel([]model.Risk{high, low}))
	assert.Equal(t, model.RiskHigh, e.CalculateOverallRiskLevel([]model.Risk{high, high, high}))
}

func TestPrioritizeRisks_StableScoreDescending(t *testing.T) {
	e := newTestEngine()
	risks := []model.Risk{
		{ID: "low", Probability: model.RiskLow, Impact: model.RiskLow},
		{ID: "critical", Probability: model.RiskHigh, Impact: model.RiskHigh},
		{ID: "medium-a", Probability: model.RiskMedium, Impact: model.RiskMedium, Priority: 2},
		{ID: "medium-b", Probability: model.RiskMedium, Impact: model.RiskMedium, Priority: 2},
	}

	sorted := e.PrioritizeRisks(risks)
	assert.Equal(t, "critical", sorted[0].ID)
	assert.Equal(t, "medium-a", sorted[1].ID, "equal scores keep input order")
	assert.Equal(t, "medium-b", sorted[2].ID)
	assert.Equal(t, "low", sorted[3].ID)
	// input untouched
	assert.Equal(t, "low", risks[0].ID)
}

func TestSuggestResources_TagMatching(t *testing.T) {
	e := newTestEngine()
	project := &model.Project{
		Industry: "saas",
		Stage:    "idea",
		Data: map[model.Phase]map[string]interface{}{
			model.PhaseFinancial: {"budget": 5000.0, "teamSize": 1},
		},
	}
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())

	resources := e.SuggestResources(project, p, 5)
	require.NotEmpty(t, resources)
	assert.LessOrEqual(t, len(resources), 5)
	for i := 1; i < len(resources); i++ {
		assert.GreaterOrEqual(t, resources[i-1].RelevanceScore, resources[i].RelevanceScore)
	}
	seen := map[string]bool{}
	for _, r := range resources {
		assert.False(t, seen[r.ID], "duplicate resource %s", r.ID)
		seen[r.ID] = true
	}
}

func TestSuggestResources_UnknownIndustryStillMatchesGeneral(t *testing.T) {
	e := newTestEngine()
	project := &model.Project{Industry: "underwater-basket-weaving", Stage: "unknown"}

	resources := e.SuggestResources(project, nil, 10)
	assert.NotEmpty(t, resources, "general tier must keep the result non-empty")
}

func TestSuggestResources_NilInputs(t *testing.T) {
	e := newTestEngine()
	assert.Empty(t, e.SuggestResources(nil, nil, 5))
}

func TestGeneratePersonalizedRecommendations_FirstTimeWelcome(t *testing.T) {
	e := newTestEngine()
	p := model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())

	recs := e.GeneratePersonalizedRecommendations(1, p, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, "welcome-first-time", recs[0].ID)

	// second call sees the stored pattern, no repeat welcome
	recs = e.GeneratePersonalizedRecommendations(1, p, nil)
	for _, r := range recs {
		assert.NotEqual(t, "welcome-first-time", r.ID)
	}
}

func TestGeneratePersonalizedRecommendations_LowCompletionAndStuck(t *testing.T) {
	e := newTestEngine()
	pattern := e.behavior.GetOrCreate(2, time.Now())
	pattern.CompletionRate = 0.1
	pattern.RecordStuckPoint("pricing-model")

	p := model.NewUserProgress(2, "p2", model.PhaseFinancial, time.Now())
	p.Phases[model.PhaseFinancial].Steps = []model.StepProgress{
		{StepID: "pricing-model", Status: model.StepInProgress},
	}

	recs := e.GeneratePersonalizedRecommendations(2, p, nil)
	ids := recommendationIDs(recs)
	assert.Contains(t, ids, "completion-boost")
	assert.Contains(t, ids, "stuck-help-pricing-model")
}

func TestUpdateUserBehaviorPattern(t *testing.T) {
	e := newTestEngine()
	p := progressWithCompletion(map[model.Phase]int{model.PhaseValidation: 100})
	p.Phases[model.PhaseDefinition].Steps = []model.StepProgress{
		{StepID: "prd", Status: model.StepInProgress},
	}

	e.UpdateUserBehaviorPattern(3, p, "prd", 30*time.Minute)

	pattern := e.behavior.Get(3)
	require.NotNil(t, pattern)
	assert.InDelta(t, 0.5, pattern.CompletionRate, 0.001)
	assert.InDelta(t, 30, pattern.AverageTimePerPhase[model.PhaseDefinition], 0.001)
	assert.False(t, pattern.IsStuckPoint("prd"))

	// exceeding the stuck window marks the step
	e.UpdateUserBehaviorPattern(3, p, "prd", 80*time.Hour)
	assert.True(t, e.behavior.Get(3).IsStuckPoint("prd"))
}

func TestUpdateUserBehaviorPattern_NilProgressIsNoop(t *testing.T) {
	e := newTestEngine()
	e.UpdateUserBehaviorPattern(4, nil, "prd", time.Minute)
	assert.Nil(t, e.behavior.Get(4))
}

func TestSuggestContent(t *testing.T) {
	e := newTestEngine()

	t.Run("nil context yields empty result", func(t *testing.T) {
		got := e.SuggestContent(nil)
		require.NotNil(t, got)
		assert.Empty(t, got.TemplateSuggestions)
		assert.Empty(t, got.FrameworkAdjustments)
		assert.Empty(t, got.ContentIdeas)
	})

	t.Run("industry templates and low budget adjustment", func(t *testing.T) {
		got := e.SuggestContent(&model.SuggestionContext{
			Phase:    model.PhaseValidation,
			Industry: "saas",
			Budget:   5000,
			TeamSize: 1,
			UserInput: map[string]interface{}{
				"targetAudience": "indie developers",
				"competitors":    "",
			},
		})

		assert.Contains(t, got.TemplateSuggestions, "Customer Interview Script")
		assert.Contains(t, got.TemplateSuggestions, "SaaS Demand Test Landing Page")
		require.NotEmpty(t, got.FrameworkAdjustments)
		assert.Contains(t, got.FrameworkAdjustments[0], "lean validation")
		// only the populated input key produces an idea
		require.Len(t, got.ContentIdeas, 1)
		assert.Contains(t, got.ContentIdeas[0], "targetAudience")
	})
}

package model

// StepRef points at a concrete step inside a phase.
type StepRef struct {
	Phase  Phase  `json:"phase"`
	StepID string `json:"stepId"`
}

// ProgressCalculation 进度计算结果
type ProgressCalculation struct {
	PhaseCompletion   map[Phase]int `json:"phaseCompletion"`
	OverallCompletion float64       `json:"overallCompletion"`
	TotalSteps        int           `json:"totalSteps"`
	CompletedSteps    int           `json:"completedSteps"`
	NextStep          *StepRef      `json:"nextStep,omitempty"`
	NextPhase         *Phase        `json:"nextPhase,omitempty"`
}

type Momentum string

const (
	MomentumHigh   Momentum = "high"
	MomentumMedium Momentum = "medium"
	MomentumLow    Momentum = "low"
)

// ProgressSummary is the heuristic text view served by the tracker.
type ProgressSummary struct {
	Progress        *UserProgress        `json:"progress"`
	Calculation     *ProgressCalculation `json:"calculation"`
	Recommendations []string             `json:"recommendations"`
	Risks           []string             `json:"risks"`
}

// RecommendationBundle is the aggregate served by GetRecommendations.
type RecommendationBundle struct {
	NextSteps                   []Recommendation `json:"nextSteps"`
	Resources                   []Resource       `json:"resources"`
	Risks                       []Risk           `json:"risks"`
	PersonalizedRecommendations []Recommendation `json:"personalizedRecommendations"`
}

// PhaseRecommendations is the phase-scoped variant.
type PhaseRecommendations struct {
	Phase                       Phase               `json:"phase"`
	NextSteps                   []Recommendation    `json:"nextSteps"`
	Resources                   []Resource          `json:"resources"`
	Risks                       []Risk              `json:"risks"`
	PersonalizedRecommendations []Recommendation    `json:"personalizedRecommendations"`
	ContentSuggestions          *ContentSuggestions `json:"contentSuggestions"`
}

// RiskAnalysis 风险分析结果
type RiskAnalysis struct {
	Risks                     []Risk           `json:"risks"`
	RiskSummary               RiskSummary      `json:"riskSummary"`
	MitigationRecommendations []Recommendation `json:"mitigationRecommendations"`
}

// SuggestionContext carries the project signals the content engine keys on.
type SuggestionContext struct {
	Phase        Phase                  `json:"phase"`
	Industry     string                 `json:"industry"`
	Stage        string                 `json:"stage"`
	Budget       float64                `json:"budget"`
	TeamSize     int                    `json:"teamSize"`
	UserInput    map[string]interface{} `json:"userInput,omitempty"`
}

// ContentSuggestions 内容建议结果
type ContentSuggestions struct {
	TemplateSuggestions  []string `json:"templateSuggestions"`
	FrameworkAdjustments []string `json:"frameworkAdjustments"`
	ContentIdeas         []string `json:"contentIdeas"`
}

// ContentSuggestionResult pairs content suggestions with related resources.
type ContentSuggestionResult struct {
	Suggestions      *ContentSuggestions `json:"suggestions"`
	RelatedResources []Resource          `json:"relatedResources"`
}

// ProgressInsights is the dashboard view of a user's trajectory.
type ProgressInsights struct {
	ProgressSummary InsightSummary   `json:"progressSummary"`
	Insights        []string         `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
}

type InsightSummary struct {
	OverallCompletion float64  `json:"overallCompletion"`
	CurrentPhase      Phase    `json:"currentPhase"`
	CompletedPhases   []Phase  `json:"completedPhases"`
	StuckAreas        []Phase  `json:"stuckAreas"`
	Momentum          Momentum `json:"momentum"`
}

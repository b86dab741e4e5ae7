package model

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps priorities to a sortable weight, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type RecommendationType string

const (
	RecommendationNextStep     RecommendationType = "next-step"
	RecommendationResource     RecommendationType = "resource"
	RecommendationRisk         RecommendationType = "risk"
	RecommendationOptimization RecommendationType = "optimization"
	RecommendationPersonalized RecommendationType = "personalized"
)

// Recommendation 推荐值对象，每次查询重新生成，不落库
// swagger:model Recommendation
type Recommendation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    Priority           `json:"priority"`
	Phase       Phase              `json:"phase"`
	Category    string             `json:"category"`
	ActionItems []string           `json:"actionItems"`
	Type        RecommendationType `json:"type"`
}

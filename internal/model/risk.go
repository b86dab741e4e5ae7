package model

type RiskCategory string

const (
	RiskCategoryTechnical   RiskCategory = "technical"
	RiskCategoryMarket      RiskCategory = "market"
	RiskCategoryFinancial   RiskCategory = "financial"
	RiskCategoryOperational RiskCategory = "operational"
	RiskCategoryTimeline    RiskCategory = "timeline"
)

// RiskLevel doubles as the qualitative probability/impact rating and the
// combined severity level of a scored risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Numeric maps low/medium/high to 1/2/3, 0 for anything else.
func (l RiskLevel) Numeric() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// swagger:model Risk
type Risk struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    RiskCategory `json:"category"`
	Probability RiskLevel    `json:"probability"`
	Impact      RiskLevel    `json:"impact"`
	Priority    int          `json:"priority"`
	Mitigation  string       `json:"mitigation"`
	Status      string       `json:"status"`
}

// RiskScore 概率×影响打分结果
type RiskScore struct {
	Probability int       `json:"probability"`
	Impact      int       `json:"impact"`
	Score       int       `json:"score"`
	Level       RiskLevel `json:"level"`
}

// RiskSummary aggregates a risk list for the analysis endpoint.
type RiskSummary struct {
	TotalRisks         int            `json:"totalRisks"`
	HighPriorityRisks  int            `json:"highPriorityRisks"`
	CriticalCategories []RiskCategory `json:"criticalCategories"`
	OverallRiskLevel   RiskLevel      `json:"overallRiskLevel"`
}

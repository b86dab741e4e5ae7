package model

// DefaultResourceCatalog 默认资源目录，首次迁移时入库
// Tags drive the matching in the recommendation engine: phase names,
// industries, stages, budget/team tiers, plus "general" as the fallback tier.
func DefaultResourceCatalog() []Resource {
	return []Resource{
		{
			ID:             "res-lean-canvas",
			Title:          "Lean Canvas Template",
			Description:    "One-page business model worksheet for fast idea validation",
			Type:           ResourceTemplate,
			Category:       "validation",
			Tags:           []string{"validation", "idea", "low-budget", "solo", "general"},
			RelevanceScore: 0.9,
		},
		{
			ID:             "res-customer-interviews",
			Title:          "The Mom Test",
			Description:    "How to talk to customers and learn if your idea is any good",
			Type:           ResourceBook,
			Category:       "validation",
			Tags:           []string{"validation", "idea", "general"},
			RelevanceScore: 0.85,
		},
		{
			ID:             "res-landing-page-builder",
			Title:          "Landing Page Builder",
			Description:    "No-code tool for demand-testing landing pages",
			Type:           ResourceTool,
			Category:       "validation",
			Tags:           []string{"validation", "marketing", "low-budget", "saas"},
			RelevanceScore: 0.7,
		},
		{
			ID:             "res-prd-template",
			Title:          "Product Requirements Template",
			Description:    "Structured template for defining scope and success metrics",
			Type:           ResourceTemplate,
			Category:       "definition",
			Tags:           []string{"definition", "mvp", "general"},
			RelevanceScore: 0.8,
		},
		{
			ID:             "res-positioning-guide",
			Title:          "Positioning Guide",
			Description:    "Framework for naming the market you actually compete in",
			Type:           ResourceArticle,
			Category:       "definition",
			Tags:           []string{"definition", "marketing", "general"},
			RelevanceScore: 0.6,
		},
		{
			ID:             "res-saas-architecture",
			Title:          "SaaS Architecture Patterns",
			Description:    "Multi-tenant design patterns for early-stage SaaS products",
			Type:           ResourceArticle,
			Category:       "technical",
			Tags:           []string{"technical", "saas", "mvp"},
			RelevanceScore: 0.85,
		},
		{
			ID:             "res-mvp-stack",
			Title:          "Choosing an MVP Stack",
			Description:    "Video walkthrough of pragmatic technology choices for a first build",
			Type:           ResourceVideo,
			Category:       "technical",
			Tags:           []string{"technical", "mvp", "solo", "low-budget"},
			RelevanceScore: 0.75,
		},
		{
			ID:             "res-ecommerce-platforms",
			Title:          "E-commerce Platform Comparison",
			Description:    "Hosted storefronts versus custom builds for online retail",
			Type:           ResourceArticle,
			Category:       "technical",
			Tags:           []string{"technical", "ecommerce", "operations"},
			RelevanceScore: 0.7,
		},
		{
			ID:             "res-gtm-playbook",
			Title:          "Go-to-Market Playbook",
			Description:    "Channel selection and launch sequencing for first customers",
			Type:           ResourceTemplate,
			Category:       "marketing",
			Tags:           []string{"marketing", "growth", "general"},
			RelevanceScore: 0.8,
		},
		{
			ID:             "res-content-marketing",
			Title:          "Content Marketing on a Budget",
			Description:    "Organic acquisition tactics that cost time instead of money",
			Type:           ResourceArticle,
			Category:       "marketing",
			Tags:           []string{"marketing", "low-budget", "solo"},
			RelevanceScore: 0.65,
		},
		{
			ID:             "res-sops-template",
			Title:          "Standard Operating Procedures Template",
			Description:    "Document repeatable processes before hiring",
			Type:           ResourceTemplate,
			Category:       "operations",
			Tags:           []string{"operations", "growth", "general"},
			RelevanceScore: 0.6,
		},
		{
			ID:             "res-fulfillment-basics",
			Title:          "Fulfillment and Logistics Basics",
			Description:    "Inventory, shipping and returns for commerce businesses",
			Type:           ResourceVideo,
			Category:       "operations",
			Tags:           []string{"operations", "ecommerce"},
			RelevanceScore: 0.55,
		},
		{
			ID:             "res-financial-model",
			Title:          "Financial Model Spreadsheet",
			Description:    "Three-year projection model with unit economics tabs",
			Type:           ResourceTemplate,
			Category:       "financial",
			Tags:           []string{"financial", "general"},
			RelevanceScore: 0.8,
		},
		{
			ID:             "res-fundraising-guide",
			Title:          "Fundraising Guide",
			Description:    "When to raise, how much, and from whom",
			Type:           ResourceBook,
			Category:       "financial",
			Tags:           []string{"financial", "growth", "saas", "fintech"},
			RelevanceScore: 0.7,
		},
		{
			ID:             "res-compliance-checklist",
			Title:          "Regulatory Compliance Checklist",
			Description:    "Licensing and data-handling duties for regulated industries",
			Type:           ResourceTemplate,
			Category:       "risk",
			Tags:           []string{"risk", "fintech", "operations"},
			RelevanceScore: 0.75,
		},
		{
			ID:             "res-risk-register",
			Title:          "Risk Register Template",
			Description:    "Track probability, impact and mitigation owners in one place",
			Type:           ResourceTemplate,
			Category:       "risk",
			Tags:           []string{"risk", "general"},
			RelevanceScore: 0.65,
		},
		{
			ID:             "res-analytics-setup",
			Title:          "Product Analytics Setup",
			Description:    "Event tracking plans that answer growth questions",
			Type:           ResourceTool,
			Category:       "optimization",
			Tags:           []string{"optimization", "saas", "growth"},
			RelevanceScore: 0.7,
		},
		{
			ID:             "res-ab-testing",
			Title:          "A/B Testing Primer",
			Description:    "Designing experiments that reach significance with small traffic",
			Type:           ResourceArticle,
			Category:       "optimization",
			Tags:           []string{"optimization", "marketing", "general"},
			RelevanceScore: 0.6,
		},
	}
}

package model

type Phase string

const (
	PhaseValidation   Phase = "validation"
	PhaseDefinition   Phase = "definition"
	PhaseTechnical    Phase = "technical"
	PhaseMarketing    Phase = "marketing"
	PhaseOperations   Phase = "operations"
	PhaseFinancial    Phase = "financial"
	PhaseRisk         Phase = "risk"
	PhaseOptimization Phase = "optimization"
)

// Phases 八个启动阶段的规范顺序
var Phases = []Phase{
	PhaseValidation,
	PhaseDefinition,
	PhaseTechnical,
	PhaseMarketing,
	PhaseOperations,
	PhaseFinancial,
	PhaseRisk,
	PhaseOptimization,
}

var phaseLabels = map[Phase]string{
	PhaseValidation:   "Validation",
	PhaseDefinition:   "Definition",
	PhaseTechnical:    "Technical",
	PhaseMarketing:    "Marketing",
	PhaseOperations:   "Operations",
	PhaseFinancial:    "Financial",
	PhaseRisk:         "Risk",
	PhaseOptimization: "Optimization",
}

func (p Phase) Valid() bool {
	_, ok := phaseLabels[p]
	return ok
}

// Label returns the display name, e.g. "validation" -> "Validation".
func (p Phase) Label() string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return string(p)
}

// Index returns the position in canonical order, -1 for unknown phases.
func (p Phase) Index() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// Next returns the phase that follows p in canonical order, nil for the
// last phase or an unknown phase.
func (p Phase) Next() *Phase {
	i := p.Index()
	if i < 0 || i+1 >= len(Phases) {
		return nil
	}
	next := Phases[i+1]
	return &next
}

type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepNotStarted, StepInProgress, StepCompleted, StepSkipped:
		return true
	}
	return false
}

// Terminal reports whether the step counts toward phase completion.
// Terminal states may still be overwritten; the last write wins.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepSkipped
}

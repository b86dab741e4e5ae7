package model

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/gorm"
)

// swagger:model StepProgress
type StepProgress struct {
	StepID      string                 `json:"stepId"`
	Status      StepStatus             `json:"status"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
}

// swagger:model PhaseProgress
type PhaseProgress struct {
	Phase                Phase          `json:"phase"`
	Steps                []StepProgress `json:"steps"`
	CompletionPercentage int            `json:"completionPercentage"`
	StartedAt            *time.Time     `json:"startedAt,omitempty"`
	CompletedAt          *time.Time     `json:"completedAt,omitempty"`
}

// Recompute refreshes CompletionPercentage and CompletedAt from the steps.
func (pp *PhaseProgress) Recompute(now time.Time) {
	if len(pp.Steps) == 0 {
		pp.CompletionPercentage = 0
		pp.CompletedAt = nil
		return
	}

	terminal := 0
	for _, s := range pp.Steps {
		if s.Status.Terminal() {
			terminal++
		}
	}
	pp.CompletionPercentage = int(math.Round(100 * float64(terminal) / float64(len(pp.Steps))))

	if terminal == len(pp.Steps) {
		if pp.CompletedAt == nil {
			t := now
			pp.CompletedAt = &t
		}
	} else {
		pp.CompletedAt = nil
	}
}

// UpsertStep replaces the step with the same StepID or appends a new one,
// preserving step order. Returns the stored step.
func (pp *PhaseProgress) UpsertStep(step StepProgress) *StepProgress {
	for i := range pp.Steps {
		if pp.Steps[i].StepID == step.StepID {
			pp.Steps[i] = step
			return &pp.Steps[i]
		}
	}
	pp.Steps = append(pp.Steps, step)
	return &pp.Steps[len(pp.Steps)-1]
}

// Started reports whether any work has happened in the phase.
func (pp *PhaseProgress) Started() bool {
	if pp.StartedAt != nil {
		return true
	}
	for _, s := range pp.Steps {
		if s.Status != StepNotStarted {
			return true
		}
	}
	return false
}

// swagger:model UserProgress
type UserProgress struct {
	ID           string                   `json:"id"`
	UserID       uint                     `json:"userId"`
	ProjectID    string                   `json:"projectId"`
	CurrentPhase Phase                    `json:"currentPhase"`
	Phases       map[Phase]*PhaseProgress `json:"phases"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

// NewUserProgress 创建空进度，八个阶段全部就位
func NewUserProgress(userID uint, projectID string, initialPhase Phase, now time.Time) *UserProgress {
	p := &UserProgress{
		UserID:       userID,
		ProjectID:    projectID,
		CurrentPhase: initialPhase,
		Phases:       make(map[Phase]*PhaseProgress, len(Phases)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Normalize()
	return p
}

// Normalize guarantees every canonical phase has an entry. Documents written
// by older clients may miss phases; readers must not care.
func (p *UserProgress) Normalize() {
	if p.Phases == nil {
		p.Phases = make(map[Phase]*PhaseProgress, len(Phases))
	}
	for _, ph := range Phases {
		if p.Phases[ph] == nil {
			p.Phases[ph] = &PhaseProgress{Phase: ph, Steps: []StepProgress{}}
		}
	}
	if !p.CurrentPhase.Valid() {
		p.CurrentPhase = PhaseValidation
	}
}

// Clone returns a deep copy; the tracker hands copies to callers so cached
// state is never aliased.
func (p *UserProgress) Clone() *UserProgress {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Phases = make(map[Phase]*PhaseProgress, len(p.Phases))
	for ph, pp := range p.Phases {
		if pp == nil {
			continue
		}
		dup := *pp
		dup.Steps = make([]StepProgress, len(pp.Steps))
		copy(dup.Steps, pp.Steps)
		for i := range dup.Steps {
			if dup.Steps[i].Data != nil {
				data := make(map[string]interface{}, len(dup.Steps[i].Data))
				for k, v := range dup.Steps[i].Data {
					data[k] = v
				}
				dup.Steps[i].Data = data
			}
		}
		cp.Phases[ph] = &dup
	}
	return &cp
}

// UserProgressDocument 进度文档存储行，阶段数据序列化为 JSON
type UserProgressDocument struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       uint           `gorm:"uniqueIndex:idx_user_project;type:bigint unsigned;not null" json:"userId"`
	ProjectID    string         `gorm:"uniqueIndex:idx_user_project;type:varchar(36);not null" json:"projectId"`
	CurrentPhase string         `gorm:"size:32;not null" json:"currentPhase"`
	Phases       string         `gorm:"type:longtext" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserProgressDocument) TableName() string {
	return "user_progress_documents"
}

// ToProgress decodes the document row into the domain snapshot.
func (d *UserProgressDocument) ToProgress() (*UserProgress, error) {
	p := &UserProgress{
		ID:           d.ID,
		UserID:       d.UserID,
		ProjectID:    d.ProjectID,
		CurrentPhase: Phase(d.CurrentPhase),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Phases != "" {
		if err := json.Unmarshal([]byte(d.Phases), &p.Phases); err != nil {
			return nil, err
		}
	}
	p.Normalize()
	return p, nil
}

// FromProgress encodes the domain snapshot into the document row.
func (d *UserProgressDocument) FromProgress(p *UserProgress) error {
	raw, err := json.Marshal(p.Phases)
	if err != nil {
		return err
	}
	d.ID = p.ID
	d.UserID = p.UserID
	d.ProjectID = p.ProjectID
	d.CurrentPhase = string(p.CurrentPhase)
	d.Phases = string(raw)
	d.CreatedAt = p.CreatedAt
	d.UpdatedAt = p.UpdatedAt
	return nil
}

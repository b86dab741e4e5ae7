package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// swagger:model Project
type Project struct {
	ID           string                           `json:"id"`
	UserID       uint                             `json:"userId"`
	Name         string                           `json:"name"`
	Description  string                           `json:"description"`
	Industry     string                           `json:"industry"`
	TargetMarket string                           `json:"targetMarket"`
	Stage        string                           `json:"stage"`
	Data         map[Phase]map[string]interface{} `json:"data,omitempty"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}

// Budget reads the planned budget signal out of the phase payloads, 0 when absent.
func (p *Project) Budget() float64 {
	return p.numericSignal("budget")
}

// TeamSize reads the team size signal, 0 when absent.
func (p *Project) TeamSize() int {
	return int(p.numericSignal("teamSize"))
}

func (p *Project) numericSignal(key string) float64 {
	if p == nil || p.Data == nil {
		return 0
	}
	for _, ph := range Phases {
		payload := p.Data[ph]
		if payload == nil {
			continue
		}
		switch v := payload[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			f, _ := v.Float64()
			return f
		}
	}
	return 0
}

// ProjectDocument 项目文档存储行
type ProjectDocument struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       uint           `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Industry     string         `gorm:"size:64" json:"industry"`
	TargetMarket string         `gorm:"size:255" json:"targetMarket"`
	Stage        string         `gorm:"size:64" json:"stage"`
	Data         string         `gorm:"type:longtext" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectDocument) TableName() string {
	return "project_documents"
}

func (d *ProjectDocument) ToProject() (*Project, error) {
	p := &Project{
		ID:           d.ID,
		UserID:       d.UserID,
		Name:         d.Name,
		Description:  d.Description,
		Industry:     d.Industry,
		TargetMarket: d.TargetMarket,
		Stage:        d.Stage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Data != "" {
		if err := json.Unmarshal([]byte(d.Data), &p.Data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *ProjectDocument) FromProject(p *Project) error {
	raw, err := json.Marshal(p.Data)
	if err != nil {
		return err
	}
	d.ID = p.ID
	d.UserID = p.UserID
	d.Name = p.Name
	d.Description = p.Description
	d.Industry = p.Industry
	d.TargetMarket = p.TargetMarket
	d.Stage = p.Stage
	d.Data = string(raw)
	d.CreatedAt = p.CreatedAt
	d.UpdatedAt = p.UpdatedAt
	return nil
}

package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ResourceType string

const (
	ResourceArticle  ResourceType = "article"
	ResourceTool     ResourceType = "tool"
	ResourceTemplate ResourceType = "template"
	ResourceVideo    ResourceType = "video"
	ResourceBook     ResourceType = "book"
)

// swagger:model Resource
type Resource struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Type           ResourceType `json:"type"`
	Category       string       `json:"category"`
	Tags           []string     `json:"tags"`
	RelevanceScore float64      `json:"relevanceScore"`
}

// HasTag 标签匹配不区分大小写
func (r *Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ResourceRecord 资源目录存储行，标签序列化为 JSON
type ResourceRecord struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Category       string         `gorm:"size:64" json:"category"`
	Tags           string         `gorm:"type:text" json:"-"`
	RelevanceScore float64        `gorm:"default:0" json:"relevanceScore"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ResourceRecord) TableName() string {
	return "resources"
}

func (rec *ResourceRecord) ToResource() (*Resource, error) {
	r := &Resource{
		ID:             rec.ID,
		Title:          rec.Title,
		Description:    rec.Description,
		Type:           ResourceType(rec.Type),
		Category:       rec.Category,
		RelevanceScore: rec.RelevanceScore,
	}
	if rec.Tags != "" {
		if err := json.Unmarshal([]byte(rec.Tags), &r.Tags); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (rec *ResourceRecord) FromResource(r *Resource) error {
	raw, err := json.Marshal(r.Tags)
	if err != nil {
		return err
	}
	rec.ID = r.ID
	rec.Title = r.Title
	rec.Description = r.Description
	rec.Type = string(r.Type)
	rec.Category = r.Category
	rec.Tags = string(raw)
	rec.RelevanceScore = r.RelevanceScore
	return nil
}

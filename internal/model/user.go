package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	Founder UserRole = "founder"
	Mentor  UserRole = "mentor"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Email     string         `gorm:"size:100;unique;not null" json:"email"`
	Password  string         `gorm:"size:100;not null" json:"-"`
	Role      UserRole       `gorm:"type:enum('founder','mentor','admin');default:'founder'" json:"role"`
	Language  string         `gorm:"size:10;default:'en'" json:"language"`
	Avatar    string         `gorm:"size:255" json:"avatar"`
	Disabled  bool           `gorm:"default:false" json:"disabled"`
	LastLogin time.Time      `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen  time.Time      `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

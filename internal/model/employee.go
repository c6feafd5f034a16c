package model

import (
	"time"
)

// Employee 직원 디렉터리 항목 (AI 어시스턴트 포함)
type Employee struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Department   string    `gorm:"type:varchar(50);not null" json:"department"`
	Role         string    `gorm:"type:varchar(100);default:'Employee'" json:"role"`
	PositionX    float64   `gorm:"default:0" json:"-"`
	PositionY    float64   `gorm:"default:0.5" json:"-"`
	PositionZ    float64   `gorm:"default:0" json:"-"`
	IsAI         bool      `gorm:"default:false;index" json:"isAI"`
	PhotoURL     string    `gorm:"type:text" json:"photoUrl"`
	Introduction string    `gorm:"type:text" json:"introduction"`
	CreatedBy    string    `gorm:"type:varchar(64);index" json:"createdBy"`
	Status       string    `gorm:"type:varchar(20);default:'online'" json:"status"`
	LastUpdated  time.Time `gorm:"autoUpdateTime" json:"lastUpdated"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Employee) TableName() string {
	return "employees"
}

// Coordinates 3D 씬 좌표 [x, y, z]
func (e Employee) Coordinates() [3]float64 {
	return [3]float64{e.PositionX, e.PositionY, e.PositionZ}
}

// SetCoordinates 3D 씬 좌표 설정
func (e *Employee) SetCoordinates(c [3]float64) {
	e.PositionX, e.PositionY, e.PositionZ = c[0], c[1], c[2]
}

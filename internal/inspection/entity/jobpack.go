package entity

import (
	"time"
)

// Contractor 承包商
type Contractor struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	LogoPath  string    `json:"logo_path" gorm:"size:500"`
	LogoURL   string    `json:"logo_url" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Contractor) TableName() string {
	return "contractors"
}

// JobPack 检验工作包
type JobPack struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	JobPackNo    string     `json:"jobpack_no" gorm:"size:32;uniqueIndex;not null"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	ContractorID string     `json:"contractor_id" gorm:"size:32;not null"`
	Mode         string     `json:"mode" gorm:"size:20;not null"` // structure/component
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Status       string     `json:"status" gorm:"size:20;default:draft"`
	Remarks      string     `json:"remarks" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Contractor  *Contractor         `json:"contractor,omitempty" gorm:"foreignKey:ContractorID"`
	Structures  []JobPackStructure  `json:"structures,omitempty" gorm:"foreignKey:JobPackID"`
	Components  []JobPackComponent  `json:"components,omitempty" gorm:"foreignKey:JobPackID"`
	Inspections []JobPackInspection `json:"inspections,omitempty" gorm:"foreignKey:JobPackID"`
}

func (JobPack) TableName() string {
	return "jobpacks"
}

// 工作包状态
const (
	JobPackStatusDraft  = "draft"
	JobPackStatusActive = "active"
	JobPackStatusClosed = "closed"
)

// JobPackStructure 工作包包含的结构物
type JobPackStructure struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	JobPackID   string `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID string `json:"structure_id" gorm:"size:32;not null"`
	SortOrder   int    `json:"sort_order"`
}

func (JobPackStructure) TableName() string {
	return "jobpack_structures"
}

// JobPackComponent 构件模式下选中的构件
type JobPackComponent struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	JobPackID   string `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID string `json:"structure_id" gorm:"size:32;not null"`
	ComponentID string `json:"component_id" gorm:"size:32;not null"`
}

func (JobPackComponent) TableName() string {
	return "jobpack_components"
}

// JobPackInspection 结构物分配的检验类型
type JobPackInspection struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	JobPackID      string `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID    string `json:"structure_id" gorm:"size:32;not null"`
	InspectionCode string `json:"inspection_code" gorm:"size:32;not null"`
}

func (JobPackInspection) TableName() string {
	return "jobpack_inspections"
}

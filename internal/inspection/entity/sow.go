package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ReportNumber SOW报告编号
type ReportNumber struct {
	Number        string `json:"number"`
	ContractorRef string `json:"contractor_ref,omitempty"`
	Date          string `json:"date"`
}

// ElevationSegment 分段高程检验范围
type ElevationSegment struct {
	Start       float64    `json:"start"`
	End         float64    `json:"end"`
	Status      string     `json:"status"`
	InspectedAt *time.Time `json:"inspected_at,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
}

// SOW 工作范围表头，每个 (jobpack, structure) 一条
type SOW struct {
	ID            string                            `json:"id" gorm:"primaryKey;size:32"`
	JobPackID     string                            `json:"jobpack_id" gorm:"size:32;not null;uniqueIndex:idx_sow_jobpack_structure"`
	StructureID   string                            `json:"structure_id" gorm:"size:32;not null;uniqueIndex:idx_sow_jobpack_structure"`
	StructureType string                            `json:"structure_type" gorm:"size:20"`
	ReportNumbers datatypes.JSONSlice[ReportNumber] `json:"report_numbers"`
	Metadata      datatypes.JSON                    `json:"metadata"`
	// TrackedComponents 已添加但可能尚无检验项的构件，按报告编号分组
	TrackedComponents datatypes.JSONType[map[string][]string] `json:"tracked_components"`
	Version           int                                     `json:"version" gorm:"not null;default:1"`
	CreatedBy         string                                  `json:"created_by" gorm:"size:64"`
	CreatedAt         time.Time                               `json:"created_at"`
	UpdatedAt         time.Time                               `json:"updated_at"`

	Items []SOWItem `json:"items,omitempty" gorm:"foreignKey:SOWID"`
}

func (SOW) TableName() string {
	return "sow_headers"
}

// SOWItem 工作范围检验项，一个 (report, component, inspection type) 一条
type SOWItem struct {
	ID                string                                `json:"id" gorm:"primaryKey;size:32"`
	SOWID             string                                `json:"sow_id" gorm:"size:32;not null;index"`
	ComponentID       string                                `json:"component_id" gorm:"size:32;not null"`
	InspectionTypeID  string                                `json:"inspection_type_id" gorm:"size:32;not null"`
	ReportNumber      string                                `json:"report_number" gorm:"size:64"`
	ElevationRequired bool                                  `json:"elevation_required" gorm:"default:false"`
	ElevationData     datatypes.JSONSlice[ElevationSegment] `json:"elevation_data"`
	Status            string                                `json:"status" gorm:"size:20;default:pending"`
	CreatedAt         time.Time                             `json:"created_at"`
	UpdatedAt         time.Time                             `json:"updated_at"`
}

func (SOWItem) TableName() string {
	return "sow_items"
}

// SOW检验项状态
const (
	SOWStatusPending    = "pending"
	SOWStatusInProgress = "in_progress"
	SOWStatusCompleted  = "completed"
)

package entity

import (
	"time"
)

// Anomaly 缺陷/异常记录
type Anomaly struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	JobPackID      string     `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID    string     `json:"structure_id" gorm:"size:32;not null"`
	SOWReportNo    string     `json:"sow_report_no" gorm:"size:64"`
	InspectionID   string     `json:"inspection_id" gorm:"size:32"`
	ComponentQID   string     `json:"component_qid" gorm:"size:64"`
	AnomalyRef     string     `json:"anomaly_ref" gorm:"size:64"`
	Description    string     `json:"description" gorm:"type:text"`
	Priority       string     `json:"priority" gorm:"size:32"`
	PriorityColor  string     `json:"priority_color" gorm:"size:7"`
	Recommendation string     `json:"recommendation" gorm:"type:text"`
	Status         string     `json:"status" gorm:"size:20;default:open"`
	Elevation      *float64   `json:"elevation"`
	InspectedAt    *time.Time `json:"inspected_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Anomaly) TableName() string {
	return "anomalies"
}

// DiveLog 潜水日志
type DiveLog struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	JobPackID      string     `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID    string     `json:"structure_id" gorm:"size:32;not null"`
	SOWReportNo    string     `json:"sow_report_no" gorm:"size:64"`
	DiverName      string     `json:"diver_name" gorm:"size:100"`
	DiveNo         string     `json:"dive_no" gorm:"size:32"`
	LeftSurface    *time.Time `json:"left_surface"`
	ReachedBottom  *time.Time `json:"reached_bottom"`
	LeftBottom     *time.Time `json:"left_bottom"`
	ReachedSurface *time.Time `json:"reached_surface"`
	MaxDepth       *float64   `json:"max_depth"`
	Task           string     `json:"task" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (DiveLog) TableName() string {
	return "dive_logs"
}

// VideoLog 录像日志
type VideoLog struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	JobPackID    string    `json:"jobpack_id" gorm:"size:32;not null;index"`
	StructureID  string    `json:"structure_id" gorm:"size:32;not null"`
	SOWReportNo  string    `json:"sow_report_no" gorm:"size:64"`
	InspectionID string    `json:"inspection_id" gorm:"size:32"`
	TapeNo       string    `json:"tape_no" gorm:"size:32"`
	ComponentQID string    `json:"component_qid" gorm:"size:64"`
	StartTC      string    `json:"start_tc" gorm:"size:16"`
	EndTC        string    `json:"end_tc" gorm:"size:16"`
	Description  string    `json:"description" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (VideoLog) TableName() string {
	return "video_logs"
}

// ReportFilter 报告查询条件
type ReportFilter struct {
	JobPackID    string `form:"jobpack_id" json:"jobpack_id"`
	StructureID  string `form:"structure_id" json:"structure_id"`
	SOWReportNo  string `form:"sow_report_no" json:"sow_report_no"`
	InspectionID string `form:"inspection_id" json:"inspection_id"`
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&Structure{},
		&Component{},
		&InspectionType{},
		&Contractor{},
		&JobPack{},
		&JobPackStructure{},
		&JobPackComponent{},
		&JobPackInspection{},
		&SOW{},
		&SOWItem{},
		&LibraryMaster{},
		&LibraryItem{},
		&LibraryCombo{},
		&Attachment{},
		&Anomaly{},
		&DiveLog{},
		&VideoLog{},
	}
}

package entity

import (
	"strings"
	"time"
)

// Structure 结构物（平台/管线）
type Structure struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Type      string    `json:"type" gorm:"size:20;not null"` // platform/pipeline
	Field     string    `json:"field" gorm:"size:100"`
	Status    string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Structure) TableName() string {
	return "structures"
}

// 结构物类型
const (
	StructureTypePlatform = "platform"
	StructureTypePipeline = "pipeline"
)

// Component 结构物构件
type Component struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	StructureID string    `json:"structure_id" gorm:"size:32;not null;index"`
	QID         string    `json:"qid" gorm:"size:64;not null"`
	Type        string    `json:"type" gorm:"size:50"`
	Elv1        *float64  `json:"elv_1"`
	Elv2        *float64  `json:"elv_2"`
	StartNode   string    `json:"start_node" gorm:"size:50"`
	EndNode     string    `json:"end_node" gorm:"size:50"`
	StartLeg    string    `json:"start_leg" gorm:"size:50"`
	EndLeg      string    `json:"end_leg" gorm:"size:50"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Component) TableName() string {
	return "structure_components"
}

// ElevationBounds 返回构件高程范围，elv_1/elv_2 顺序无关
func (c *Component) ElevationBounds() (min, max float64, ok bool) {
	if c.Elv1 == nil || c.Elv2 == nil {
		return 0, 0, false
	}
	min, max = *c.Elv1, *c.Elv2
	if min > max {
		min, max = max, min
	}
	return min, max, true
}

// InspectionType 检验类型
type InspectionType struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InspectionType) TableName() string {
	return "inspection_types"
}

// sowExcludedKeywords 不能纳入SOW的检验类型关键字（标定/日志/准备/汇总）
var sowExcludedKeywords = []string{"CALIBRATION", "SETUP", "SUMMARY"}

// sowExcludedTokens 需要整词匹配的短关键字
var sowExcludedTokens = []string{"CAL", "LOG"}

// IsSOWApplicable 判断检验类型是否可用于SOW矩阵
func (t *InspectionType) IsSOWApplicable() bool {
	code := strings.ToUpper(strings.TrimSpace(t.Code))
	if code == "" {
		return false
	}
	for _, kw := range sowExcludedKeywords {
		if strings.Contains(code, kw) {
			return false
		}
	}
	tokens := strings.FieldsFunc(code, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '/' || r == '.'
	})
	for _, tok := range tokens {
		for _, ex := range sowExcludedTokens {
			if tok == ex {
				return false
			}
		}
	}
	return true
}

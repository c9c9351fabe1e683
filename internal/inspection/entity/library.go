package entity

import (
	"time"
)

// LibraryMaster 主数据分类
type LibraryMaster struct {
	LibCode   string    `json:"lib_code" gorm:"primaryKey;size:32"`
	LibName   string    `json:"lib_name" gorm:"size:200;not null"`
	IsCombo   bool      `json:"is_combo" gorm:"default:false"`
	IsColor   bool      `json:"is_color" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LibraryMaster) TableName() string {
	return "library_masters"
}

// LibraryItem 主数据条目
type LibraryItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	LibCode   string    `json:"lib_code" gorm:"size:32;not null;index"`
	LibValue  string    `json:"lib_value" gorm:"size:100;not null"`
	LibDesc   string    `json:"lib_desc" gorm:"size:500"`
	ColorHex  string    `json:"color_hex" gorm:"size:7"`
	ColorR    *int      `json:"color_r"`
	ColorG    *int      `json:"color_g"`
	ColorB    *int      `json:"color_b"`
	ColorName string    `json:"color_name" gorm:"size:50"`
	LibDelete int       `json:"lib_delete" gorm:"default:0"` // 0 正常, 1 已删除
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LibraryItem) TableName() string {
	return "library_items"
}

// LibraryCombo 组合主数据（成对编码）
type LibraryCombo struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	LibCode   string    `json:"lib_code" gorm:"size:32;not null;index"`
	Code1     string    `json:"code_1" gorm:"size:100;not null"`
	Code2     string    `json:"code_2" gorm:"size:100;not null"`
	LibDesc   string    `json:"lib_desc" gorm:"size:500"`
	LibDelete int       `json:"lib_delete" gorm:"default:0"`
	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LibraryCombo) TableName() string {
	return "library_combos"
}

// 软删除标记
const (
	LibActive  = 0
	LibDeleted = 1
)

// LibCodePriority 缺陷优先级主数据编码，条目颜色用于报告着色
const LibCodePriority = "PRIORITY"

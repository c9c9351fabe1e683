// Package sow 实现SOW矩阵编辑器：报告×构件×检验类型×高程范围的选择状态、
// 报告范围复制、高程分段和保存时与已持久化检验项的对账。
package sow

import (
	"fmt"
	"sort"
)

// NullReport 未关联报告编号的检验项使用的报告键
const NullReport = "null"

// Scope 检验范围：整根构件或一个高程区间
type Scope struct {
	Split bool    `json:"split"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Whole 整根构件范围
func Whole() Scope {
	return Scope{}
}

// Range 高程区间范围，Start 总是取较高的一端
func Range(a, b float64) Scope {
	if a < b {
		a, b = b, a
	}
	return Scope{Split: true, Start: a, End: b}
}

// ScopeFromWire 将线上的 (start, end) 转换为范围，(0,0) 表示整根构件
func ScopeFromWire(start, end float64) Scope {
	if start == 0 && end == 0 {
		return Whole()
	}
	return Range(start, end)
}

// IsWhole 是否为整根构件
func (s Scope) IsWhole() bool {
	return !s.Split
}

// Wire 返回线上表示，整根构件为 (0,0)
func (s Scope) Wire() (float64, float64) {
	if !s.Split {
		return 0, 0
	}
	return s.Start, s.End
}

func (s Scope) String() string {
	if !s.Split {
		return "whole"
	}
	return fmt.Sprintf("%g..%g", s.Start, s.End)
}

// Triple 报告+构件+检验类型
type Triple struct {
	Report           string
	ComponentID      string
	InspectionTypeID string
}

// Key 选择项的复合标识
type Key struct {
	Triple
	Scope Scope
}

// NewKey 构造选择项
func NewKey(report, componentID, inspectionTypeID string, scope Scope) Key {
	return Key{
		Triple: Triple{Report: report, ComponentID: componentID, InspectionTypeID: inspectionTypeID},
		Scope:  scope,
	}
}

// WithReport 复制选择项并替换报告编号
func (k Key) WithReport(report string) Key {
	k.Report = report
	return k
}

// WireKey 选择项的JSON表示
type WireKey struct {
	ReportNumber     string  `json:"report_number"`
	ComponentID      string  `json:"component_id"`
	InspectionTypeID string  `json:"inspection_type_id"`
	ElevationStart   float64 `json:"elevation_start"`
	ElevationEnd     float64 `json:"elevation_end"`
}

// ToWire 转换为JSON表示
func (k Key) ToWire() WireKey {
	start, end := k.Scope.Wire()
	return WireKey{
		ReportNumber:     k.Report,
		ComponentID:      k.ComponentID,
		InspectionTypeID: k.InspectionTypeID,
		ElevationStart:   start,
		ElevationEnd:     end,
	}
}

// Key 从JSON表示还原
func (w WireKey) Key() Key {
	return NewKey(w.ReportNumber, w.ComponentID, w.InspectionTypeID, ScopeFromWire(w.ElevationStart, w.ElevationEnd))
}

// sortKeys 按报告、构件、检验类型、高程从高到低排序
func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Report != b.Report {
			return a.Report < b.Report
		}
		if a.ComponentID != b.ComponentID {
			return a.ComponentID < b.ComponentID
		}
		if a.InspectionTypeID != b.InspectionTypeID {
			return a.InspectionTypeID < b.InspectionTypeID
		}
		if a.Scope.Split != b.Scope.Split {
			return !a.Scope.Split
		}
		return a.Scope.Start > b.Scope.Start
	})
}

package sow

import (
	"fmt"
	"sort"
)

// AddBreakpoint 为构件添加高程分段点。分段点必须严格位于构件高程范围内，重复值忽略。
func (e *Editor) AddBreakpoint(componentID string, elevation float64) error {
	sp, ok := e.spans[componentID]
	if !ok {
		return fmt.Errorf("%s: %w", componentID, ErrUnknownComponent)
	}
	if !sp.ok {
		return fmt.Errorf("%s: %w", componentID, ErrNoElevation)
	}
	if elevation <= sp.min || elevation >= sp.max {
		return fmt.Errorf("%g not within (%g, %g): %w", elevation, sp.min, sp.max, ErrElevationOutOfBounds)
	}
	e.insertBreakpoint(componentID, elevation)
	return nil
}

// insertBreakpoint 插入有序集合，只接受严格位于范围内的值
func (e *Editor) insertBreakpoint(componentID string, elevation float64) {
	sp, ok := e.spans[componentID]
	if !ok || !sp.ok || elevation <= sp.min || elevation >= sp.max {
		return
	}
	bps := e.breakpoints[componentID]
	i := sort.SearchFloat64s(bps, elevation)
	if i < len(bps) && bps[i] == elevation {
		return
	}
	bps = append(bps, 0)
	copy(bps[i+1:], bps[i:])
	bps[i] = elevation
	e.breakpoints[componentID] = bps
}

// RemoveBreakpoint 删除分段点，以该点为端点的分段选择一并清除
func (e *Editor) RemoveBreakpoint(componentID string, elevation float64) {
	bps := e.breakpoints[componentID]
	i := sort.SearchFloat64s(bps, elevation)
	if i >= len(bps) || bps[i] != elevation {
		return
	}
	e.breakpoints[componentID] = append(bps[:i], bps[i+1:]...)
	for k := range e.selected {
		if k.ComponentID == componentID && k.Scope.Split &&
			(k.Scope.Start == elevation || k.Scope.End == elevation) {
			delete(e.selected, k)
		}
	}
}

// Breakpoints 返回构件的分段点（升序）
func (e *Editor) Breakpoints(componentID string) []float64 {
	bps := e.breakpoints[componentID]
	out := make([]float64, len(bps))
	copy(out, bps)
	return out
}

// SetSplit 开关构件的高程分段；关闭时清除该构件所有分段选择
func (e *Editor) SetSplit(componentID string, on bool) error {
	sp, ok := e.spans[componentID]
	if !ok {
		return fmt.Errorf("%s: %w", componentID, ErrUnknownComponent)
	}
	if on && !sp.ok {
		return fmt.Errorf("%s: %w", componentID, ErrNoElevation)
	}
	if on {
		e.split[componentID] = true
		return nil
	}
	delete(e.split, componentID)
	for k := range e.selected {
		if k.ComponentID == componentID && k.Scope.Split {
			delete(e.selected, k)
		}
	}
	return nil
}

// IsSplit 构件是否按高程分段
func (e *Editor) IsSplit(componentID string) bool {
	return e.split[componentID]
}

// Ranges 返回构件的显示分段：[min, b1..bn, max] 反转后相邻两点成段，最上面一段在前
func (e *Editor) Ranges(componentID string) []Scope {
	sp, ok := e.spans[componentID]
	if !ok || !sp.ok {
		return nil
	}
	return DeriveRanges(sp.min, sp.max, e.breakpoints[componentID])
}

// DeriveRanges 根据构件范围和分段点计算显示分段。范围外和重复的分段点被忽略。
func DeriveRanges(min, max float64, breakpoints []float64) []Scope {
	if min > max {
		min, max = max, min
	}
	inner := make([]float64, 0, len(breakpoints))
	for _, b := range breakpoints {
		if b > min && b < max {
			inner = append(inner, b)
		}
	}
	sort.Float64s(inner)

	points := make([]float64, 0, len(inner)+2)
	points = append(points, max)
	for i := len(inner) - 1; i >= 0; i-- {
		if inner[i] == points[len(points)-1] {
			continue
		}
		points = append(points, inner[i])
	}
	points = append(points, min)

	ranges := make([]Scope, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		if points[i] == points[i+1] {
			continue
		}
		ranges = append(ranges, Range(points[i], points[i+1]))
	}
	return ranges
}

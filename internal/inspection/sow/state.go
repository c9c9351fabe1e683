package sow

import (
	"fmt"

	"github.com/bitfantasy/aims/internal/inspection/entity"
)

// State 编辑器状态的JSON表示，与看板使用的字段一致
type State struct {
	ReportNumbers    []entity.ReportNumber `json:"report_numbers"`
	SelectedItems    []WireKey             `json:"selected_items"`
	ComponentsMap    map[string][]string   `json:"selected_components_map"`
	Breakpoints      map[string][]float64  `json:"component_breakpoints"`
	SplitByElevation map[string]bool       `json:"component_split_by_elevation"`
	PendingReport    *entity.ReportNumber  `json:"pending_report,omitempty"`
}

// Snapshot 导出当前状态
func (e *Editor) Snapshot() State {
	st := State{
		ReportNumbers:    e.ReportNumbers(),
		SelectedItems:    make([]WireKey, 0, len(e.selected)),
		ComponentsMap:    e.TrackedComponents(),
		Breakpoints:      make(map[string][]float64, len(e.breakpoints)),
		SplitByElevation: make(map[string]bool, len(e.split)),
		PendingReport:    e.Pending(),
	}
	for _, k := range e.Keys() {
		st.SelectedItems = append(st.SelectedItems, k.ToWire())
	}
	for id, bps := range e.breakpoints {
		if len(bps) > 0 {
			st.Breakpoints[id] = e.Breakpoints(id)
		}
	}
	for id, on := range e.split {
		if on {
			st.SplitByElevation[id] = true
		}
	}
	return st
}

// Restore 按提交的状态重建编辑器并校验全部约束。existing 提供已持久化状态，
// 用于复制范围时识别已完成项。
func Restore(st State, components []entity.Component, existing []entity.SOWItem) (*Editor, error) {
	e := NewEditor(components)
	for _, rn := range st.ReportNumbers {
		res, err := e.AddReportNumber(rn)
		if err != nil {
			return nil, err
		}
		if res == CopyDecisionRequired {
			if err := e.ResolvePendingReport(CopyEmpty, ""); err != nil {
				return nil, err
			}
		}
	}
	if st.PendingReport != nil {
		if _, err := e.AddReportNumber(*st.PendingReport); err != nil {
			return nil, err
		}
	}

	for id, bps := range st.Breakpoints {
		for _, b := range bps {
			if err := e.AddBreakpoint(id, b); err != nil {
				return nil, err
			}
		}
	}
	for id, on := range st.SplitByElevation {
		if !on {
			continue
		}
		if err := e.SetSplit(id, true); err != nil {
			return nil, err
		}
	}

	for report, ids := range st.ComponentsMap {
		if report == NullReport {
			e.ensureReport(NullReport)
		}
		for _, id := range ids {
			if err := e.AddComponent(report, id); err != nil {
				return nil, err
			}
		}
	}

	for _, w := range st.SelectedItems {
		k := w.Key()
		if k.Report == NullReport {
			e.ensureReport(NullReport)
		}
		if err := e.selectKey(k); err != nil {
			return nil, err
		}
	}

	for i := range existing {
		item := &existing[i]
		t := itemTriple(item)
		if !item.ElevationRequired || len(item.ElevationData) == 0 {
			e.statuses[Key{Triple: t, Scope: Whole()}] = item.Status
			continue
		}
		for _, seg := range item.ElevationData {
			e.statuses[Key{Triple: t, Scope: Range(seg.Start, seg.End)}] = seg.Status
		}
	}
	return e, nil
}

// selectKey 直接选中（不做切换），整根构件与分段同时出现时报错
func (e *Editor) selectKey(k Key) error {
	if !e.hasReport(k.Report) {
		return fmt.Errorf("%s: %w", k.Report, ErrUnknownReport)
	}
	if err := e.checkScope(k.ComponentID, k.Scope); err != nil {
		return err
	}
	for other := range e.selected {
		if other.Triple == k.Triple && other.Scope.IsWhole() != k.Scope.IsWhole() {
			return fmt.Errorf("%s/%s/%s: %w", k.Report, k.ComponentID, k.InspectionTypeID, ErrConflictingScope)
		}
	}
	e.selected[k] = struct{}{}
	e.track(k.Report, k.ComponentID)
	return nil
}

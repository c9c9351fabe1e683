package sow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitfantasy/aims/internal/inspection/entity"
)

// span 构件高程范围
type span struct {
	min, max float64
	ok       bool
}

// Editor SOW矩阵编辑状态。零值不可用，使用 NewEditor 创建。
type Editor struct {
	spans map[string]span

	reports       []entity.ReportNumber
	componentsMap map[string]map[string]struct{}
	selected      map[Key]struct{}
	breakpoints   map[string][]float64
	split         map[string]bool

	// statuses 已持久化的检验项/分段状态，复制范围时用于排除已完成项
	statuses map[Key]string

	pending *entity.ReportNumber
}

// NewEditor 以结构物的构件列表创建空编辑器
func NewEditor(components []entity.Component) *Editor {
	e := &Editor{
		spans:         make(map[string]span, len(components)),
		componentsMap: make(map[string]map[string]struct{}),
		selected:      make(map[Key]struct{}),
		breakpoints:   make(map[string][]float64),
		split:         make(map[string]bool),
		statuses:      make(map[Key]string),
	}
	for i := range components {
		c := &components[i]
		min, max, ok := c.ElevationBounds()
		e.spans[c.ID] = span{min: min, max: max, ok: ok}
	}
	return e
}

// Load 从SOW表头和检验项重建编辑状态，表头中已不存在的报告编号下的记录被忽略
func Load(header *entity.SOW, components []entity.Component) *Editor {
	e := NewEditor(components)
	if header == nil {
		return e
	}
	for _, rn := range header.ReportNumbers {
		e.reports = append(e.reports, rn)
		e.ensureReport(rn.Number)
	}
	for report, ids := range header.TrackedComponents.Data() {
		if report != NullReport && e.reportIndex(report) < 0 {
			continue
		}
		for _, id := range ids {
			e.track(report, id)
		}
	}
	for i := range header.Items {
		item := &header.Items[i]
		report := item.ReportNumber
		if report == "" {
			report = NullReport
		} else if e.reportIndex(report) < 0 {
			continue
		}
		e.track(report, item.ComponentID)

		if !item.ElevationRequired || len(item.ElevationData) == 0 {
			k := NewKey(report, item.ComponentID, item.InspectionTypeID, Whole())
			e.selected[k] = struct{}{}
			e.statuses[k] = item.Status
			continue
		}

		e.split[item.ComponentID] = true
		for _, seg := range item.ElevationData {
			k := NewKey(report, item.ComponentID, item.InspectionTypeID, Range(seg.Start, seg.End))
			e.selected[k] = struct{}{}
			e.statuses[k] = seg.Status
			e.insertBreakpoint(item.ComponentID, seg.Start)
			e.insertBreakpoint(item.ComponentID, seg.End)
		}
	}
	return e
}

func (e *Editor) ensureReport(report string) {
	if _, ok := e.componentsMap[report]; !ok {
		e.componentsMap[report] = make(map[string]struct{})
	}
}

func (e *Editor) track(report, componentID string) {
	e.ensureReport(report)
	e.componentsMap[report][componentID] = struct{}{}
}

func (e *Editor) hasReport(report string) bool {
	if report == NullReport {
		_, ok := e.componentsMap[NullReport]
		return ok
	}
	return e.reportIndex(report) >= 0
}

func (e *Editor) reportIndex(number string) int {
	for i, rn := range e.reports {
		if rn.Number == number {
			return i
		}
	}
	return -1
}

// ReportNumbers 返回报告编号（按添加顺序）
func (e *Editor) ReportNumbers() []entity.ReportNumber {
	out := make([]entity.ReportNumber, len(e.reports))
	copy(out, e.reports)
	return out
}

// Pending 返回等待复制决策的报告编号
func (e *Editor) Pending() *entity.ReportNumber {
	if e.pending == nil {
		return nil
	}
	rn := *e.pending
	return &rn
}

// AddResult 添加报告编号的结果
type AddResult int

const (
	// ReportAdded 报告已直接添加
	ReportAdded AddResult = iota
	// CopyDecisionRequired 已存在其它报告，需要选择复制方式
	CopyDecisionRequired
)

// AddReportNumber 添加报告编号。第一个报告直接添加；已有报告时进入待决策状态。
func (e *Editor) AddReportNumber(rn entity.ReportNumber) (AddResult, error) {
	rn.Number = strings.TrimSpace(rn.Number)
	if rn.Number == "" {
		return ReportAdded, ErrEmptyReportNumber
	}
	if rn.Number == NullReport {
		return ReportAdded, fmt.Errorf("%q is reserved: %w", NullReport, ErrDuplicateReportNumber)
	}
	if e.reportIndex(rn.Number) >= 0 {
		return ReportAdded, fmt.Errorf("%s: %w", rn.Number, ErrDuplicateReportNumber)
	}
	if e.pending != nil {
		return ReportAdded, ErrCopyDecisionPending
	}
	if len(e.reports) == 0 {
		e.reports = append(e.reports, rn)
		e.ensureReport(rn.Number)
		return ReportAdded, nil
	}
	e.pending = &rn
	return CopyDecisionRequired, nil
}

// RemoveReportNumber 移除报告编号并清除其全部选择
func (e *Editor) RemoveReportNumber(number string) error {
	idx := e.reportIndex(number)
	if idx < 0 {
		return fmt.Errorf("%s: %w", number, ErrUnknownReport)
	}
	e.reports = append(e.reports[:idx], e.reports[idx+1:]...)
	delete(e.componentsMap, number)
	for k := range e.selected {
		if k.Report == number {
			delete(e.selected, k)
		}
	}
	return nil
}

// AddComponent 将构件加入报告（可以没有检验项）
func (e *Editor) AddComponent(report, componentID string) error {
	if !e.hasReport(report) {
		return fmt.Errorf("%s: %w", report, ErrUnknownReport)
	}
	if _, ok := e.spans[componentID]; !ok {
		return fmt.Errorf("%s: %w", componentID, ErrUnknownComponent)
	}
	e.track(report, componentID)
	return nil
}

// RemoveComponent 从报告中移除构件及其全部选择
func (e *Editor) RemoveComponent(report, componentID string) {
	if set, ok := e.componentsMap[report]; ok {
		delete(set, componentID)
	}
	for k := range e.selected {
		if k.Report == report && k.ComponentID == componentID {
			delete(e.selected, k)
		}
	}
}

// ComponentIDs 返回报告下已添加的构件
func (e *Editor) ComponentIDs(report string) []string {
	set := e.componentsMap[report]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle 切换选择项。选中整根构件会清除同一组合的全部分段，选中分段会清除整根构件；
// 取消选择不做级联。返回切换后的选中状态。
func (e *Editor) Toggle(report, componentID, inspectionTypeID string, scope Scope) (bool, error) {
	if !e.hasReport(report) {
		return false, fmt.Errorf("%s: %w", report, ErrUnknownReport)
	}
	if err := e.checkScope(componentID, scope); err != nil {
		return false, err
	}

	k := NewKey(report, componentID, inspectionTypeID, scope)
	if _, ok := e.selected[k]; ok {
		delete(e.selected, k)
		return false, nil
	}

	if scope.IsWhole() {
		for other := range e.selected {
			if other.Triple == k.Triple {
				delete(e.selected, other)
			}
		}
	} else {
		delete(e.selected, NewKey(report, componentID, inspectionTypeID, Whole()))
	}
	e.selected[k] = struct{}{}
	e.track(report, componentID)
	return true, nil
}

// IsSelected 判断选择项是否选中
func (e *Editor) IsSelected(report, componentID, inspectionTypeID string, scope Scope) bool {
	_, ok := e.selected[NewKey(report, componentID, inspectionTypeID, scope)]
	return ok
}

// Keys 返回全部选中项（稳定排序）
func (e *Editor) Keys() []Key {
	out := make([]Key, 0, len(e.selected))
	for k := range e.selected {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

// Status 返回选择项对应的已持久化状态
func (e *Editor) Status(k Key) string {
	return e.statuses[k]
}

func (e *Editor) checkScope(componentID string, scope Scope) error {
	sp, ok := e.spans[componentID]
	if !ok {
		return fmt.Errorf("%s: %w", componentID, ErrUnknownComponent)
	}
	if scope.IsWhole() {
		return nil
	}
	if !sp.ok {
		return fmt.Errorf("%s: %w", componentID, ErrNoElevation)
	}
	if scope.Start == scope.End || scope.End < sp.min || scope.Start > sp.max {
		return fmt.Errorf("%s [%g, %g] outside [%g, %g]: %w",
			componentID, scope.Start, scope.End, sp.min, sp.max, ErrRangeOutOfBounds)
	}
	return nil
}

package sow

import (
	"fmt"

	"github.com/bitfantasy/aims/internal/inspection/entity"
)

// CopyMode 新报告的范围复制方式
type CopyMode string

const (
	CopyEmpty   CopyMode = "empty"
	CopyAll     CopyMode = "copy_all"
	CopyPending CopyMode = "copy_pending"
)

// Valid 判断复制方式是否合法
func (m CopyMode) Valid() bool {
	switch m {
	case CopyEmpty, CopyAll, CopyPending:
		return true
	}
	return false
}

// ResolvePendingReport 按复制方式插入待决策的报告。copy_pending 不复制状态为
// completed 的检验项或分段。
func (e *Editor) ResolvePendingReport(mode CopyMode, source string) error {
	if e.pending == nil {
		return ErrNoPendingReport
	}
	if !mode.Valid() {
		return fmt.Errorf("%q: %w", mode, ErrInvalidCopyMode)
	}
	if mode != CopyEmpty && !e.hasReport(source) {
		return fmt.Errorf("copy source %s: %w", source, ErrUnknownReport)
	}

	target := *e.pending
	e.pending = nil
	e.reports = append(e.reports, target)
	e.ensureReport(target.Number)

	if mode == CopyEmpty {
		return nil
	}
	e.copyScope(source, target.Number, mode)
	return nil
}

// CancelPendingReport 放弃待决策的报告
func (e *Editor) CancelPendingReport() {
	e.pending = nil
}

func (e *Editor) copyScope(source, target string, mode CopyMode) {
	var toAdd []Key
	copied := make(map[string]bool)
	withKeys := make(map[string]bool)
	for k := range e.selected {
		if k.Report != source {
			continue
		}
		withKeys[k.ComponentID] = true
		if mode == CopyPending && e.statuses[k] == entity.SOWStatusCompleted {
			continue
		}
		toAdd = append(toAdd, k.WithReport(target))
		copied[k.ComponentID] = true
	}
	for _, k := range toAdd {
		e.selected[k] = struct{}{}
	}

	// 有选择项但全部已完成的构件在 copy_pending 下不再跟踪
	for id := range e.componentsMap[source] {
		if mode == CopyPending && withKeys[id] && !copied[id] {
			continue
		}
		e.track(target, id)
	}
}

// Package jobpack 工作包创建向导：General → Mode → Selection → Inspection → Submit。
// 每一步只校验本步必填项，后退不清除后续步骤已填写的内容。
package jobpack

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStepInvalid      = errors.New("wizard step invalid")
	ErrLastStep         = errors.New("wizard already at submit step")
	ErrUnknownStructure = errors.New("structure not selected")
	ErrNothingToApply   = errors.New("structure has no inspection types to apply")
)

// Step 向导步骤
type Step int

const (
	StepGeneral Step = iota
	StepMode
	StepSelection
	StepInspection
	StepSubmit
)

func (s Step) String() string {
	switch s {
	case StepGeneral:
		return "general"
	case StepMode:
		return "mode"
	case StepSelection:
		return "selection"
	case StepInspection:
		return "inspection"
	case StepSubmit:
		return "submit"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Mode 工作包范围模式
type Mode string

const (
	ModeStructure Mode = "structure"
	ModeComponent Mode = "component"
)

// General 基本信息
type General struct {
	Name         string     `json:"name"`
	ContractorID string     `json:"contractor_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
}

// Wizard 向导状态
type Wizard struct {
	step Step

	General     General
	Mode        Mode
	structures  []string
	components  map[string][]string
	inspections map[string][]string
}

func New() *Wizard {
	return &Wizard{
		components:  make(map[string][]string),
		inspections: make(map[string][]string),
	}
}

// Step 当前步骤
func (w *Wizard) Step() Step {
	return w.step
}

// Next 校验当前步骤并前进
func (w *Wizard) Next() error {
	if w.step == StepSubmit {
		return ErrLastStep
	}
	if err := w.Validate(w.step); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back 回到上一步，保留全部已填写内容
func (w *Wizard) Back() {
	if w.step > StepGeneral {
		w.step--
	}
}

// SelectStructure 选中结构物（保持选择顺序，重复选择忽略）
func (w *Wizard) SelectStructure(id string) {
	for _, s := range w.structures {
		if s == id {
			return
		}
	}
	w.structures = append(w.structures, id)
}

// DeselectStructure 取消选中结构物及其构件和检验类型
func (w *Wizard) DeselectStructure(id string) {
	for i, s := range w.structures {
		if s == id {
			w.structures = append(w.structures[:i], w.structures[i+1:]...)
			break
		}
	}
	delete(w.components, id)
	delete(w.inspections, id)
}

// Structures 已选结构物
func (w *Wizard) Structures() []string {
	out := make([]string, len(w.structures))
	copy(out, w.structures)
	return out
}

func (w *Wizard) selected(id string) bool {
	for _, s := range w.structures {
		if s == id {
			return true
		}
	}
	return false
}

// SetComponents 设置结构物下选中的构件（构件模式）
func (w *Wizard) SetComponents(structureID string, componentIDs []string) error {
	if !w.selected(structureID) {
		return fmt.Errorf("%s: %w", structureID, ErrUnknownStructure)
	}
	w.components[structureID] = dedupe(componentIDs)
	return nil
}

// Components 结构物下选中的构件
func (w *Wizard) Components(structureID string) []string {
	return append([]string(nil), w.components[structureID]...)
}

// SetInspections 设置结构物的检验类型编码
func (w *Wizard) SetInspections(structureID string, codes []string) error {
	if !w.selected(structureID) {
		return fmt.Errorf("%s: %w", structureID, ErrUnknownStructure)
	}
	w.inspections[structureID] = dedupe(codes)
	return nil
}

// Inspections 结构物的检验类型编码
func (w *Wizard) Inspections(structureID string) []string {
	return append([]string(nil), w.inspections[structureID]...)
}

// ApplyToAll 将指定结构物的检验类型覆盖到全部已选结构物
func (w *Wizard) ApplyToAll(structureID string) error {
	if !w.selected(structureID) {
		return fmt.Errorf("%s: %w", structureID, ErrUnknownStructure)
	}
	src := w.inspections[structureID]
	if len(src) == 0 {
		return fmt.Errorf("%s: %w", structureID, ErrNothingToApply)
	}
	for _, id := range w.structures {
		w.inspections[id] = append([]string(nil), src...)
	}
	return nil
}

func invalid(step Step, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s: %w", step, fmt.Sprintf(format, args...), ErrStepInvalid)
}

// Validate 校验单个步骤的必填项
func (w *Wizard) Validate(step Step) error {
	switch step {
	case StepGeneral:
		if strings.TrimSpace(w.General.Name) == "" {
			return invalid(step, "name is required")
		}
		if strings.TrimSpace(w.General.ContractorID) == "" {
			return invalid(step, "contractor is required")
		}
		if w.General.StartDate.IsZero() {
			return invalid(step, "start date is required")
		}
		if w.General.EndDate != nil && w.General.EndDate.Before(w.General.StartDate) {
			return invalid(step, "end date is before start date")
		}
	case StepMode:
		if w.Mode != ModeStructure && w.Mode != ModeComponent {
			return invalid(step, "mode must be %q or %q", ModeStructure, ModeComponent)
		}
	case StepSelection:
		if len(w.structures) == 0 {
			return invalid(step, "at least one structure is required")
		}
		if w.Mode == ModeComponent {
			for _, id := range w.structures {
				if len(w.components[id]) == 0 {
					return invalid(step, "structure %s has no components selected", id)
				}
			}
		}
	case StepInspection:
		for _, id := range w.structures {
			if len(w.inspections[id]) == 0 {
				return invalid(step, "structure %s has no inspection types", id)
			}
		}
	}
	return nil
}

// Request 全部步骤校验通过后生成创建请求
func (w *Wizard) Request() (*CreateRequest, error) {
	for s := StepGeneral; s < StepSubmit; s++ {
		if err := w.Validate(s); err != nil {
			return nil, err
		}
	}
	req := &CreateRequest{
		Name:         strings.TrimSpace(w.General.Name),
		ContractorID: w.General.ContractorID,
		Mode:         w.Mode,
		StartDate:    w.General.StartDate,
		EndDate:      w.General.EndDate,
		Remarks:      w.General.Remarks,
	}
	for _, id := range w.structures {
		sel := StructureSelection{
			StructureID:     id,
			InspectionCodes: append([]string(nil), w.inspections[id]...),
		}
		if w.Mode == ModeComponent {
			sel.ComponentIDs = append([]string(nil), w.components[id]...)
		}
		req.Structures = append(req.Structures, sel)
	}
	return req, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

package jobpack

import (
	"time"
)

// StructureSelection 单个结构物的范围
type StructureSelection struct {
	StructureID     string   `json:"structure_id"`
	ComponentIDs    []string `json:"component_ids,omitempty"`
	InspectionCodes []string `json:"inspection_codes"`
}

// CreateRequest 创建工作包请求
type CreateRequest struct {
	Name         string               `json:"name"`
	ContractorID string               `json:"contractor_id"`
	Mode         Mode                 `json:"mode"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
	Remarks      string               `json:"remarks,omitempty"`
	Structures   []StructureSelection `json:"structures"`
}

// FromRequest 用提交的请求重建向导，服务端据此重新校验全部步骤
func FromRequest(req *CreateRequest) *Wizard {
	w := New()
	w.General = General{
		Name:         req.Name,
		ContractorID: req.ContractorID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Remarks:      req.Remarks,
	}
	w.Mode = req.Mode
	for _, s := range req.Structures {
		if s.StructureID == "" {
			continue
		}
		w.SelectStructure(s.StructureID)
		w.components[s.StructureID] = dedupe(s.ComponentIDs)
		w.inspections[s.StructureID] = dedupe(s.InspectionCodes)
	}
	w.step = StepSubmit
	return w
}

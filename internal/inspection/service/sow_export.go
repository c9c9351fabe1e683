package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/xuri/excelize/v2"
)

var sowExportHeaders = []string{"报告编号", "构件", "构件类型", "检验类型", "高程起", "高程止", "状态"}

// ExportExcel 导出SOW矩阵，每个检验项（分段项每段）一行
func (s *SOWService) ExportExcel(ctx context.Context, jobPackID, structureID string) (*excelize.File, string, error) {
	jp, err := s.jobPackRepo.FindByID(ctx, jobPackID)
	if err != nil {
		return nil, "", fmt.Errorf("jobpack %s: %w", jobPackID, err)
	}
	structure, err := s.structureRepo.FindStructure(ctx, structureID)
	if err != nil {
		return nil, "", fmt.Errorf("structure %s: %w", structureID, err)
	}
	components, err := s.structureRepo.ListComponents(ctx, structureID)
	if err != nil {
		return nil, "", err
	}
	types, err := s.structureRepo.ListInspectionTypes(ctx)
	if err != nil {
		return nil, "", err
	}
	view := s.Get(ctx, jobPackID, structureID)

	compByID := make(map[string]entity.Component, len(components))
	for _, c := range components {
		compByID[c.ID] = c
	}
	typeByID := make(map[string]entity.InspectionType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	f := excelize.NewFile()
	sheet := "SOW"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	for i, h := range sowExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, item := range view.Items {
		comp := compByID[item.ComponentID]
		typeCode := typeByID[item.InspectionTypeID].Code
		if typeCode == "" {
			typeCode = item.InspectionTypeID
		}
		report := item.ReportNumber
		if report == "" {
			report = "-"
		}
		if !item.ElevationRequired || len(item.ElevationData) == 0 {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), report)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), comp.QID)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), comp.Type)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), typeCode)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Status)
			row++
			continue
		}
		for _, seg := range item.ElevationData {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), report)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), comp.QID)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), comp.Type)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), typeCode)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), seg.Start)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), seg.End)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), seg.Status)
			row++
		}
	}

	for i, w := range []float64{18, 24, 14, 14, 10, 10, 12} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("%s_%s_SOW.xlsx", jp.JobPackNo, strings.ReplaceAll(structure.Name, " ", "_"))
	return f, filename, nil
}

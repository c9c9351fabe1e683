package handler

import (
	"fmt"
	"strconv"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/report"
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 报告处理器
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func bindReport(c *gin.Context) (report.Type, entity.ReportFilter, bool) {
	var f entity.ReportFilter
	t, err := report.ParseType(c.Param("type"))
	if err != nil {
		NotFound(c, "报告类型不存在: "+c.Param("type"))
		return "", f, false
	}
	if err := c.ShouldBindQuery(&f); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return "", f, false
	}
	return t, f, true
}

// Rows 报告数据
// GET /api/reports/:type?jobpack_id=xxx&structure_id=xxx&sow_report_no=xxx&inspection_id=xxx
func (h *ReportHandler) Rows(c *gin.Context) {
	t, f, ok := bindReport(c)
	if !ok {
		return
	}
	rows, err := h.svc.Rows(c.Request.Context(), t, f)
	if err != nil {
		respondError(c, err, "获取报告数据失败")
		return
	}
	Success(c, gin.H{"type": t, "items": rows})
}

// PDF 生成PDF，download=false 时内联返回
// GET /api/reports/:type/pdf
func (h *ReportHandler) PDF(c *gin.Context) {
	t, f, ok := bindReport(c)
	if !ok {
		return
	}
	res, err := h.svc.Generate(c.Request.Context(), t, f)
	if err != nil {
		respondError(c, err, "生成报告失败")
		return
	}

	disposition := "attachment"
	if !queryBool(c, "download", true) {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, res.Filename))
	c.Header("X-Report-Pages", strconv.Itoa(res.Pages))
	c.Data(200, "application/pdf", res.Data)
}

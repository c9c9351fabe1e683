package handler

import (
	"strconv"
	"strings"

	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SOWHandler 工作范围处理器
type SOWHandler struct {
	svc    *service.SOWService
	logger *zap.Logger
}

func NewSOWHandler(svc *service.SOWService, logger *zap.Logger) *SOWHandler {
	return &SOWHandler{svc: svc, logger: logger}
}

func scopeQuery(c *gin.Context) (jobPackID, structureID string, ok bool) {
	jobPackID, structureID = c.Query("jobpack_id"), c.Query("structure_id")
	if jobPackID == "" || structureID == "" {
		BadRequest(c, "jobpack_id 和 structure_id 不能为空")
		return "", "", false
	}
	return jobPackID, structureID, true
}

// Get 加载SOW及编辑器状态，读取失败时返回空状态
// GET /api/sow?jobpack_id=xxx&structure_id=xxx
func (h *SOWHandler) Get(c *gin.Context) {
	jobPackID, structureID, ok := scopeQuery(c)
	if !ok {
		return
	}
	Success(c, h.svc.Get(c.Request.Context(), jobPackID, structureID))
}

// SaveHeader 创建或更新表头
// POST /api/sow
func (h *SOWHandler) SaveHeader(c *gin.Context) {
	var req service.SaveHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	header, err := h.svc.SaveHeader(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "保存SOW表头失败")
		return
	}
	Success(c, header)
}

// UpsertItem 写入单个检验项
// POST /api/sow/items
func (h *SOWHandler) UpsertItem(c *gin.Context) {
	var req service.UpsertItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc.UpsertItem(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "保存检验项失败")
		return
	}
	Success(c, item)
}

// DeleteItem 删除检验项
// DELETE /api/sow/items?id=xxx
func (h *SOWHandler) DeleteItem(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		BadRequest(c, "id 不能为空")
		return
	}
	if err := h.svc.DeleteItem(c.Request.Context(), id); err != nil {
		respondError(c, err, "删除检验项失败")
		return
	}
	Success(c, gin.H{"id": id})
}

// SaveMatrix 保存整个矩阵
// PUT /api/sow/matrix
func (h *SOWHandler) SaveMatrix(c *gin.Context) {
	var req service.SaveMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.SaveMatrix(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "保存SOW失败")
		return
	}
	Success(c, view)
}

// AddReport 添加报告编号
// POST /api/sow/reports
func (h *SOWHandler) AddReport(c *gin.Context) {
	var req service.AddReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.AddReport(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "添加报告编号失败")
		return
	}
	Success(c, view)
}

// Toggle 切换单个选择项并保存
// POST /api/sow/toggle
func (h *SOWHandler) Toggle(c *gin.Context) {
	var req service.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.Toggle(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "切换选择项失败")
		return
	}
	Success(c, view)
}

// RemoveReport 删除报告编号及其检验项
// DELETE /api/sow/reports/:number?jobpack_id=xxx&structure_id=xxx&version=n
func (h *SOWHandler) RemoveReport(c *gin.Context) {
	jobPackID, structureID, ok := scopeQuery(c)
	if !ok {
		return
	}
	version, _ := strconv.Atoi(c.Query("version"))
	view, err := h.svc.RemoveReport(c.Request.Context(), GetUserID(c), jobPackID, structureID, c.Param("number"), version)
	if err != nil {
		respondError(c, err, "删除报告编号失败")
		return
	}
	Success(c, view)
}

// Ranges 按断点计算构件分段
// GET /api/sow/ranges?component_id=xxx&breakpoints=-10,-25
func (h *SOWHandler) Ranges(c *gin.Context) {
	componentID := c.Query("component_id")
	if componentID == "" {
		BadRequest(c, "component_id 不能为空")
		return
	}
	var breakpoints []float64
	for _, s := range strings.Split(c.Query("breakpoints"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			BadRequest(c, "断点格式错误: "+s)
			return
		}
		breakpoints = append(breakpoints, v)
	}
	spans, err := h.svc.Ranges(c.Request.Context(), componentID, breakpoints)
	if err != nil {
		respondError(c, err, "计算分段失败")
		return
	}
	Success(c, gin.H{"component_id": componentID, "ranges": spans})
}

// Export 导出SOW为Excel
// GET /api/sow/export?jobpack_id=xxx&structure_id=xxx
func (h *SOWHandler) Export(c *gin.Context) {
	jobPackID, structureID, ok := scopeQuery(c)
	if !ok {
		return
	}
	f, filename, err := h.svc.ExportExcel(c.Request.Context(), jobPackID, structureID)
	if err != nil {
		respondError(c, err, "导出SOW失败")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write sow excel failed", zap.Error(err))
	}
}

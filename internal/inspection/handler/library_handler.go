package handler

import (
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/gin-gonic/gin"
)

// LibraryHandler 主数据处理器
type LibraryHandler struct {
	svc *service.LibraryService
}

func NewLibraryHandler(svc *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

// ListMasters 主数据分类列表
// GET /api/library/master
func (h *LibraryHandler) ListMasters(c *gin.Context) {
	masters, err := h.svc.ListMasters(c.Request.Context())
	if err != nil {
		InternalError(c, "获取主数据分类失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": masters})
}

// CreateMaster 创建主数据分类
// POST /api/library/master
func (h *LibraryHandler) CreateMaster(c *gin.Context) {
	var req service.CreateMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	master, err := h.svc.CreateMaster(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "创建主数据分类失败")
		return
	}
	Created(c, master)
}

// ListItems 条目列表，include_deleted=true 时包含已删除条目
// GET /api/library/:code
func (h *LibraryHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context(), c.Param("code"), queryBool(c, "include_deleted", false))
	if err != nil {
		respondError(c, err, "获取主数据失败")
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateItem 创建条目
// POST /api/library/:code
func (h *LibraryHandler) CreateItem(c *gin.Context) {
	var req service.LibraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), c.Param("code"), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "创建主数据失败")
		return
	}
	Created(c, item)
}

// UpdateItem 更新条目，lib_delete 用于软删除和恢复
// PUT /api/library/:code/:id
func (h *LibraryHandler) UpdateItem(c *gin.Context) {
	var req service.LibraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("code"), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "更新主数据失败")
		return
	}
	Success(c, item)
}

// ListCombos 组合条目列表
// GET /api/library/combo/:code
func (h *LibraryHandler) ListCombos(c *gin.Context) {
	combos, err := h.svc.ListCombos(c.Request.Context(), c.Param("code"), queryBool(c, "include_deleted", false))
	if err != nil {
		respondError(c, err, "获取组合主数据失败")
		return
	}
	Success(c, gin.H{"items": combos})
}

// CreateCombo 创建组合条目
// POST /api/library/combo/:code
func (h *LibraryHandler) CreateCombo(c *gin.Context) {
	var req service.LibraryComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	combo, err := h.svc.CreateCombo(c.Request.Context(), c.Param("code"), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "创建组合主数据失败")
		return
	}
	Created(c, combo)
}

// UpdateCombo 更新组合条目
// PUT /api/library/combo/:code/:id
func (h *LibraryHandler) UpdateCombo(c *gin.Context) {
	var req service.LibraryComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	combo, err := h.svc.UpdateCombo(c.Request.Context(), c.Param("code"), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "更新组合主数据失败")
		return
	}
	Success(c, combo)
}

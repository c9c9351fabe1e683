package handler

import (
	"github.com/bitfantasy/aims/internal/inspection/jobpack"
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/gin-gonic/gin"
)

// JobPackHandler 工作包处理器
type JobPackHandler struct {
	svc *service.JobPackService
}

func NewJobPackHandler(svc *service.JobPackService) *JobPackHandler {
	return &JobPackHandler{svc: svc}
}

// List 工作包列表
// GET /api/jobpack?status=xxx&contractor_id=xxx&keyword=xxx
func (h *JobPackHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := make(map[string]string)
	for _, key := range []string{"status", "contractor_id", "keyword"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取工作包列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: (int(total) + pageSize - 1) / pageSize,
		},
	})
}

// Get 工作包详情
// GET /api/jobpack/:id
func (h *JobPackHandler) Get(c *gin.Context) {
	jp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "获取工作包失败")
		return
	}
	Success(c, jp)
}

// Create 提交向导创建工作包
// POST /api/jobpack/create
func (h *JobPackHandler) Create(c *gin.Context) {
	var req jobpack.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	jp, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "创建工作包失败")
		return
	}
	Created(c, jp)
}

// NextSeq 下一个工作包编号
// GET /api/jobpack/utils/next-seq
func (h *JobPackHandler) NextSeq(c *gin.Context) {
	no, err := h.svc.NextSeq(c.Request.Context())
	if err != nil {
		InternalError(c, "生成工作包编号失败: "+err.Error())
		return
	}
	Success(c, gin.H{"jobpack_no": no})
}

// Contractors 承包商列表
// GET /api/jobpack/utils/contractors
func (h *JobPackHandler) Contractors(c *gin.Context) {
	items, err := h.svc.Contractors(c.Request.Context())
	if err != nil {
		InternalError(c, "获取承包商列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// UploadContractorLogo 上传承包商Logo
// POST /api/jobpack/utils/contractors/:id/logo
func (h *JobPackHandler) UploadContractorLogo(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请选择要上传的文件")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "读取文件失败: "+err.Error())
		return
	}
	defer src.Close()

	contractor, err := h.svc.UploadContractorLogo(c.Request.Context(), c.Param("id"), src,
		fileHeader.Filename, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err, "上传Logo失败")
		return
	}
	Success(c, contractor)
}

// Structures 结构物列表
// GET /api/structures?type=platform
func (h *JobPackHandler) Structures(c *gin.Context) {
	items, err := h.svc.Structures(c.Request.Context(), c.Query("type"))
	if err != nil {
		InternalError(c, "获取结构物列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Components 结构物构件列表
// GET /api/structures/:id/components
func (h *JobPackHandler) Components(c *gin.Context) {
	items, err := h.svc.Components(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "获取构件列表失败")
		return
	}
	Success(c, gin.H{"items": items})
}

// InspectionTypes 检验类型列表，sow_only=true 时排除不能纳入SOW的类型
// GET /api/inspection-types
func (h *JobPackHandler) InspectionTypes(c *gin.Context) {
	items, err := h.svc.InspectionTypes(c.Request.Context(), queryBool(c, "sow_only", false))
	if err != nil {
		InternalError(c, "获取检验类型失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

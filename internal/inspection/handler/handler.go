package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/aims/internal/inspection/jobpack"
	"github.com/bitfantasy/aims/internal/inspection/report"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/bitfantasy/aims/internal/inspection/sow"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Library    *LibraryHandler
	Attachment *AttachmentHandler
	JobPack    *JobPackHandler
	SOW        *SOWHandler
	Report     *ReportHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		Library:    NewLibraryHandler(svc.Library),
		Attachment: NewAttachmentHandler(svc.Attachment),
		JobPack:    NewJobPackHandler(svc.JobPack),
		SOW:        NewSOWHandler(svc.SOW, logger),
		Report:     NewReportHandler(svc.Report),
		SSE:        NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 带数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 版本冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// ConfirmRequired 需要用户确认，data 描述待确认内容
func ConfirmRequired(c *gin.Context, message string, data interface{}) {
	ErrorWithData(c, 42800, message, data)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceUnavailable 依赖服务未配置
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 50300, message)
}

var badRequestErrors = []error{
	service.ErrInvalidInput,
	service.ErrInvalidStatus,
	service.ErrInvalidColor,
	service.ErrComboLibrary,
	service.ErrNotComboLibrary,
	jobpack.ErrStepInvalid,
	report.ErrUnknownType,
	sow.ErrEmptyReportNumber,
	sow.ErrDuplicateReportNumber,
	sow.ErrUnknownReport,
	sow.ErrNoReportNumbers,
	sow.ErrLastReportNumber,
	sow.ErrCopyDecisionPending,
	sow.ErrNoPendingReport,
	sow.ErrInvalidCopyMode,
	sow.ErrUnknownComponent,
	sow.ErrNoElevation,
	sow.ErrElevationOutOfBounds,
	sow.ErrRangeOutOfBounds,
	sow.ErrConflictingScope,
}

// respondError 按错误类型映射响应码，prefix 为面向用户的操作描述
func respondError(c *gin.Context, err error, prefix string) {
	msg := prefix + ": " + err.Error()

	var decision *service.CopyDecisionError
	switch {
	case errors.As(err, &decision):
		ConfirmRequired(c, msg, decision.Decision)
		return
	case errors.Is(err, service.ErrConfirmRequired):
		ConfirmRequired(c, msg, gin.H{"confirm": true})
		return
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		NotFound(c, msg)
		return
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, service.ErrDuplicateValue):
		Conflict(c, msg)
		return
	case errors.Is(err, service.ErrStorageUnavailable):
		ServiceUnavailable(c, msg)
		return
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			BadRequest(c, msg)
			return
		}
	}
	InternalError(c, msg)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryBool 解析布尔查询参数，缺省或无法解析时返回 def
func queryBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

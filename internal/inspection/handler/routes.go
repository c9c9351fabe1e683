package handler

import (
	"github.com/bitfantasy/aims/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册看板接口，api 已挂载认证中间件
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	api.GET("/events", h.SSE.Stream)

	// 主数据
	library := api.Group("/library")
	editor := middleware.RequireRole(middleware.RoleEngineer)
	{
		library.GET("/master", h.Library.ListMasters)
		library.POST("/master", editor, h.Library.CreateMaster)
		library.GET("/combo/:code", h.Library.ListCombos)
		library.POST("/combo/:code", editor, h.Library.CreateCombo)
		library.PUT("/combo/:code/:id", editor, h.Library.UpdateCombo)
		library.GET("/:code", h.Library.ListItems)
		library.POST("/:code", editor, h.Library.CreateItem)
		library.PUT("/:code/:id", editor, h.Library.UpdateItem)
	}

	// 附件
	attachment := api.Group("/attachment")
	{
		attachment.GET("", h.Attachment.List)
		attachment.POST("", h.Attachment.Upload)
		attachment.DELETE("", h.Attachment.Delete)
		attachment.GET("/tree", h.Attachment.Tree)
		attachment.GET("/:id/download", h.Attachment.Download)
	}

	// 工作包
	jobpack := api.Group("/jobpack")
	{
		jobpack.GET("", h.JobPack.List)
		jobpack.POST("/create", h.JobPack.Create)
		jobpack.GET("/utils/contractors", h.JobPack.Contractors)
		jobpack.GET("/utils/next-seq", h.JobPack.NextSeq)
		jobpack.POST("/utils/contractors/:id/logo", h.JobPack.UploadContractorLogo)
		jobpack.GET("/:id", h.JobPack.Get)
	}
	api.GET("/structures", h.JobPack.Structures)
	api.GET("/structures/:id/components", h.JobPack.Components)
	api.GET("/inspection-types", h.JobPack.InspectionTypes)

	// SOW
	sow := api.Group("/sow")
	{
		sow.GET("", h.SOW.Get)
		sow.POST("", h.SOW.SaveHeader)
		sow.POST("/items", h.SOW.UpsertItem)
		sow.DELETE("/items", h.SOW.DeleteItem)
		sow.PUT("/matrix", h.SOW.SaveMatrix)
		sow.POST("/toggle", h.SOW.Toggle)
		sow.POST("/reports", h.SOW.AddReport)
		sow.DELETE("/reports/:number", h.SOW.RemoveReport)
		sow.GET("/ranges", h.SOW.Ranges)
		sow.GET("/export", h.SOW.Export)
	}

	// 报告
	reports := api.Group("/reports")
	{
		reports.GET("/:type", h.Report.Rows)
		reports.GET("/:type/pdf", h.Report.PDF)
	}
}

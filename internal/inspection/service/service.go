package service

import (
	"github.com/bitfantasy/aims/internal/inspection/report"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Library    *LibraryService
	Attachment *AttachmentService
	JobPack    *JobPackService
	SOW        *SOWService
	Report     *ReportService
}

// NewServices 创建服务集合。rdb 为 nil 时不使用缓存，store 为 nil 时上传接口不可用
func NewServices(repos *repository.Repositories, rdb *redis.Client, store storage.ObjectStore, hub *sse.Hub, logger *zap.Logger) *Services {
	library := NewLibraryService(repos.Library, rdb, hub, logger)
	return &Services{
		Library:    library,
		Attachment: NewAttachmentService(repos.Attachment, store, hub, logger),
		JobPack:    NewJobPackService(repos.JobPack, repos.Structure, store, hub),
		SOW:        NewSOWService(repos.SOW, repos.Structure, repos.JobPack, hub, logger),
		Report:     NewReportService(repos.Report, repos.JobPack, repos.Structure, library, store, report.NewRenderer(), logger),
	}
}

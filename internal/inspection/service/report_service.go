package service

import (
	"context"
	"io"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/report"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"go.uber.org/zap"
)

// ReportService 报告服务
type ReportService struct {
	repo          *repository.ReportRepository
	jobPackRepo   *repository.JobPackRepository
	structureRepo *repository.StructureRepository
	library       *LibraryService
	store         storage.ObjectStore
	renderer      *report.Renderer
	logger        *zap.Logger
}

func NewReportService(repo *repository.ReportRepository, jobPackRepo *repository.JobPackRepository, structureRepo *repository.StructureRepository, library *LibraryService, store storage.ObjectStore, renderer *report.Renderer, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:          repo,
		jobPackRepo:   jobPackRepo,
		structureRepo: structureRepo,
		library:       library,
		store:         store,
		renderer:      renderer,
		logger:        logger,
	}
}

// DefectSummaryRows 缺陷汇总查询结果
type DefectSummaryRows struct {
	Summary []report.PriorityCount `json:"summary"`
	Rows    []entity.Anomaly       `json:"rows"`
}

// Rows 报告数据行
func (s *ReportService) Rows(ctx context.Context, t report.Type, f entity.ReportFilter) (interface{}, error) {
	switch t {
	case report.TypeAnomaly:
		return s.repo.ListAnomalies(ctx, f)
	case report.TypeDefectSummary:
		rows, err := s.repo.ListAnomalies(ctx, f)
		if err != nil {
			return nil, err
		}
		return &DefectSummaryRows{Summary: report.SummarizeByPriority(rows, s.priorityColors(ctx)), Rows: rows}, nil
	case report.TypeDiverLog:
		return s.repo.ListDiveLogs(ctx, f)
	case report.TypeVideoLog:
		return s.repo.ListVideoLogs(ctx, f)
	}
	return nil, report.ErrUnknownType
}

// priorityColors 主数据中的优先级颜色表，读取失败时返回 nil 使用内置调色板
func (s *ReportService) priorityColors(ctx context.Context) map[string]string {
	if s.library == nil {
		return nil
	}
	colors, err := s.library.ColorMap(ctx, entity.LibCodePriority)
	if err != nil {
		s.logger.Debug("priority color map unavailable", zap.Error(err))
		return nil
	}
	return colors
}

func (s *ReportService) meta(ctx context.Context, f entity.ReportFilter) report.Meta {
	meta := report.Meta{SOWReportNo: f.SOWReportNo}
	if f.JobPackID != "" {
		if jp, err := s.jobPackRepo.FindByID(ctx, f.JobPackID); err == nil {
			meta.JobPackNo = jp.JobPackNo
			meta.JobPackName = jp.Name
			if jp.Contractor != nil {
				meta.ContractorName = jp.Contractor.Name
				meta.Logo = s.logo(ctx, jp.Contractor)
			}
		}
	}
	if f.StructureID != "" {
		if st, err := s.structureRepo.FindStructure(ctx, f.StructureID); err == nil {
			meta.StructureName = st.Name
		}
	}
	switch {
	case f.SOWReportNo != "":
		meta.Prefix = f.SOWReportNo
	case meta.JobPackNo != "":
		meta.Prefix = meta.JobPackNo
	}
	return meta
}

func (s *ReportService) logo(ctx context.Context, c *entity.Contractor) []byte {
	if s.store == nil || c.LogoPath == "" {
		return nil
	}
	rc, err := s.store.Get(ctx, storage.BucketLogos, c.LogoPath)
	if err != nil {
		s.logger.Warn("load contractor logo failed", zap.String("contractor_id", c.ID), zap.Error(err))
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}

// SetCompression 是否压缩PDF页面内容流
func (s *ReportService) SetCompression(on bool) {
	s.renderer.Compress = on
}

// Generate 生成PDF报告
func (s *ReportService) Generate(ctx context.Context, t report.Type, f entity.ReportFilter) (*report.Result, error) {
	meta := s.meta(ctx, f)
	switch t {
	case report.TypeAnomaly, report.TypeDefectSummary:
		rows, err := s.repo.ListAnomalies(ctx, f)
		if err != nil {
			return nil, err
		}
		colors := s.priorityColors(ctx)
		if t == report.TypeAnomaly {
			return s.renderer.Anomaly(meta, rows, colors)
		}
		return s.renderer.DefectSummary(meta, rows, colors)
	case report.TypeDiverLog:
		rows, err := s.repo.ListDiveLogs(ctx, f)
		if err != nil {
			return nil, err
		}
		return s.renderer.DiverLog(meta, rows)
	case report.TypeVideoLog:
		rows, err := s.repo.ListVideoLogs(ctx, f)
		if err != nil {
			return nil, err
		}
		return s.renderer.VideoLog(meta, rows)
	}
	return nil, report.ErrUnknownType
}

package repository

import (
	"context"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"gorm.io/gorm"
)

// ReportRepository 报告数据仓库
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func applyFilter(query *gorm.DB, f entity.ReportFilter, withInspection bool) *gorm.DB {
	if f.JobPackID != "" {
		query = query.Where("jobpack_id = ?", f.JobPackID)
	}
	if f.StructureID != "" {
		query = query.Where("structure_id = ?", f.StructureID)
	}
	if f.SOWReportNo != "" {
		query = query.Where("sow_report_no = ?", f.SOWReportNo)
	}
	if withInspection && f.InspectionID != "" {
		query = query.Where("inspection_id = ?", f.InspectionID)
	}
	return query
}

// ListAnomalies 查询缺陷记录
func (r *ReportRepository) ListAnomalies(ctx context.Context, f entity.ReportFilter) ([]entity.Anomaly, error) {
	var items []entity.Anomaly
	query := applyFilter(r.db.WithContext(ctx).Model(&entity.Anomaly{}), f, true)
	err := query.Order("anomaly_ref ASC, created_at ASC").Find(&items).Error
	return items, err
}

// ListDiveLogs 查询潜水日志
func (r *ReportRepository) ListDiveLogs(ctx context.Context, f entity.ReportFilter) ([]entity.DiveLog, error) {
	var items []entity.DiveLog
	query := applyFilter(r.db.WithContext(ctx).Model(&entity.DiveLog{}), f, false)
	err := query.Order("left_surface ASC, dive_no ASC").Find(&items).Error
	return items, err
}

// ListVideoLogs 查询录像日志
func (r *ReportRepository) ListVideoLogs(ctx context.Context, f entity.ReportFilter) ([]entity.VideoLog, error) {
	var items []entity.VideoLog
	query := applyFilter(r.db.WithContext(ctx).Model(&entity.VideoLog{}), f, true)
	err := query.Order("tape_no ASC, start_tc ASC").Find(&items).Error
	return items, err
}

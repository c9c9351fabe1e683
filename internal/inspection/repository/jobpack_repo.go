package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"gorm.io/gorm"
)

// JobPackRepository 工作包仓库
type JobPackRepository struct {
	db *gorm.DB
}

func NewJobPackRepository(db *gorm.DB) *JobPackRepository {
	return &JobPackRepository{db: db}
}

// FindAll 查询工作包列表
func (r *JobPackRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.JobPack, int64, error) {
	var items []entity.JobPack
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.JobPack{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if contractorID := filters["contractor_id"]; contractorID != "" {
		query = query.Where("contractor_id = ?", contractorID)
	}
	if keyword := filters["keyword"]; keyword != "" {
		query = query.Where("jobpack_no LIKE ? OR name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找工作包（含结构物、构件、检验类型）
func (r *JobPackRepository) FindByID(ctx context.Context, id string) (*entity.JobPack, error) {
	var jp entity.JobPack
	err := r.db.WithContext(ctx).
		Preload("Contractor").
		Preload("Structures", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Components").
		Preload("Inspections").
		Where("id = ?", id).
		First(&jp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &jp, nil
}

// CreateWithChildren 在一个事务中创建工作包及其子表，编号在事务内分配
func (r *JobPackRepository) CreateWithChildren(ctx context.Context, jp *entity.JobPack) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := nextCode(tx, time.Now())
		if err != nil {
			return err
		}
		jp.JobPackNo = code
		return tx.Create(jp).Error
	})
}

// NextCode 预览下一个工作包编号 JP-{year}-{4位}
func (r *JobPackRepository) NextCode(ctx context.Context) (string, error) {
	return nextCode(r.db.WithContext(ctx), time.Now())
}

func nextCode(db *gorm.DB, now time.Time) (string, error) {
	year := now.Format("2006")
	prefix := fmt.Sprintf("JP-%s-", year)

	var maxCode string
	err := db.
		Model(&entity.JobPack{}).
		Select("COALESCE(MAX(jobpack_no), '')").
		Where("jobpack_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "JP-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("JP-%s-%04d", year, seq), nil
}

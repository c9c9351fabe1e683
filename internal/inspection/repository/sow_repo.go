package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SOWRepository 工作范围仓库
type SOWRepository struct {
	db *gorm.DB
}

func NewSOWRepository(db *gorm.DB) *SOWRepository {
	return &SOWRepository{db: db}
}

// FindByJobPackStructure 查找工作包下某结构物的SOW（含检验项）
func (r *SOWRepository) FindByJobPackStructure(ctx context.Context, jobPackID, structureID string) (*entity.SOW, error) {
	var header entity.SOW
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("jobpack_id = ? AND structure_id = ?", jobPackID, structureID).
		First(&header).Error
	if err != nil {
		return nil, translate(err)
	}
	return &header, nil
}

// FindByID 根据ID查找SOW表头
func (r *SOWRepository) FindByID(ctx context.Context, id string) (*entity.SOW, error) {
	var header entity.SOW
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&header).Error; err != nil {
		return nil, translate(err)
	}
	return &header, nil
}

// UpsertHeader 按 (jobpack, structure) 创建或更新表头，每次更新版本号加一。
// removedReports 中报告编号下的检验项在同一事务内删除。
func (r *SOWRepository) UpsertHeader(ctx context.Context, header *entity.SOW, removedReports ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertHeader(tx, header, 0); err != nil {
			return err
		}
		if len(removedReports) == 0 {
			return nil
		}
		return tx.Where("sow_id = ? AND report_number IN ?", header.ID, removedReports).
			Delete(&entity.SOWItem{}).Error
	})
}

// SaveMatrix 在一个事务内写入表头、检验项更新和删除。
// expectedVersion 大于0时校验版本号，不一致返回 ErrVersionConflict。
func (r *SOWRepository) SaveMatrix(ctx context.Context, header *entity.SOW, upserts, deletes []entity.SOWItem, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertHeader(tx, header, expectedVersion); err != nil {
			return err
		}

		for i := range upserts {
			item := &upserts[i]
			item.SOWID = header.ID
			if err := saveItem(tx, item); err != nil {
				return err
			}
		}

		if len(deletes) > 0 {
			ids := make([]string, 0, len(deletes))
			for _, d := range deletes {
				ids = append(ids, d.ID)
			}
			if err := tx.Where("sow_id = ? AND id IN ?", header.ID, ids).Delete(&entity.SOWItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertHeader(tx *gorm.DB, header *entity.SOW, expectedVersion int) error {
	var current entity.SOW
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("jobpack_id = ? AND structure_id = ?", header.JobPackID, header.StructureID).
		First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if expectedVersion > 1 {
			return ErrVersionConflict
		}
		if header.ID == "" {
			header.ID = uuid.New().String()[:32]
		}
		header.Version = 1
		return tx.Omit("Items").Create(header).Error
	}
	if err != nil {
		return err
	}

	header.ID = current.ID
	header.CreatedBy = current.CreatedBy
	header.CreatedAt = current.CreatedAt

	query := tx.Model(&entity.SOW{}).Where("id = ?", current.ID)
	if expectedVersion > 0 {
		query = query.Where("version = ?", expectedVersion)
	}
	res := query.Updates(map[string]interface{}{
		"structure_type":     header.StructureType,
		"report_numbers":     header.ReportNumbers,
		"metadata":           header.Metadata,
		"tracked_components": header.TrackedComponents,
		"version":            gorm.Expr("version + 1"),
		"updated_at":         time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	header.Version = current.Version + 1
	return nil
}

func saveItem(tx *gorm.DB, item *entity.SOWItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()[:32]
		if item.Status == "" {
			item.Status = entity.SOWStatusPending
		}
		return tx.Create(item).Error
	}
	return tx.Save(item).Error
}

// FindItem 根据ID查找检验项
func (r *SOWRepository) FindItem(ctx context.Context, id string) (*entity.SOWItem, error) {
	var item entity.SOWItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// ListItems 查询SOW下的全部检验项
func (r *SOWRepository) ListItems(ctx context.Context, sowID string) ([]entity.SOWItem, error) {
	var items []entity.SOWItem
	err := r.db.WithContext(ctx).
		Where("sow_id = ?", sowID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// UpsertItem 创建或更新单个检验项
func (r *SOWRepository) UpsertItem(ctx context.Context, item *entity.SOWItem) error {
	return saveItem(r.db.WithContext(ctx), item)
}

// DeleteItem 删除检验项
func (r *SOWRepository) DeleteItem(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.SOWItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountItems 统计SOW检验项数量
func (r *SOWRepository) CountItems(ctx context.Context, sowID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.SOWItem{}).Where("sow_id = ?", sowID).Count(&count).Error
	return count, err
}

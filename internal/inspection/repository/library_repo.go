package repository

import (
	"context"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"gorm.io/gorm"
)

// LibraryRepository 主数据仓库
type LibraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// ListMasters 查询主数据分类
func (r *LibraryRepository) ListMasters(ctx context.Context) ([]entity.LibraryMaster, error) {
	var items []entity.LibraryMaster
	err := r.db.WithContext(ctx).Order("lib_code ASC").Find(&items).Error
	return items, err
}

// FindMaster 根据编码查找分类
func (r *LibraryRepository) FindMaster(ctx context.Context, code string) (*entity.LibraryMaster, error) {
	var m entity.LibraryMaster
	if err := r.db.WithContext(ctx).Where("lib_code = ?", code).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// CreateMaster 创建分类
func (r *LibraryRepository) CreateMaster(ctx context.Context, m *entity.LibraryMaster) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListItems 查询分类下的条目，includeDeleted 为 false 时只返回正常条目
func (r *LibraryRepository) ListItems(ctx context.Context, code string, includeDeleted bool) ([]entity.LibraryItem, error) {
	var items []entity.LibraryItem
	query := r.db.WithContext(ctx).Where("lib_code = ?", code)
	if !includeDeleted {
		query = query.Where("lib_delete = ?", entity.LibActive)
	}
	err := query.Order("sort_order ASC, lib_value ASC").Find(&items).Error
	return items, err
}

// FindItem 查找条目
func (r *LibraryRepository) FindItem(ctx context.Context, code, id string) (*entity.LibraryItem, error) {
	var item entity.LibraryItem
	err := r.db.WithContext(ctx).Where("lib_code = ? AND id = ?", code, id).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// ExistsItemValue 判断分类下是否已有相同取值（排除自身）
func (r *LibraryRepository) ExistsItemValue(ctx context.Context, code, value, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.LibraryItem{}).
		Where("lib_code = ? AND lib_value = ? AND lib_delete = ?", code, value, entity.LibActive)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CreateItem 创建条目
func (r *LibraryRepository) CreateItem(ctx context.Context, item *entity.LibraryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem 更新条目
func (r *LibraryRepository) UpdateItem(ctx context.Context, item *entity.LibraryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// ListCombos 查询组合条目
func (r *LibraryRepository) ListCombos(ctx context.Context, code string, includeDeleted bool) ([]entity.LibraryCombo, error) {
	var items []entity.LibraryCombo
	query := r.db.WithContext(ctx).Where("lib_code = ?", code)
	if !includeDeleted {
		query = query.Where("lib_delete = ?", entity.LibActive)
	}
	err := query.Order("code_1 ASC, code_2 ASC").Find(&items).Error
	return items, err
}

// FindCombo 查找组合条目
func (r *LibraryRepository) FindCombo(ctx context.Context, code, id string) (*entity.LibraryCombo, error) {
	var item entity.LibraryCombo
	err := r.db.WithContext(ctx).Where("lib_code = ? AND id = ?", code, id).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// ExistsCombo 判断组合是否已存在（排除自身）
func (r *LibraryRepository) ExistsCombo(ctx context.Context, code, code1, code2, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.LibraryCombo{}).
		Where("lib_code = ? AND code_1 = ? AND code_2 = ? AND lib_delete = ?", code, code1, code2, entity.LibActive)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CreateCombo 创建组合条目
func (r *LibraryRepository) CreateCombo(ctx context.Context, item *entity.LibraryCombo) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateCombo 更新组合条目
func (r *LibraryRepository) UpdateCombo(ctx context.Context, item *entity.LibraryCombo) error {
	return r.db.WithContext(ctx).Save(item).Error
}

package repository

import (
	"context"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"gorm.io/gorm"
)

// StructureRepository 结构物/构件/检验类型/承包商仓库
type StructureRepository struct {
	db *gorm.DB
}

func NewStructureRepository(db *gorm.DB) *StructureRepository {
	return &StructureRepository{db: db}
}

// ListStructures 查询结构物列表
func (r *StructureRepository) ListStructures(ctx context.Context, structureType string) ([]entity.Structure, error) {
	var items []entity.Structure
	query := r.db.WithContext(ctx).Model(&entity.Structure{})
	if structureType != "" {
		query = query.Where("type = ?", structureType)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FindStructure 根据ID查找结构物
func (r *StructureRepository) FindStructure(ctx context.Context, id string) (*entity.Structure, error) {
	var s entity.Structure
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ListComponents 查询结构物下的构件
func (r *StructureRepository) ListComponents(ctx context.Context, structureID string) ([]entity.Component, error) {
	var items []entity.Component
	err := r.db.WithContext(ctx).
		Where("structure_id = ?", structureID).
		Order("qid ASC").
		Find(&items).Error
	return items, err
}

// FindComponent 根据ID查找构件
func (r *StructureRepository) FindComponent(ctx context.Context, id string) (*entity.Component, error) {
	var c entity.Component
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListInspectionTypes 查询启用的检验类型
func (r *StructureRepository) ListInspectionTypes(ctx context.Context) ([]entity.InspectionType, error) {
	var items []entity.InspectionType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&items).Error
	return items, err
}

// ListContractors 查询承包商
func (r *StructureRepository) ListContractors(ctx context.Context) ([]entity.Contractor, error) {
	var items []entity.Contractor
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// FindContractor 根据ID查找承包商
func (r *StructureRepository) FindContractor(ctx context.Context, id string) (*entity.Contractor, error) {
	var c entity.Contractor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// UpdateContractorLogo 更新承包商Logo
func (r *StructureRepository) UpdateContractorLogo(ctx context.Context, id, path, url string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Contractor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"logo_path": path, "logo_url": url})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttachmentRepository 附件仓库
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// ListBySource 按来源查询附件
func (r *AttachmentRepository) ListBySource(ctx context.Context, sourceType, sourceID string) ([]entity.Attachment, error) {
	var items []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListByStructure 查询结构物下的全部附件
func (r *AttachmentRepository) ListByStructure(ctx context.Context, structureID string) ([]entity.Attachment, error) {
	var items []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("structure_id = ? OR (source_id = ? AND source_type IN ?)", structureID, structureID,
			[]string{entity.SourcePlatform, entity.SourcePipeline}).
		Order("source_type ASC, source_id ASC, name ASC").
		Find(&items).Error
	return items, err
}

// FindByID 查找附件
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.Attachment, error) {
	var a entity.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// Upsert 按对象路径写入附件记录，路径相同则覆盖
func (r *AttachmentRepository) Upsert(ctx context.Context, a *entity.Attachment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "url", "content_type", "size", "object_path"}),
		}).
		Create(a).Error
}

// Delete 删除附件记录
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Attachment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

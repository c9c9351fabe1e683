package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrStorageUnavailable = errors.New("object storage not configured")

// AttachmentService 附件服务
type AttachmentService struct {
	repo   *repository.AttachmentRepository
	store  storage.ObjectStore
	hub    *sse.Hub
	logger *zap.Logger
}

func NewAttachmentService(repo *repository.AttachmentRepository, store storage.ObjectStore, hub *sse.Hub, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{repo: repo, store: store, hub: hub, logger: logger}
}

// UploadAttachmentRequest 上传附件参数
type UploadAttachmentRequest struct {
	SourceType  string `form:"source_type" binding:"required"`
	SourceID    string `form:"source_id" binding:"required"`
	StructureID string `form:"structure_id"`
}

// AttachmentSource 同一来源对象的附件
type AttachmentSource struct {
	SourceID string              `json:"source_id"`
	Files    []entity.Attachment `json:"files"`
}

// AttachmentGroup 按来源类型分组
type AttachmentGroup struct {
	SourceType string             `json:"source_type"`
	Sources    []AttachmentSource `json:"sources"`
}

// AttachmentTree 结构物附件树：结构物 -> 来源类型 -> 来源对象 -> 文件
type AttachmentTree struct {
	StructureID string            `json:"structure_id"`
	Groups      []AttachmentGroup `json:"groups"`
	Total       int               `json:"total"`
}

// objectPath 生成对象路径 <source_type>/<source_id>/<uuid>_<filename>
func objectPath(sourceType, sourceID, id, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/%s/%s_%s", sourceType, sourceID, id, base)
}

// Upload 上传附件
func (s *AttachmentService) Upload(ctx context.Context, userID string, req *UploadAttachmentRequest, reader io.Reader, fileName string, size int64, contentType string) (*entity.Attachment, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if !entity.ValidSourceType(req.SourceType) {
		return nil, fmt.Errorf("source_type %q: %w", req.SourceType, ErrInvalidInput)
	}
	if strings.TrimSpace(req.SourceID) == "" || strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("source_id and file are required: %w", ErrInvalidInput)
	}

	id := uuid.New().String()[:32]
	path := objectPath(req.SourceType, req.SourceID, id, fileName)
	if err := s.store.Put(ctx, storage.BucketAttachments, path, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	structureID := req.StructureID
	if structureID == "" && (req.SourceType == entity.SourcePlatform || req.SourceType == entity.SourcePipeline) {
		structureID = req.SourceID
	}
	a := &entity.Attachment{
		ID:          id,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		StructureID: structureID,
		Name:        filepath.Base(fileName),
		Bucket:      storage.BucketAttachments,
		ObjectPath:  path,
		URL:         s.store.URL(storage.BucketAttachments, path),
		ContentType: contentType,
		Size:        size,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Upsert(ctx, a); err != nil {
		if rmErr := s.store.Remove(ctx, storage.BucketAttachments, path); rmErr != nil {
			s.logger.Warn("remove orphaned object failed", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("save attachment: %w", err)
	}
	s.hub.PublishChange(sse.EventAttachmentUpdate, "created", map[string]string{
		"id": a.ID, "source_type": a.SourceType, "source_id": a.SourceID,
	})
	return a, nil
}

// List 按来源列出附件
func (s *AttachmentService) List(ctx context.Context, sourceType, sourceID string) ([]entity.Attachment, error) {
	if !entity.ValidSourceType(sourceType) {
		return nil, fmt.Errorf("source_type %q: %w", sourceType, ErrInvalidInput)
	}
	return s.repo.ListBySource(ctx, sourceType, sourceID)
}

// Tree 构建结构物附件树
func (s *AttachmentService) Tree(ctx context.Context, structureID string) (*AttachmentTree, error) {
	items, err := s.repo.ListByStructure(ctx, structureID)
	if err != nil {
		return nil, err
	}
	return buildTree(structureID, items), nil
}

func buildTree(structureID string, items []entity.Attachment) *AttachmentTree {
	grouped := make(map[string]map[string][]entity.Attachment)
	for _, a := range items {
		if grouped[a.SourceType] == nil {
			grouped[a.SourceType] = make(map[string][]entity.Attachment)
		}
		grouped[a.SourceType][a.SourceID] = append(grouped[a.SourceType][a.SourceID], a)
	}

	tree := &AttachmentTree{StructureID: structureID, Groups: []AttachmentGroup{}, Total: len(items)}
	types := make([]string, 0, len(grouped))
	for t := range grouped {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		group := AttachmentGroup{SourceType: t}
		ids := make([]string, 0, len(grouped[t]))
		for id := range grouped[t] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			files := grouped[t][id]
			sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
			group.Sources = append(group.Sources, AttachmentSource{SourceID: id, Files: files})
		}
		tree.Groups = append(tree.Groups, group)
	}
	return tree
}

// Open 读取附件内容
func (s *AttachmentService) Open(ctx context.Context, id string) (*entity.Attachment, io.ReadCloser, error) {
	if s.store == nil {
		return nil, nil, ErrStorageUnavailable
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, a.Bucket, a.ObjectPath)
	if err != nil {
		return nil, nil, err
	}
	return a, rc, nil
}

// Delete 删除附件及其对象
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Remove(ctx, a.Bucket, a.ObjectPath); err != nil {
			return fmt.Errorf("remove object: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.PublishChange(sse.EventAttachmentUpdate, "deleted", map[string]string{
		"id": a.ID, "source_type": a.SourceType, "source_id": a.SourceID,
	})
	return nil
}

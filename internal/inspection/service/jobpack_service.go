package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/jobpack"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/google/uuid"
)

// JobPackService 工作包服务
type JobPackService struct {
	repo          *repository.JobPackRepository
	structureRepo *repository.StructureRepository
	store         storage.ObjectStore
	hub           *sse.Hub
}

func NewJobPackService(repo *repository.JobPackRepository, structureRepo *repository.StructureRepository, store storage.ObjectStore, hub *sse.Hub) *JobPackService {
	return &JobPackService{repo: repo, structureRepo: structureRepo, store: store, hub: hub}
}

// List 查询工作包列表
func (s *JobPackService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.JobPack, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get 查询工作包详情
func (s *JobPackService) Get(ctx context.Context, id string) (*entity.JobPack, error) {
	return s.repo.FindByID(ctx, id)
}

// NextSeq 预览下一个工作包编号
func (s *JobPackService) NextSeq(ctx context.Context) (string, error) {
	return s.repo.NextCode(ctx)
}

// Contractors 承包商列表
func (s *JobPackService) Contractors(ctx context.Context) ([]entity.Contractor, error) {
	return s.structureRepo.ListContractors(ctx)
}

// Structures 结构物列表
func (s *JobPackService) Structures(ctx context.Context, structureType string) ([]entity.Structure, error) {
	return s.structureRepo.ListStructures(ctx, structureType)
}

// Components 结构物构件列表
func (s *JobPackService) Components(ctx context.Context, structureID string) ([]entity.Component, error) {
	if _, err := s.structureRepo.FindStructure(ctx, structureID); err != nil {
		return nil, err
	}
	return s.structureRepo.ListComponents(ctx, structureID)
}

// InspectionTypes 检验类型列表，sowOnly 时排除标定/日志类
func (s *JobPackService) InspectionTypes(ctx context.Context, sowOnly bool) ([]entity.InspectionType, error) {
	types, err := s.structureRepo.ListInspectionTypes(ctx)
	if err != nil {
		return nil, err
	}
	if !sowOnly {
		return types, nil
	}
	out := make([]entity.InspectionType, 0, len(types))
	for i := range types {
		if types[i].IsSOWApplicable() {
			out = append(out, types[i])
		}
	}
	return out, nil
}

// Create 校验向导提交内容并在一个事务中创建工作包
func (s *JobPackService) Create(ctx context.Context, userID string, req *jobpack.CreateRequest) (*entity.JobPack, error) {
	valid, err := jobpack.FromRequest(req).Request()
	if err != nil {
		return nil, err
	}

	if _, err := s.structureRepo.FindContractor(ctx, valid.ContractorID); err != nil {
		return nil, fmt.Errorf("contractor %s: %w", valid.ContractorID, err)
	}

	types, err := s.structureRepo.ListInspectionTypes(ctx)
	if err != nil {
		return nil, err
	}
	knownCodes := make(map[string]bool, len(types))
	for _, t := range types {
		knownCodes[t.Code] = true
	}

	now := time.Now()
	jp := &entity.JobPack{
		ID:           uuid.New().String()[:32],
		Name:         valid.Name,
		ContractorID: valid.ContractorID,
		Mode:         string(valid.Mode),
		StartDate:    valid.StartDate,
		EndDate:      valid.EndDate,
		Status:       entity.JobPackStatusDraft,
		Remarks:      valid.Remarks,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for i, sel := range valid.Structures {
		if _, err := s.structureRepo.FindStructure(ctx, sel.StructureID); err != nil {
			return nil, fmt.Errorf("structure %s: %w", sel.StructureID, err)
		}
		jp.Structures = append(jp.Structures, entity.JobPackStructure{
			ID:          uuid.New().String()[:32],
			JobPackID:   jp.ID,
			StructureID: sel.StructureID,
			SortOrder:   i,
		})

		if len(sel.ComponentIDs) > 0 {
			comps, err := s.structureRepo.ListComponents(ctx, sel.StructureID)
			if err != nil {
				return nil, err
			}
			owned := make(map[string]bool, len(comps))
			for _, c := range comps {
				owned[c.ID] = true
			}
			for _, cid := range sel.ComponentIDs {
				if !owned[cid] {
					return nil, fmt.Errorf("component %s does not belong to structure %s: %w",
						cid, sel.StructureID, jobpack.ErrStepInvalid)
				}
				jp.Components = append(jp.Components, entity.JobPackComponent{
					ID:          uuid.New().String()[:32],
					JobPackID:   jp.ID,
					StructureID: sel.StructureID,
					ComponentID: cid,
				})
			}
		}

		for _, code := range sel.InspectionCodes {
			if !knownCodes[code] {
				return nil, fmt.Errorf("inspection type %s: %w", code, jobpack.ErrStepInvalid)
			}
			jp.Inspections = append(jp.Inspections, entity.JobPackInspection{
				ID:             uuid.New().String()[:32],
				JobPackID:      jp.ID,
				StructureID:    sel.StructureID,
				InspectionCode: code,
			})
		}
	}

	if err := s.repo.CreateWithChildren(ctx, jp); err != nil {
		return nil, fmt.Errorf("create jobpack: %w", err)
	}
	s.hub.PublishChange(sse.EventJobPackUpdate, "created", map[string]string{"jobpack_id": jp.ID, "jobpack_no": jp.JobPackNo})
	return s.repo.FindByID(ctx, jp.ID)
}

// UploadContractorLogo 上传承包商Logo，路径 contractors/<id><ext>，重复上传覆盖
func (s *JobPackService) UploadContractorLogo(ctx context.Context, contractorID string, reader io.Reader, fileName string, size int64, contentType string) (*entity.Contractor, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if _, err := s.structureRepo.FindContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return nil, fmt.Errorf("logo must be png or jpeg: %w", ErrInvalidInput)
	}

	path := "contractors/" + contractorID + ext
	if err := s.store.Put(ctx, storage.BucketLogos, path, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}
	url := s.store.URL(storage.BucketLogos, path)
	if err := s.structureRepo.UpdateContractorLogo(ctx, contractorID, path, url); err != nil {
		return nil, err
	}
	return s.structureRepo.FindContractor(ctx, contractorID)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrComboLibrary    = errors.New("library is a combination library")
	ErrNotComboLibrary = errors.New("library is not a combination library")
	ErrDuplicateValue  = errors.New("value already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

const libraryCacheTTL = 10 * time.Minute

// LibraryService 主数据服务
type LibraryService struct {
	repo   *repository.LibraryRepository
	rdb    *redis.Client
	hub    *sse.Hub
	logger *zap.Logger
}

func NewLibraryService(repo *repository.LibraryRepository, rdb *redis.Client, hub *sse.Hub, logger *zap.Logger) *LibraryService {
	return &LibraryService{repo: repo, rdb: rdb, hub: hub, logger: logger}
}

// CreateMasterRequest 创建分类请求
type CreateMasterRequest struct {
	LibCode string `json:"lib_code" binding:"required"`
	LibName string `json:"lib_name" binding:"required"`
	IsCombo bool   `json:"is_combo"`
	IsColor bool   `json:"is_color"`
}

// LibraryItemRequest 创建/更新条目请求，更新时只修改非空字段
type LibraryItemRequest struct {
	LibValue  *string `json:"lib_value"`
	LibDesc   *string `json:"lib_desc"`
	ColorHex  *string `json:"color_hex"`
	ColorR    *int    `json:"color_r"`
	ColorG    *int    `json:"color_g"`
	ColorB    *int    `json:"color_b"`
	LibDelete *int    `json:"lib_delete"`
	SortOrder *int    `json:"sort_order"`
}

// LibraryComboRequest 创建/更新组合条目请求
type LibraryComboRequest struct {
	Code1     *string `json:"code_1"`
	Code2     *string `json:"code_2"`
	LibDesc   *string `json:"lib_desc"`
	LibDelete *int    `json:"lib_delete"`
}

func (s *LibraryService) ListMasters(ctx context.Context) ([]entity.LibraryMaster, error) {
	return s.repo.ListMasters(ctx)
}

func (s *LibraryService) CreateMaster(ctx context.Context, req *CreateMasterRequest) (*entity.LibraryMaster, error) {
	code := strings.ToUpper(strings.TrimSpace(req.LibCode))
	if code == "" || strings.TrimSpace(req.LibName) == "" {
		return nil, fmt.Errorf("lib_code and lib_name are required: %w", ErrInvalidInput)
	}
	if _, err := s.repo.FindMaster(ctx, code); err == nil {
		return nil, fmt.Errorf("%s: %w", code, ErrDuplicateValue)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	m := &entity.LibraryMaster{
		LibCode:   code,
		LibName:   strings.TrimSpace(req.LibName),
		IsCombo:   req.IsCombo,
		IsColor:   req.IsColor,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.CreateMaster(ctx, m); err != nil {
		return nil, fmt.Errorf("create master: %w", err)
	}
	s.hub.PublishChange(sse.EventLibraryUpdate, "master_created", map[string]string{"lib_code": code})
	return m, nil
}

func (s *LibraryService) master(ctx context.Context, code string, combo bool) (*entity.LibraryMaster, error) {
	m, err := s.repo.FindMaster(ctx, code)
	if err != nil {
		return nil, err
	}
	if combo && !m.IsCombo {
		return nil, fmt.Errorf("%s: %w", code, ErrNotComboLibrary)
	}
	if !combo && m.IsCombo {
		return nil, fmt.Errorf("%s: %w", code, ErrComboLibrary)
	}
	return m, nil
}

func cacheKey(code string) string {
	return "library:" + code
}

// ListItems 查询条目。只读取正常条目时优先走缓存
func (s *LibraryService) ListItems(ctx context.Context, code string, includeDeleted bool) ([]entity.LibraryItem, error) {
	if _, err := s.master(ctx, code, false); err != nil {
		return nil, err
	}
	if !includeDeleted && s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey(code)).Result(); err == nil {
			var items []entity.LibraryItem
			if json.Unmarshal([]byte(cached), &items) == nil {
				return items, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("library cache read failed", zap.String("lib_code", code), zap.Error(err))
		}
	}

	items, err := s.repo.ListItems(ctx, code, includeDeleted)
	if err != nil {
		return nil, err
	}
	if !includeDeleted && s.rdb != nil {
		if data, err := json.Marshal(items); err == nil {
			if err := s.rdb.Set(ctx, cacheKey(code), data, libraryCacheTTL).Err(); err != nil {
				s.logger.Warn("library cache write failed", zap.String("lib_code", code), zap.Error(err))
			}
		}
	}
	return items, nil
}

func (s *LibraryService) invalidate(ctx context.Context, code, action, id string) {
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cacheKey(code)).Err(); err != nil {
			s.logger.Warn("library cache invalidate failed", zap.String("lib_code", code), zap.Error(err))
		}
	}
	s.hub.PublishChange(sse.EventLibraryUpdate, action, map[string]string{"lib_code": code, "id": id})
}

// applyColor 根据十六进制或RGB输入补全颜色字段
func applyColor(item *entity.LibraryItem, req *LibraryItemRequest) error {
	if req.ColorHex != nil && strings.TrimSpace(*req.ColorHex) != "" {
		r, g, b, err := ParseHexColor(*req.ColorHex)
		if err != nil {
			return err
		}
		item.ColorR, item.ColorG, item.ColorB = &r, &g, &b
	} else if req.ColorR != nil || req.ColorG != nil || req.ColorB != nil {
		if req.ColorR == nil || req.ColorG == nil || req.ColorB == nil {
			return fmt.Errorf("color_r, color_g and color_b must be set together: %w", ErrInvalidColor)
		}
		if !validRGB(*req.ColorR, *req.ColorG, *req.ColorB) {
			return fmt.Errorf("rgb out of range: %w", ErrInvalidColor)
		}
		r, g, b := *req.ColorR, *req.ColorG, *req.ColorB
		item.ColorR, item.ColorG, item.ColorB = &r, &g, &b
	}
	if item.ColorR == nil || item.ColorG == nil || item.ColorB == nil {
		return nil
	}
	item.ColorHex = HexColor(*item.ColorR, *item.ColorG, *item.ColorB)
	item.ColorName = NearestColorName(*item.ColorR, *item.ColorG, *item.ColorB)
	return nil
}

func validDeleteFlag(v *int) error {
	if v != nil && *v != entity.LibActive && *v != entity.LibDeleted {
		return fmt.Errorf("lib_delete must be 0 or 1: %w", ErrInvalidInput)
	}
	return nil
}

// CreateItem 创建条目
func (s *LibraryService) CreateItem(ctx context.Context, code, userID string, req *LibraryItemRequest) (*entity.LibraryItem, error) {
	m, err := s.master(ctx, code, false)
	if err != nil {
		return nil, err
	}
	if req.LibValue == nil || strings.TrimSpace(*req.LibValue) == "" {
		return nil, fmt.Errorf("lib_value is required: %w", ErrInvalidInput)
	}
	value := strings.TrimSpace(*req.LibValue)
	exists, err := s.repo.ExistsItemValue(ctx, code, value, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s/%s: %w", code, value, ErrDuplicateValue)
	}

	now := time.Now()
	item := &entity.LibraryItem{
		ID:        uuid.New().String()[:32],
		LibCode:   code,
		LibValue:  value,
		LibDelete: entity.LibActive,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.LibDesc != nil {
		item.LibDesc = *req.LibDesc
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if m.IsColor {
		if err := applyColor(item, req); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.invalidate(ctx, code, "item_created", item.ID)
	return item, nil
}

// UpdateItem 更新条目，lib_delete 在 0/1 之间切换实现软删除与恢复
func (s *LibraryService) UpdateItem(ctx context.Context, code, id string, req *LibraryItemRequest) (*entity.LibraryItem, error) {
	m, err := s.master(ctx, code, false)
	if err != nil {
		return nil, err
	}
	if err := validDeleteFlag(req.LibDelete); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, code, id)
	if err != nil {
		return nil, err
	}

	if req.LibValue != nil {
		value := strings.TrimSpace(*req.LibValue)
		if value == "" {
			return nil, fmt.Errorf("lib_value is required: %w", ErrInvalidInput)
		}
		exists, err := s.repo.ExistsItemValue(ctx, code, value, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%s/%s: %w", code, value, ErrDuplicateValue)
		}
		item.LibValue = value
	}
	if req.LibDesc != nil {
		item.LibDesc = *req.LibDesc
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if req.LibDelete != nil {
		item.LibDelete = *req.LibDelete
	}
	if m.IsColor {
		if err := applyColor(item, req); err != nil {
			return nil, err
		}
	}
	item.UpdatedAt = time.Now()
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	s.invalidate(ctx, code, "item_updated", item.ID)
	return item, nil
}

// ListCombos 查询组合条目
func (s *LibraryService) ListCombos(ctx context.Context, code string, includeDeleted bool) ([]entity.LibraryCombo, error) {
	if _, err := s.master(ctx, code, true); err != nil {
		return nil, err
	}
	return s.repo.ListCombos(ctx, code, includeDeleted)
}

// CreateCombo 创建组合条目
func (s *LibraryService) CreateCombo(ctx context.Context, code, userID string, req *LibraryComboRequest) (*entity.LibraryCombo, error) {
	if _, err := s.master(ctx, code, true); err != nil {
		return nil, err
	}
	if req.Code1 == nil || req.Code2 == nil || strings.TrimSpace(*req.Code1) == "" || strings.TrimSpace(*req.Code2) == "" {
		return nil, fmt.Errorf("code_1 and code_2 are required: %w", ErrInvalidInput)
	}
	code1, code2 := strings.TrimSpace(*req.Code1), strings.TrimSpace(*req.Code2)
	exists, err := s.repo.ExistsCombo(ctx, code, code1, code2, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s/%s/%s: %w", code, code1, code2, ErrDuplicateValue)
	}

	now := time.Now()
	combo := &entity.LibraryCombo{
		ID:        uuid.New().String()[:32],
		LibCode:   code,
		Code1:     code1,
		Code2:     code2,
		LibDelete: entity.LibActive,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.LibDesc != nil {
		combo.LibDesc = *req.LibDesc
	}
	if err := s.repo.CreateCombo(ctx, combo); err != nil {
		return nil, fmt.Errorf("create combo: %w", err)
	}
	s.invalidate(ctx, code, "combo_created", combo.ID)
	return combo, nil
}

// UpdateCombo 更新组合条目
func (s *LibraryService) UpdateCombo(ctx context.Context, code, id string, req *LibraryComboRequest) (*entity.LibraryCombo, error) {
	if _, err := s.master(ctx, code, true); err != nil {
		return nil, err
	}
	if err := validDeleteFlag(req.LibDelete); err != nil {
		return nil, err
	}
	combo, err := s.repo.FindCombo(ctx, code, id)
	if err != nil {
		return nil, err
	}
	if req.Code1 != nil {
		combo.Code1 = strings.TrimSpace(*req.Code1)
	}
	if req.Code2 != nil {
		combo.Code2 = strings.TrimSpace(*req.Code2)
	}
	if combo.Code1 == "" || combo.Code2 == "" {
		return nil, fmt.Errorf("code_1 and code_2 are required: %w", ErrInvalidInput)
	}
	if req.Code1 != nil || req.Code2 != nil {
		exists, err := s.repo.ExistsCombo(ctx, code, combo.Code1, combo.Code2, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%s/%s/%s: %w", code, combo.Code1, combo.Code2, ErrDuplicateValue)
		}
	}
	if req.LibDesc != nil {
		combo.LibDesc = *req.LibDesc
	}
	if req.LibDelete != nil {
		combo.LibDelete = *req.LibDelete
	}
	combo.UpdatedAt = time.Now()
	if err := s.repo.UpdateCombo(ctx, combo); err != nil {
		return nil, fmt.Errorf("update combo: %w", err)
	}
	s.invalidate(ctx, code, "combo_updated", combo.ID)
	return combo, nil
}

// ColorMap 返回分类下 取值 -> #RRGGBB 的颜色映射，用于报告着色
func (s *LibraryService) ColorMap(ctx context.Context, code string) (map[string]string, error) {
	items, err := s.ListItems(ctx, code, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, it := range items {
		if it.ColorHex != "" {
			out[strings.ToUpper(it.LibValue)] = it.ColorHex
		}
	}
	return out, nil
}

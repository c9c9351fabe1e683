package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sow"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrConfirmRequired 输入框中还有未添加的报告编号，需要用户确认后再保存
	ErrConfirmRequired = errors.New("unsaved report number requires confirmation")
	// ErrCopyModeRequired 已有报告时添加新报告必须指定复制方式
	ErrCopyModeRequired = errors.New("copy mode required")
	ErrInvalidStatus    = errors.New("invalid status")
)

// SOWService 工作范围服务
type SOWService struct {
	repo          *repository.SOWRepository
	structureRepo *repository.StructureRepository
	jobPackRepo   *repository.JobPackRepository
	hub           *sse.Hub
	logger        *zap.Logger
}

func NewSOWService(repo *repository.SOWRepository, structureRepo *repository.StructureRepository, jobPackRepo *repository.JobPackRepository, hub *sse.Hub, logger *zap.Logger) *SOWService {
	return &SOWService{repo: repo, structureRepo: structureRepo, jobPackRepo: jobPackRepo, hub: hub, logger: logger}
}

// SOWView 看板使用的SOW数据：表头、检验项与编辑器状态
type SOWView struct {
	Header  *entity.SOW       `json:"header"`
	Items   []entity.SOWItem  `json:"items"`
	State   sow.State         `json:"state"`
	Version int               `json:"version"`
	Ranges  map[string][]Span `json:"ranges"`
}

// Span 分段的JSON表示
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toSpans(scopes []sow.Scope) []Span {
	out := make([]Span, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, Span{Start: s.Start, End: s.End})
	}
	return out
}

func emptyView() *SOWView {
	return &SOWView{
		Items:  []entity.SOWItem{},
		State:  sow.NewEditor(nil).Snapshot(),
		Ranges: map[string][]Span{},
	}
}

func buildView(header *entity.SOW, e *sow.Editor) *SOWView {
	v := &SOWView{
		Header: header,
		Items:  []entity.SOWItem{},
		State:  e.Snapshot(),
		Ranges: make(map[string][]Span),
	}
	if header != nil {
		v.Version = header.Version
		if header.Items != nil {
			v.Items = header.Items
		}
		h := *header
		h.Items = nil
		v.Header = &h
	}
	for id, on := range v.State.SplitByElevation {
		if on {
			v.Ranges[id] = toSpans(e.Ranges(id))
		}
	}
	return v
}

// Get 加载SOW并重建编辑器状态。任何读取失败都记录日志并返回空状态，不返回旧数据。
func (s *SOWService) Get(ctx context.Context, jobPackID, structureID string) *SOWView {
	components, err := s.structureRepo.ListComponents(ctx, structureID)
	if err != nil {
		s.logger.Error("load sow components failed",
			zap.String("jobpack_id", jobPackID), zap.String("structure_id", structureID), zap.Error(err))
		return emptyView()
	}
	header, err := s.repo.FindByJobPackStructure(ctx, jobPackID, structureID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("load sow failed",
				zap.String("jobpack_id", jobPackID), zap.String("structure_id", structureID), zap.Error(err))
		}
		return buildView(nil, sow.NewEditor(components))
	}
	return buildView(header, sow.Load(header, components))
}

// SaveHeaderRequest 保存表头请求
type SaveHeaderRequest struct {
	JobPackID     string                `json:"jobpack_id" binding:"required"`
	StructureID   string                `json:"structure_id" binding:"required"`
	StructureType string                `json:"structure_type"`
	ReportNumbers []entity.ReportNumber `json:"report_numbers"`
	Metadata      json.RawMessage       `json:"metadata"`
}

// SaveHeader 创建或更新表头
func (s *SOWService) SaveHeader(ctx context.Context, userID string, req *SaveHeaderRequest) (*entity.SOW, error) {
	if err := s.checkScopeOwner(ctx, req.JobPackID, req.StructureID); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(req.ReportNumbers))
	for i := range req.ReportNumbers {
		rn := &req.ReportNumbers[i]
		rn.Number = strings.TrimSpace(rn.Number)
		if rn.Number == "" {
			return nil, sow.ErrEmptyReportNumber
		}
		if seen[rn.Number] {
			return nil, fmt.Errorf("%s: %w", rn.Number, sow.ErrDuplicateReportNumber)
		}
		seen[rn.Number] = true
	}

	header := &entity.SOW{
		JobPackID:     req.JobPackID,
		StructureID:   req.StructureID,
		StructureType: req.StructureType,
		ReportNumbers: req.ReportNumbers,
		Metadata:      datatypes.JSON(req.Metadata),
		CreatedBy:     userID,
	}
	var removed []string
	if existing, err := s.repo.FindByJobPackStructure(ctx, req.JobPackID, req.StructureID); err == nil {
		for _, rn := range existing.ReportNumbers {
			if !seen[rn.Number] {
				removed = append(removed, rn.Number)
			}
		}
		tracked := make(map[string][]string)
		for report, ids := range existing.TrackedComponents.Data() {
			if report == sow.NullReport || seen[report] {
				tracked[report] = ids
			}
		}
		header.TrackedComponents = datatypes.NewJSONType(tracked)
		if len(req.Metadata) == 0 {
			header.Metadata = existing.Metadata
		}
	}
	// 移除的报告编号连同其检验项一起删除
	if err := s.repo.UpsertHeader(ctx, header, removed...); err != nil {
		return nil, fmt.Errorf("save sow header: %w", err)
	}
	s.publish(header, "header_saved")
	return s.repo.FindByID(ctx, header.ID)
}

// UpsertItemRequest 单个检验项写入请求
type UpsertItemRequest struct {
	ID                string                    `json:"id"`
	SOWID             string                    `json:"sow_id" binding:"required"`
	ComponentID       string                    `json:"component_id"`
	InspectionTypeID  string                    `json:"inspection_type_id"`
	ReportNumber      string                    `json:"report_number"`
	ElevationRequired bool                      `json:"elevation_required"`
	ElevationData     []entity.ElevationSegment `json:"elevation_data"`
	Status            string                    `json:"status"`
}

func validStatus(status string) bool {
	switch status {
	case "", entity.SOWStatusPending, entity.SOWStatusInProgress, entity.SOWStatusCompleted:
		return true
	}
	return false
}

// UpsertItem 写入单个检验项。更新已有检验项时不修改构件和检验类型。
func (s *SOWService) UpsertItem(ctx context.Context, req *UpsertItemRequest) (*entity.SOWItem, error) {
	header, err := s.repo.FindByID(ctx, req.SOWID)
	if err != nil {
		return nil, err
	}
	if !validStatus(req.Status) {
		return nil, fmt.Errorf("%q: %w", req.Status, ErrInvalidStatus)
	}
	for _, seg := range req.ElevationData {
		if !validStatus(seg.Status) {
			return nil, fmt.Errorf("%q: %w", seg.Status, ErrInvalidStatus)
		}
	}

	var item *entity.SOWItem
	if req.ID != "" {
		item, err = s.repo.FindItem(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if item.SOWID != header.ID {
			return nil, repository.ErrNotFound
		}
	} else {
		if req.ComponentID == "" || req.InspectionTypeID == "" {
			return nil, fmt.Errorf("component_id and inspection_type_id are required: %w", ErrInvalidInput)
		}
		item = &entity.SOWItem{
			SOWID:            header.ID,
			ComponentID:      req.ComponentID,
			InspectionTypeID: req.InspectionTypeID,
		}
	}

	report := strings.TrimSpace(req.ReportNumber)
	if report == sow.NullReport {
		report = ""
	}
	if report != "" && !headerHasReport(header, report) {
		return nil, fmt.Errorf("%s: %w", report, sow.ErrUnknownReport)
	}

	component, err := s.structureRepo.FindComponent(ctx, item.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", item.ComponentID, err)
	}
	if component.StructureID != header.StructureID {
		return nil, fmt.Errorf("%s: %w", item.ComponentID, sow.ErrUnknownComponent)
	}
	if req.ElevationRequired {
		if err := checkSegments(component, req.ElevationData); err != nil {
			return nil, err
		}
	}

	item.ReportNumber = report
	item.ElevationRequired = req.ElevationRequired && len(req.ElevationData) > 0
	item.ElevationData = nil
	if item.ElevationRequired {
		item.ElevationData = normalizeSegments(req.ElevationData)
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save sow item: %w", err)
	}
	s.publish(header, "item_saved")
	return item, nil
}

func headerHasReport(header *entity.SOW, number string) bool {
	for _, rn := range header.ReportNumbers {
		if rn.Number == number {
			return true
		}
	}
	return false
}

func checkSegments(c *entity.Component, segs []entity.ElevationSegment) error {
	min, max, ok := c.ElevationBounds()
	if !ok {
		return fmt.Errorf("%s: %w", c.ID, sow.ErrNoElevation)
	}
	for _, seg := range segs {
		r := sow.Range(seg.Start, seg.End)
		if r.Start == r.End || r.End < min || r.Start > max {
			return fmt.Errorf("%s [%g, %g]: %w", c.ID, seg.Start, seg.End, sow.ErrRangeOutOfBounds)
		}
	}
	return nil
}

func normalizeSegments(segs []entity.ElevationSegment) []entity.ElevationSegment {
	out := make([]entity.ElevationSegment, 0, len(segs))
	for _, seg := range segs {
		r := sow.Range(seg.Start, seg.End)
		seg.Start, seg.End = r.Start, r.End
		if seg.Status == "" {
			seg.Status = entity.SOWStatusPending
		}
		out = append(out, seg)
	}
	return out
}

// DeleteItem 删除检验项
func (s *SOWService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	if header, err := s.repo.FindByID(ctx, item.SOWID); err == nil {
		s.publish(header, "item_deleted")
	}
	return nil
}

// SaveMatrixRequest 整体保存请求
type SaveMatrixRequest struct {
	JobPackID     string          `json:"jobpack_id" binding:"required"`
	StructureID   string          `json:"structure_id" binding:"required"`
	StructureType string          `json:"structure_type"`
	Version       int             `json:"version"`
	State         sow.State       `json:"state"`
	Metadata      json.RawMessage `json:"metadata"`
	// PendingReportNumber 输入框中尚未添加的报告编号
	PendingReportNumber string `json:"pending_report_number"`
	Confirm             bool   `json:"confirm"`
}

// SaveMatrix 将编辑器状态与已持久化检验项对账，并在一个事务中写入
func (s *SOWService) SaveMatrix(ctx context.Context, userID string, req *SaveMatrixRequest) (*SOWView, error) {
	if len(req.State.ReportNumbers) == 0 {
		return nil, sow.ErrNoReportNumbers
	}
	if strings.TrimSpace(req.PendingReportNumber) != "" && !req.Confirm {
		return nil, ErrConfirmRequired
	}
	if err := s.checkScopeOwner(ctx, req.JobPackID, req.StructureID); err != nil {
		return nil, err
	}

	components, err := s.structureRepo.ListComponents(ctx, req.StructureID)
	if err != nil {
		return nil, err
	}

	var existing []entity.SOWItem
	var current *entity.SOW
	current, err = s.repo.FindByJobPackStructure(ctx, req.JobPackID, req.StructureID)
	switch {
	case err == nil:
		existing = current.Items
	case errors.Is(err, repository.ErrNotFound):
		current = nil
	default:
		return nil, err
	}

	e, err := sow.Restore(req.State, components, existing)
	if err != nil {
		return nil, err
	}
	plan := e.Plan(existing)

	header := &entity.SOW{
		JobPackID:         req.JobPackID,
		StructureID:       req.StructureID,
		StructureType:     req.StructureType,
		ReportNumbers:     e.ReportNumbers(),
		TrackedComponents: datatypes.NewJSONType(e.TrackedComponents()),
		Metadata:          datatypes.JSON(req.Metadata),
		CreatedBy:         userID,
	}
	if current != nil {
		if header.StructureType == "" {
			header.StructureType = current.StructureType
		}
		if len(req.Metadata) == 0 {
			header.Metadata = current.Metadata
		}
	}

	if err := s.repo.SaveMatrix(ctx, header, plan.Upserts, plan.Deletes, req.Version); err != nil {
		return nil, err
	}
	s.logger.Info("sow saved",
		zap.String("sow_id", header.ID),
		zap.Int("upserts", len(plan.Upserts)),
		zap.Int("deletes", len(plan.Deletes)),
		zap.Int("version", header.Version))
	s.publish(header, "matrix_saved")
	return s.Get(ctx, req.JobPackID, req.StructureID), nil
}

// AddReportRequest 添加报告编号请求
type AddReportRequest struct {
	JobPackID    string              `json:"jobpack_id" binding:"required"`
	StructureID  string              `json:"structure_id" binding:"required"`
	Version      int                 `json:"version"`
	ReportNumber entity.ReportNumber `json:"report_number"`
	CopyMode     sow.CopyMode        `json:"copy_mode"`
	SourceReport string              `json:"source_report"`
}

// CopyDecision 需要用户选择复制方式时返回的内容
type CopyDecision struct {
	PendingReport entity.ReportNumber   `json:"pending_report"`
	Reports       []entity.ReportNumber `json:"reports"`
	Options       []sow.CopyMode        `json:"options"`
}

// CopyDecisionError 携带待决策信息的错误
type CopyDecisionError struct {
	Decision CopyDecision
}

func (e *CopyDecisionError) Error() string {
	return fmt.Sprintf("report %s: %s", e.Decision.PendingReport.Number, ErrCopyModeRequired)
}

func (e *CopyDecisionError) Unwrap() error {
	return ErrCopyModeRequired
}

// AddReport 添加报告编号。已有报告时必须提供复制方式，否则返回 CopyDecisionError。
func (s *SOWService) AddReport(ctx context.Context, userID string, req *AddReportRequest) (*SOWView, error) {
	e, current, err := s.loadForEdit(ctx, req.JobPackID, req.StructureID)
	if err != nil {
		return nil, err
	}

	res, err := e.AddReportNumber(req.ReportNumber)
	if err != nil {
		return nil, err
	}
	if res == sow.CopyDecisionRequired {
		if req.CopyMode == "" {
			return nil, &CopyDecisionError{Decision: CopyDecision{
				PendingReport: *e.Pending(),
				Reports:       e.ReportNumbers(),
				Options:       []sow.CopyMode{sow.CopyEmpty, sow.CopyAll, sow.CopyPending},
			}}
		}
		if err := e.ResolvePendingReport(req.CopyMode, req.SourceReport); err != nil {
			return nil, err
		}
	}
	return s.persist(ctx, userID, req.JobPackID, req.StructureID, req.Version, e, current)
}

// RemoveReport 删除报告编号及其全部检验项，不能删除最后一个报告编号
func (s *SOWService) RemoveReport(ctx context.Context, userID, jobPackID, structureID, number string, version int) (*SOWView, error) {
	e, current, err := s.loadForEdit(ctx, jobPackID, structureID)
	if err != nil {
		return nil, err
	}
	if rns := e.ReportNumbers(); len(rns) == 1 && rns[0].Number == number {
		return nil, sow.ErrLastReportNumber
	}
	if err := e.RemoveReportNumber(number); err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, jobPackID, structureID, version, e, current)
}

// ToggleRequest 单个选择项切换请求，(0,0) 表示整根构件
type ToggleRequest struct {
	JobPackID        string  `json:"jobpack_id" binding:"required"`
	StructureID      string  `json:"structure_id" binding:"required"`
	Version          int     `json:"version"`
	ReportNumber     string  `json:"report_number" binding:"required"`
	ComponentID      string  `json:"component_id" binding:"required"`
	InspectionTypeID string  `json:"inspection_type_id" binding:"required"`
	ElevationStart   float64 `json:"elevation_start"`
	ElevationEnd     float64 `json:"elevation_end"`
}

// Toggle 在服务端切换一个选择项并保存，整根构件与分段互斥
func (s *SOWService) Toggle(ctx context.Context, userID string, req *ToggleRequest) (*SOWView, error) {
	e, current, err := s.loadForEdit(ctx, req.JobPackID, req.StructureID)
	if err != nil {
		return nil, err
	}
	if len(e.ReportNumbers()) == 0 {
		return nil, sow.ErrNoReportNumbers
	}
	scope := sow.ScopeFromWire(req.ElevationStart, req.ElevationEnd)
	if _, err := e.Toggle(strings.TrimSpace(req.ReportNumber), req.ComponentID, req.InspectionTypeID, scope); err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, req.JobPackID, req.StructureID, req.Version, e, current)
}

func (s *SOWService) loadForEdit(ctx context.Context, jobPackID, structureID string) (*sow.Editor, *entity.SOW, error) {
	if err := s.checkScopeOwner(ctx, jobPackID, structureID); err != nil {
		return nil, nil, err
	}
	components, err := s.structureRepo.ListComponents(ctx, structureID)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.repo.FindByJobPackStructure(ctx, jobPackID, structureID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}
	if err != nil {
		current = nil
	}
	return sow.Load(current, components), current, nil
}

func (s *SOWService) persist(ctx context.Context, userID, jobPackID, structureID string, version int, e *sow.Editor, current *entity.SOW) (*SOWView, error) {
	var existing []entity.SOWItem
	header := &entity.SOW{
		JobPackID:         jobPackID,
		StructureID:       structureID,
		ReportNumbers:     e.ReportNumbers(),
		TrackedComponents: datatypes.NewJSONType(e.TrackedComponents()),
		CreatedBy:         userID,
	}
	if current != nil {
		existing = current.Items
		header.StructureType = current.StructureType
		header.Metadata = current.Metadata
	} else if st, err := s.structureRepo.FindStructure(ctx, structureID); err == nil {
		header.StructureType = st.Type
	}

	plan := e.Plan(existing)
	if err := s.repo.SaveMatrix(ctx, header, plan.Upserts, plan.Deletes, version); err != nil {
		return nil, err
	}
	s.publish(header, "reports_changed")
	return s.Get(ctx, jobPackID, structureID), nil
}

// Ranges 计算构件的显示分段
func (s *SOWService) Ranges(ctx context.Context, componentID string, breakpoints []float64) ([]Span, error) {
	c, err := s.structureRepo.FindComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	e := sow.NewEditor([]entity.Component{*c})
	for _, b := range breakpoints {
		if err := e.AddBreakpoint(componentID, b); err != nil {
			return nil, err
		}
	}
	scopes := e.Ranges(componentID)
	if scopes == nil {
		return nil, fmt.Errorf("%s: %w", componentID, sow.ErrNoElevation)
	}
	return toSpans(scopes), nil
}

func (s *SOWService) checkScopeOwner(ctx context.Context, jobPackID, structureID string) error {
	if _, err := s.jobPackRepo.FindByID(ctx, jobPackID); err != nil {
		return fmt.Errorf("jobpack %s: %w", jobPackID, err)
	}
	if _, err := s.structureRepo.FindStructure(ctx, structureID); err != nil {
		return fmt.Errorf("structure %s: %w", structureID, err)
	}
	return nil
}

func (s *SOWService) publish(header *entity.SOW, action string) {
	s.hub.PublishChange(sse.EventSOWUpdate, action, map[string]string{
		"sow_id":       header.ID,
		"jobpack_id":   header.JobPackID,
		"structure_id": header.StructureID,
	})
}

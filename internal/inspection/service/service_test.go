package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/jobpack"
	"github.com/bitfantasy/aims/internal/inspection/report"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/sow"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/bitfantasy/aims/internal/inspection/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	svc   *Services
	store *storage.MemoryStore
	hub   *sse.Hub
	fx    *testutil.Fixture
	jp    *entity.JobPack
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := storage.NewMemoryStore()
	hub := sse.NewHub(nil)
	fx := testutil.SeedFixture(t, db)
	jp := testutil.SeedJobPack(t, db, fx, "jp-001", "JP-2026-0001")
	svc := NewServices(repository.NewRepositories(db), nil, store, hub, zap.NewNop())
	return &testEnv{db: db, svc: svc, store: store, hub: hub, fx: fx, jp: jp}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNearestColorName(t *testing.T) {
	cases := []struct {
		r, g, b int
		want    string
	}{
		{254, 1, 1, "Red"},
		{0, 128, 0, "Green"},
		{250, 250, 250, "White"},
		{10, 10, 200, CustomColorName},
		// 距离恰好为30不算匹配
		{255, 0, 30, CustomColorName},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NearestColorName(c.r, c.g, c.b), "%d,%d,%d", c.r, c.g, c.b)
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#fe0101")
	require.NoError(t, err)
	assert.Equal(t, []int{254, 1, 1}, []int{r, g, b})

	r, g, b, err = ParseHexColor("0F0")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 255, 0}, []int{r, g, b})

	_, _, _, err = ParseHexColor("#12345")
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, _, _, err = ParseHexColor("#GGGGGG")
	assert.ErrorIs(t, err, ErrInvalidColor)

	assert.Equal(t, "#FE0101", HexColor(254, 1, 1))
}

func TestLibraryColorItemsAndSoftDelete(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	lib := env.svc.Library

	_, err := lib.CreateMaster(ctx, &CreateMasterRequest{LibCode: "priority", LibName: "Anomaly priority", IsColor: true})
	require.NoError(t, err)
	_, err = lib.CreateMaster(ctx, &CreateMasterRequest{LibCode: "PRIORITY", LibName: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateValue)

	p1, err := lib.CreateItem(ctx, "PRIORITY", "u1", &LibraryItemRequest{
		LibValue: strPtr("P1"), ColorR: intPtr(254), ColorG: intPtr(1), ColorB: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Red", p1.ColorName)
	assert.Equal(t, "#FE0101", p1.ColorHex)

	p2, err := lib.CreateItem(ctx, "PRIORITY", "u1", &LibraryItemRequest{LibValue: strPtr("P2"), ColorHex: strPtr("#0A0AC8")})
	require.NoError(t, err)
	assert.Equal(t, CustomColorName, p2.ColorName)
	require.NotNil(t, p2.ColorB)
	assert.Equal(t, 200, *p2.ColorB)

	_, err = lib.CreateItem(ctx, "PRIORITY", "u1", &LibraryItemRequest{LibValue: strPtr("P3"), ColorR: intPtr(1)})
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, err = lib.CreateItem(ctx, "PRIORITY", "u1", &LibraryItemRequest{LibValue: strPtr("P1")})
	assert.ErrorIs(t, err, ErrDuplicateValue)

	colors, err := lib.ColorMap(ctx, "PRIORITY")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"P1": "#FE0101", "P2": "#0A0AC8"}, colors)

	// 软删除后不再出现在默认列表中，恢复后重新出现
	_, err = lib.UpdateItem(ctx, "PRIORITY", p2.ID, &LibraryItemRequest{LibDelete: intPtr(entity.LibDeleted)})
	require.NoError(t, err)
	items, err := lib.ListItems(ctx, "PRIORITY", false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	items, err = lib.ListItems(ctx, "PRIORITY", true)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = lib.UpdateItem(ctx, "PRIORITY", p2.ID, &LibraryItemRequest{LibDelete: intPtr(2)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = lib.UpdateItem(ctx, "PRIORITY", p2.ID, &LibraryItemRequest{LibDelete: intPtr(entity.LibActive)})
	require.NoError(t, err)
	items, err = lib.ListItems(ctx, "PRIORITY", false)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLibraryComboSeparation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	lib := env.svc.Library

	_, err := lib.CreateMaster(ctx, &CreateMasterRequest{LibCode: "CP_ZONE", LibName: "CP zones", IsCombo: true})
	require.NoError(t, err)
	_, err = lib.CreateMaster(ctx, &CreateMasterRequest{LibCode: "MATERIAL", LibName: "Materials"})
	require.NoError(t, err)

	_, err = lib.ListItems(ctx, "CP_ZONE", false)
	assert.ErrorIs(t, err, ErrComboLibrary)
	_, err = lib.ListCombos(ctx, "MATERIAL", false)
	assert.ErrorIs(t, err, ErrNotComboLibrary)

	combo, err := lib.CreateCombo(ctx, "CP_ZONE", "u1", &LibraryComboRequest{Code1: strPtr("SPLASH"), Code2: strPtr("A")})
	require.NoError(t, err)
	_, err = lib.CreateCombo(ctx, "CP_ZONE", "u1", &LibraryComboRequest{Code1: strPtr("SPLASH"), Code2: strPtr("A")})
	assert.ErrorIs(t, err, ErrDuplicateValue)

	updated, err := lib.UpdateCombo(ctx, "CP_ZONE", combo.ID, &LibraryComboRequest{LibDelete: intPtr(entity.LibDeleted)})
	require.NoError(t, err)
	assert.Equal(t, entity.LibDeleted, updated.LibDelete)

	combos, err := lib.ListCombos(ctx, "CP_ZONE", false)
	require.NoError(t, err)
	assert.Empty(t, combos)
}

func matrixRequest(env *testEnv, version int, keys ...sow.WireKey) *SaveMatrixRequest {
	return &SaveMatrixRequest{
		JobPackID:   env.jp.ID,
		StructureID: env.fx.Structure.ID,
		Version:     version,
		State: sow.State{
			ReportNumbers: []entity.ReportNumber{{Number: "R-01", Date: "2026-05-01"}},
			SelectedItems: keys,
		},
	}
}

func wire(report, componentID, typeID string, start, end float64) sow.WireKey {
	return sow.WireKey{ReportNumber: report, ComponentID: componentID, InspectionTypeID: typeID, ElevationStart: start, ElevationEnd: end}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSaveMatrixWithoutReportsWritesNothing(t *testing.T) {
	env := setupServices(t)

	req := matrixRequest(env, 0)
	req.State.ReportNumbers = nil
	_, err := env.svc.SOW.SaveMatrix(context.Background(), "u1", req)
	assert.ErrorIs(t, err, sow.ErrNoReportNumbers)
	assert.Zero(t, countRows(t, env.db, &entity.SOW{}))
	assert.Zero(t, countRows(t, env.db, &entity.SOWItem{}))
}

func TestSaveMatrixPendingReportNeedsConfirm(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	req := matrixRequest(env, 0, wire("R-01", "cmp-003", "it-gvi", 0, 0))
	req.PendingReportNumber = "R-02"
	_, err := env.svc.SOW.SaveMatrix(ctx, "u1", req)
	assert.ErrorIs(t, err, ErrConfirmRequired)
	assert.Zero(t, countRows(t, env.db, &entity.SOW{}))

	req.Confirm = true
	view, err := env.svc.SOW.SaveMatrix(ctx, "u1", req)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestSaveMatrixIsIdempotentAndVersioned(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	keys := []sow.WireKey{
		wire("R-01", "cmp-001", "it-gvi", 0, 0),
		wire("R-01", "cmp-003", "it-cp", 0, 0),
	}

	first, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, 0, keys...))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	require.Len(t, first.Items, 2)
	ids := map[string]bool{first.Items[0].ID: true, first.Items[1].ID: true}

	second, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, first.Version, keys...))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	require.Len(t, second.Items, 2)
	for _, it := range second.Items {
		assert.True(t, ids[it.ID], "item %s was recreated", it.ID)
	}
	assert.EqualValues(t, 2, countRows(t, env.db, &entity.SOWItem{}))

	_, err = env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, first.Version, keys...))
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	// 取消一个选择后对应检验项被删除
	third, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, second.Version, keys[0]))
	require.NoError(t, err)
	assert.Equal(t, 3, third.Version)
	assert.Len(t, third.Items, 1)
	assert.EqualValues(t, 1, countRows(t, env.db, &entity.SOWItem{}))
}

func TestSaveMatrixElevationSegments(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	req := matrixRequest(env, 0,
		wire("R-01", "cmp-001", "it-gvi", 10, -10),
		wire("R-01", "cmp-001", "it-gvi", -10, -40),
	)
	req.State.Breakpoints = map[string][]float64{"cmp-001": {-10}}
	req.State.SplitByElevation = map[string]bool{"cmp-001": true}

	view, err := env.svc.SOW.SaveMatrix(ctx, "u1", req)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	item := view.Items[0]
	assert.True(t, item.ElevationRequired)
	require.Len(t, item.ElevationData, 2)
	assert.Equal(t, 10.0, item.ElevationData[0].Start)
	assert.Equal(t, -10.0, item.ElevationData[0].End)
	assert.Equal(t, entity.SOWStatusPending, item.ElevationData[1].Status)

	assert.Equal(t, []Span{{Start: 10, End: -10}, {Start: -10, End: -40}}, view.Ranges["cmp-001"])
	assert.Equal(t, []float64{-10}, view.State.Breakpoints["cmp-001"])

	// 超出构件范围的分段点被拒绝
	bad := matrixRequest(env, view.Version, wire("R-01", "cmp-001", "it-gvi", 0, 0))
	bad.State.Breakpoints = map[string][]float64{"cmp-001": {25}}
	_, err = env.svc.SOW.SaveMatrix(ctx, "u1", bad)
	assert.ErrorIs(t, err, sow.ErrElevationOutOfBounds)
}

func TestAddReportRequiresCopyDecision(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	base, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, 0,
		wire("R-01", "cmp-001", "it-gvi", 0, 0),
		wire("R-01", "cmp-003", "it-cp", 0, 0),
	))
	require.NoError(t, err)

	add := &AddReportRequest{
		JobPackID:    env.jp.ID,
		StructureID:  env.fx.Structure.ID,
		Version:      base.Version,
		ReportNumber: entity.ReportNumber{Number: "R-02", Date: "2026-06-01"},
	}
	_, err = env.svc.SOW.AddReport(ctx, "u1", add)
	var decision *CopyDecisionError
	require.ErrorAs(t, err, &decision)
	assert.ErrorIs(t, err, ErrCopyModeRequired)
	assert.Equal(t, "R-02", decision.Decision.PendingReport.Number)
	assert.Len(t, decision.Decision.Options, 3)

	add.CopyMode = sow.CopyAll
	add.SourceReport = "R-01"
	view, err := env.svc.SOW.AddReport(ctx, "u1", add)
	require.NoError(t, err)
	assert.Len(t, view.State.ReportNumbers, 2)
	assert.Len(t, view.Items, 4)

	view, err = env.svc.SOW.RemoveReport(ctx, "u1", env.jp.ID, env.fx.Structure.ID, "R-02", view.Version)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	_, err = env.svc.SOW.RemoveReport(ctx, "u1", env.jp.ID, env.fx.Structure.ID, "R-01", view.Version)
	assert.ErrorIs(t, err, sow.ErrLastReportNumber)
}

func TestSOWGetMissingReturnsEmptyState(t *testing.T) {
	env := setupServices(t)
	view := env.svc.SOW.Get(context.Background(), env.jp.ID, env.fx.Structure.ID)
	assert.Nil(t, view.Header)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.State.ReportNumbers)
}

func TestSOWGetLoadFailureReturnsEmptyState(t *testing.T) {
	for _, table := range []string{"sow_items", "structure_components"} {
		t.Run(table, func(t *testing.T) {
			env := setupServices(t)
			ctx := context.Background()

			_, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, 0, wire("R-01", "cmp-003", "it-gvi", 0, 0)))
			require.NoError(t, err)
			require.NoError(t, env.db.Exec("DROP TABLE "+table).Error)

			view := env.svc.SOW.Get(ctx, env.jp.ID, env.fx.Structure.ID)
			require.NotNil(t, view)
			assert.Nil(t, view.Header)
			assert.Empty(t, view.Items)
			assert.Empty(t, view.State.ReportNumbers)
			assert.Empty(t, view.State.SelectedItems)
			assert.Zero(t, view.Version)
		})
	}
}

func TestSaveHeaderPrunesRemovedReports(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	req := matrixRequest(env, 0,
		wire("R-01", "cmp-001", "it-gvi", 0, 0),
		wire("R-02", "cmp-003", "it-cp", 0, 0),
	)
	req.State.ReportNumbers = append(req.State.ReportNumbers, entity.ReportNumber{Number: "R-02", Date: "2026-06-01"})
	first, err := env.svc.SOW.SaveMatrix(ctx, "u1", req)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)

	header, err := env.svc.SOW.SaveHeader(ctx, "u1", &SaveHeaderRequest{
		JobPackID:     env.jp.ID,
		StructureID:   env.fx.Structure.ID,
		ReportNumbers: []entity.ReportNumber{{Number: "R-01", Date: "2026-05-01"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, header.TrackedComponents.Data(), "R-02")
	assert.EqualValues(t, 1, countRows(t, env.db, &entity.SOWItem{}))

	view := env.svc.SOW.Get(ctx, env.jp.ID, env.fx.Structure.ID)
	require.Len(t, view.State.ReportNumbers, 1)
	assert.NotContains(t, view.State.ComponentsMap, "R-02")
	for _, k := range view.State.SelectedItems {
		assert.NotEqual(t, "R-02", k.ReportNumber)
	}

	// 加载的状态可以原样保存
	saved, err := env.svc.SOW.SaveMatrix(ctx, "u1", &SaveMatrixRequest{
		JobPackID:   env.jp.ID,
		StructureID: env.fx.Structure.ID,
		Version:     view.Version,
		State:       view.State,
	})
	require.NoError(t, err)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "R-01", saved.Items[0].ReportNumber)
}

func TestSOWToggleSwitchesWholeAndRange(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	first, err := env.svc.SOW.SaveMatrix(ctx, "u1", matrixRequest(env, 0))
	require.NoError(t, err)
	require.Empty(t, first.Items)

	req := &ToggleRequest{
		JobPackID:        env.jp.ID,
		StructureID:      env.fx.Structure.ID,
		Version:          first.Version,
		ReportNumber:     "R-01",
		ComponentID:      "cmp-001",
		InspectionTypeID: "it-gvi",
	}
	view, err := env.svc.SOW.Toggle(ctx, "u1", req)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].ElevationRequired)
	itemID := view.Items[0].ID

	req.Version = view.Version
	req.ElevationStart, req.ElevationEnd = 10, -10
	view, err = env.svc.SOW.Toggle(ctx, "u1", req)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, itemID, view.Items[0].ID)
	assert.True(t, view.Items[0].ElevationRequired)
	require.Len(t, view.Items[0].ElevationData, 1)
	assert.Equal(t, 10.0, view.Items[0].ElevationData[0].Start)

	// 再次切换同一分段即取消选择
	req.Version = view.Version
	view, err = env.svc.SOW.Toggle(ctx, "u1", req)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	req.Version = view.Version
	req.ComponentID = "cmp-003"
	_, err = env.svc.SOW.Toggle(ctx, "u1", req)
	assert.ErrorIs(t, err, sow.ErrNoElevation)
}

func TestSOWExportExcel(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	req := matrixRequest(env, 0,
		wire("R-01", "cmp-001", "it-gvi", 10, -10),
		wire("R-01", "cmp-001", "it-gvi", -10, -40),
		wire("R-01", "cmp-003", "it-cp", 0, 0),
	)
	req.State.Breakpoints = map[string][]float64{"cmp-001": {-10}}
	req.State.SplitByElevation = map[string]bool{"cmp-001": true}
	_, err := env.svc.SOW.SaveMatrix(ctx, "u1", req)
	require.NoError(t, err)

	f, name, err := env.svc.SOW.ExportExcel(ctx, env.jp.ID, env.fx.Structure.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "JP-2026-0001_Platform_Alpha_SOW.xlsx", name)

	rows, err := f.GetRows("SOW")
	require.NoError(t, err)
	// 表头 + 两个分段 + 一个整根构件
	assert.Len(t, rows, 4)
	assert.Equal(t, "报告编号", rows[0][0])
}

func TestJobPackCreateRevalidates(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	req := &jobpack.CreateRequest{
		Name:         "Platform Alpha 2026",
		ContractorID: env.fx.Contractor.ID,
		Mode:         jobpack.ModeComponent,
		StartDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Structures: []jobpack.StructureSelection{{
			StructureID:     env.fx.Structure.ID,
			ComponentIDs:    []string{"cmp-001", "cmp-003"},
			InspectionCodes: []string{"GVI", "CP"},
		}},
	}
	jp, err := env.svc.JobPack.Create(ctx, "u1", req)
	require.NoError(t, err)
	assert.Regexp(t, `^JP-\d{4}-\d{4}$`, jp.JobPackNo)
	assert.Len(t, jp.Components, 2)
	assert.Len(t, jp.Inspections, 2)
	require.NotNil(t, jp.Contractor)

	bad := *req
	bad.Structures = []jobpack.StructureSelection{{
		StructureID:     env.fx.Structure.ID,
		ComponentIDs:    []string{"cmp-999"},
		InspectionCodes: []string{"GVI"},
	}}
	_, err = env.svc.JobPack.Create(ctx, "u1", &bad)
	assert.ErrorIs(t, err, jobpack.ErrStepInvalid)

	bad.Structures[0].ComponentIDs = nil
	_, err = env.svc.JobPack.Create(ctx, "u1", &bad)
	assert.ErrorIs(t, err, jobpack.ErrStepInvalid)

	types, err := env.svc.JobPack.InspectionTypes(ctx, true)
	require.NoError(t, err)
	assert.Len(t, types, 2)
}

func TestAttachmentUploadTreeDelete(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	att := env.svc.Attachment

	platform, err := att.Upload(ctx, "u1", &UploadAttachmentRequest{SourceType: entity.SourcePlatform, SourceID: env.fx.Structure.ID},
		bytes.NewReader([]byte("drawing")), "general arrangement.pdf", 7, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, env.fx.Structure.ID, platform.StructureID)
	assert.Contains(t, platform.ObjectPath, "platform/st-001/")
	assert.Contains(t, platform.ObjectPath, "_general_arrangement.pdf")
	assert.True(t, env.store.Has(storage.BucketAttachments, platform.ObjectPath))

	_, err = att.Upload(ctx, "u1", &UploadAttachmentRequest{SourceType: entity.SourceComponent, SourceID: "cmp-001", StructureID: env.fx.Structure.ID},
		bytes.NewReader([]byte("photo")), "leg.jpg", 5, "image/jpeg")
	require.NoError(t, err)

	_, err = att.Upload(ctx, "u1", &UploadAttachmentRequest{SourceType: "vessel", SourceID: "x"},
		bytes.NewReader(nil), "a.txt", 0, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidInput)

	tree, err := att.Tree(ctx, env.fx.Structure.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Total)
	require.Len(t, tree.Groups, 2)
	assert.Equal(t, entity.SourceComponent, tree.Groups[0].SourceType)
	assert.Equal(t, entity.SourcePlatform, tree.Groups[1].SourceType)

	require.NoError(t, att.Delete(ctx, platform.ID))
	assert.False(t, env.store.Has(storage.BucketAttachments, platform.ObjectPath))
	list, err := att.List(ctx, entity.SourcePlatform, env.fx.Structure.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAttachmentWithoutStorage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewServices(repository.NewRepositories(db), nil, nil, nil, zap.NewNop())
	_, err := svc.Attachment.Upload(context.Background(), "u1",
		&UploadAttachmentRequest{SourceType: entity.SourcePlatform, SourceID: "st-001"},
		bytes.NewReader([]byte("x")), "x.txt", 1, "text/plain")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestReportGenerateUsesLibraryColorsAndLogo(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	logo := pngLogo(t)
	_, err := env.svc.JobPack.UploadContractorLogo(ctx, env.fx.Contractor.ID, bytes.NewReader(logo), "ocean.png", int64(len(logo)), "image/png")
	require.NoError(t, err)
	assert.True(t, env.store.Has(storage.BucketLogos, "contractors/ctr-001.png"))

	_, err = env.svc.JobPack.UploadContractorLogo(ctx, env.fx.Contractor.ID, bytes.NewReader(logo), "ocean.gif", 1, "image/gif")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Library.CreateMaster(ctx, &CreateMasterRequest{LibCode: entity.LibCodePriority, LibName: "Priority", IsColor: true})
	require.NoError(t, err)
	_, err = env.svc.Library.CreateItem(ctx, entity.LibCodePriority, "u1", &LibraryItemRequest{LibValue: strPtr("P1"), ColorHex: strPtr("#112233")})
	require.NoError(t, err)

	for i, p := range []string{"P1", "P1", "P2"} {
		require.NoError(t, env.db.Create(&entity.Anomaly{
			ID: "an-" + string(rune('a'+i)), JobPackID: env.jp.ID, StructureID: env.fx.Structure.ID,
			SOWReportNo: "R-01", AnomalyRef: "AN-00" + string(rune('1'+i)), Priority: p, Status: "open",
		}).Error)
	}

	f := entity.ReportFilter{JobPackID: env.jp.ID}
	rows, err := env.svc.Report.Rows(ctx, report.TypeDefectSummary, f)
	require.NoError(t, err)
	summary := rows.(*DefectSummaryRows)
	require.Len(t, summary.Summary, 2)
	assert.Equal(t, "P1", summary.Summary[0].Priority)
	assert.Equal(t, 2, summary.Summary[0].Count)
	assert.Equal(t, "#112233", summary.Summary[0].Color)

	res, err := env.svc.Report.Generate(ctx, report.TypeAnomaly, f)
	require.NoError(t, err)
	assert.Equal(t, "JP-2026-0001_AnomalyReport.pdf", res.Filename)
	assert.Equal(t, 1, res.Pages)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF")))
	assert.Contains(t, string(res.Data), "/Subtype /Image")

	res, err = env.svc.Report.Generate(ctx, report.TypeDiverLog, entity.ReportFilter{JobPackID: env.jp.ID, SOWReportNo: "R-01"})
	require.NoError(t, err)
	assert.Equal(t, "R-01_DiverLog.pdf", res.Filename)
}

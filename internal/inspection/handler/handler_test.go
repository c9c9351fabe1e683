package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/bitfantasy/aims/internal/inspection/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlerEnv struct {
	router *gin.Engine
	store  *storage.MemoryStore
	fx     *testutil.Fixture
	jp     *entity.JobPack
	token  string
}

func setupHandlerTest(t *testing.T) *handlerEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.SeedFixture(t, db)
	jp := testutil.SeedJobPack(t, db, fx, "jp-001", "JP-2026-0001")

	store := storage.NewMemoryStore()
	hub := sse.NewHub(nil)
	svc := service.NewServices(repository.NewRepositories(db), nil, store, hub, zap.NewNop())
	h := NewHandlers(svc, hub, zap.NewNop())

	r := testutil.SetupRouter()
	RegisterRoutes(testutil.AuthGroup(r, "/api"), h)
	return &handlerEnv{router: r, store: store, fx: fx, jp: jp, token: testutil.DefaultTestToken()}
}

func dataMap(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %v", resp["data"])
	}
	return data
}

func TestUnauthenticatedRequest(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/library/master", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/library/master", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for bad token, got %d", w.Code)
	}
}

func TestLibraryEndpoints(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "POST", "/api/library/master", map[string]interface{}{
		"lib_code": "PRIORITY", "lib_name": "Anomaly priority", "is_color": true,
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create master: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "POST", "/api/library/master", map[string]interface{}{
		"lib_code": "PRIORITY", "lib_name": "dup",
	}, env.token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Duplicate master: expected 409, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "POST", "/api/library/PRIORITY", map[string]interface{}{
		"lib_value": "P1", "color_r": 254, "color_g": 1, "color_b": 1,
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create item: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	item := dataMap(t, testutil.ParseResponse(w))
	if item["color_name"] != "Red" {
		t.Errorf("Expected color_name Red, got %v", item["color_name"])
	}
	if item["color_hex"] != "#FE0101" {
		t.Errorf("Expected color_hex #FE0101, got %v", item["color_hex"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/library/PRIORITY", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("List items: expected 200, got %d", w.Code)
	}
	items, _ := dataMap(t, testutil.ParseResponse(w))["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(items))
	}

	// 组合库与普通库接口互斥
	w = testutil.DoRequest(env.router, "POST", "/api/library/master", map[string]interface{}{
		"lib_code": "CP_ZONE", "lib_name": "CP zones", "is_combo": true,
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create combo master: expected 201, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/library/CP_ZONE", nil, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Plain list on combo library: expected 400, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/library/combo/PRIORITY", nil, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Combo list on plain library: expected 400, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "POST", "/api/library/combo/CP_ZONE", map[string]interface{}{
		"code_1": "SPLASH", "code_2": "A",
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Errorf("Create combo: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/library/MISSING", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown library: expected 404, got %d", w.Code)
	}
}

func matrixBody(env *handlerEnv, version int) map[string]interface{} {
	return map[string]interface{}{
		"jobpack_id":   env.jp.ID,
		"structure_id": env.fx.Structure.ID,
		"version":      version,
		"state": map[string]interface{}{
			"report_numbers": []map[string]interface{}{{"number": "R-01", "date": "2026-05-01"}},
			"selected_items": []map[string]interface{}{
				{"report_number": "R-01", "component_id": "cmp-003", "inspection_type_id": "it-gvi"},
			},
		},
	}
}

func TestSOWMatrixSaveAndConflicts(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", matrixBody(env, 0), env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Save matrix: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := dataMap(t, testutil.ParseResponse(w))
	if v, _ := view["version"].(float64); v != 1 {
		t.Fatalf("Expected version 1, got %v", view["version"])
	}

	w = testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", matrixBody(env, 1), env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Second save: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", matrixBody(env, 1), env.token)
	if w.Code != http.StatusConflict {
		t.Errorf("Stale save: expected 409, got %d", w.Code)
	}

	body := matrixBody(env, 2)
	body["pending_report_number"] = "R-02"
	w = testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", body, env.token)
	if w.Code != 428 {
		t.Fatalf("Pending report: expected 428, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); code != 42800 {
		t.Errorf("Expected code 42800, got %v", resp["code"])
	}
	if confirm, _ := dataMap(t, resp)["confirm"].(bool); !confirm {
		t.Errorf("Expected confirm flag in data")
	}

	body["confirm"] = true
	w = testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", body, env.token)
	if w.Code != http.StatusOK {
		t.Errorf("Confirmed save: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/sow?jobpack_id="+env.jp.ID+"&structure_id="+env.fx.Structure.ID, nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Get sow: expected 200, got %d", w.Code)
	}
	items, _ := dataMap(t, testutil.ParseResponse(w))["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(items))
	}

	w = testutil.DoRequest(env.router, "GET", "/api/sow", nil, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing scope: expected 400, got %d", w.Code)
	}
}

func TestSOWAddReportCopyDecision(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", matrixBody(env, 0), env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Save matrix: expected 200, got %d", w.Code)
	}

	add := map[string]interface{}{
		"jobpack_id":    env.jp.ID,
		"structure_id":  env.fx.Structure.ID,
		"version":       1,
		"report_number": map[string]interface{}{"number": "R-02", "date": "2026-06-01"},
	}
	w = testutil.DoRequest(env.router, "POST", "/api/sow/reports", add, env.token)
	if w.Code != 428 {
		t.Fatalf("Add report without copy mode: expected 428, got %d", w.Code)
	}
	decision := dataMap(t, testutil.ParseResponse(w))
	options, _ := decision["options"].([]interface{})
	if len(options) != 3 {
		t.Errorf("Expected 3 copy options, got %v", decision["options"])
	}

	add["copy_mode"] = "copy_all"
	add["source_report"] = "R-01"
	w = testutil.DoRequest(env.router, "POST", "/api/sow/reports", add, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Add report with copy: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	items, _ := dataMap(t, testutil.ParseResponse(w))["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("Expected 2 items after copy, got %d", len(items))
	}

	w = testutil.DoRequest(env.router, "DELETE", "/api/sow/reports/R-02?jobpack_id="+env.jp.ID+"&structure_id="+env.fx.Structure.ID+"&version=2", nil, env.token)
	if w.Code != http.StatusOK {
		t.Errorf("Remove report: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSOWRanges(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/sow/ranges?component_id=cmp-001&breakpoints=-10,-25", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Ranges: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ranges, _ := dataMap(t, testutil.ParseResponse(w))["ranges"].([]interface{})
	if len(ranges) != 3 {
		t.Errorf("Expected 3 spans, got %d", len(ranges))
	}

	w = testutil.DoRequest(env.router, "GET", "/api/sow/ranges?component_id=cmp-001&breakpoints=abc", nil, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Bad breakpoint: expected 400, got %d", w.Code)
	}
}

func TestLibraryWriteRequiresEngineer(t *testing.T) {
	env := setupHandlerTest(t)
	viewer := testutil.GenerateTestToken("viewer-001", "Read Only", "viewer@test.com", []string{"viewer"})

	w := testutil.DoRequest(env.router, "POST", "/api/library/master", map[string]interface{}{
		"lib_code": "PRIORITY", "lib_name": "Anomaly priority",
	}, viewer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Viewer create master: expected 403, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); code != 40312 {
		t.Errorf("Expected code 40312, got %v", resp["code"])
	}

	w = testutil.DoRequest(env.router, "POST", "/api/library/PRIORITY", map[string]interface{}{"lib_value": "P1"}, viewer)
	if w.Code != http.StatusForbidden {
		t.Errorf("Viewer create item: expected 403, got %d", w.Code)
	}

	// 只读接口不受角色限制
	w = testutil.DoRequest(env.router, "GET", "/api/library/master", nil, viewer)
	if w.Code != http.StatusOK {
		t.Errorf("Viewer list masters: expected 200, got %d", w.Code)
	}

	admin := testutil.GenerateTestToken("admin-001", "Admin", "admin@test.com", []string{"admin"})
	w = testutil.DoRequest(env.router, "POST", "/api/library/master", map[string]interface{}{
		"lib_code": "PRIORITY", "lib_name": "Anomaly priority",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Errorf("Admin create master: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSOWToggle(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/sow/matrix", matrixBody(env, 0), env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Save matrix: expected 200, got %d", w.Code)
	}

	toggle := map[string]interface{}{
		"jobpack_id":         env.jp.ID,
		"structure_id":       env.fx.Structure.ID,
		"version":            1,
		"report_number":      "R-01",
		"component_id":       "cmp-001",
		"inspection_type_id": "it-cp",
	}
	w = testutil.DoRequest(env.router, "POST", "/api/sow/toggle", toggle, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Toggle whole: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := dataMap(t, testutil.ParseResponse(w))
	if v, _ := view["version"].(float64); v != 2 {
		t.Fatalf("Expected version 2, got %v", view["version"])
	}

	// 选中分段后整根构件自动取消
	toggle["version"] = 2
	toggle["elevation_start"] = -10
	toggle["elevation_end"] = -25
	w = testutil.DoRequest(env.router, "POST", "/api/sow/toggle", toggle, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Toggle range: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view = dataMap(t, testutil.ParseResponse(w))
	items, _ := view["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	for _, raw := range items {
		item := raw.(map[string]interface{})
		if item["component_id"] != "cmp-001" {
			continue
		}
		if required, _ := item["elevation_required"].(bool); !required {
			t.Errorf("Expected cmp-001 item to require elevation, got %v", item)
		}
		segs, _ := item["elevation_data"].([]interface{})
		if len(segs) != 1 {
			t.Errorf("Expected 1 segment, got %v", item["elevation_data"])
		}
	}

	w = testutil.DoRequest(env.router, "POST", "/api/sow/toggle", toggle, env.token)
	if w.Code != http.StatusConflict {
		t.Errorf("Stale toggle: expected 409, got %d", w.Code)
	}

	toggle["version"] = 3
	toggle["report_number"] = "R-99"
	w = testutil.DoRequest(env.router, "POST", "/api/sow/toggle", toggle, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Unknown report: expected 400, got %d", w.Code)
	}
}

func TestAttachmentUploadAndTree(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoMultipart(env.router, "/api/attachment", "file", "ga drawing.pdf", []byte("%PDF-1.4"), map[string]string{
		"source_type": entity.SourcePlatform,
		"source_id":   env.fx.Structure.ID,
	}, env.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Upload: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	att := dataMap(t, testutil.ParseResponse(w))
	path, _ := att["object_path"].(string)
	if !env.store.Has(storage.BucketAttachments, path) {
		t.Errorf("Expected object %s in store", path)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/attachment/tree?structure_id="+env.fx.Structure.ID, nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Tree: expected 200, got %d", w.Code)
	}
	if total, _ := dataMap(t, testutil.ParseResponse(w))["total"].(float64); total != 1 {
		t.Errorf("Expected 1 attachment in tree, got %v", total)
	}

	id, _ := att["id"].(string)
	w = testutil.DoRequest(env.router, "GET", "/api/attachment/"+id+"/download", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Download: expected 200, got %d", w.Code)
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Errorf("Unexpected download body %q", w.Body.String())
	}

	w = testutil.DoMultipart(env.router, "/api/attachment", "file", "a.txt", []byte("x"), map[string]string{
		"source_type": entity.SourcePlatform,
	}, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing source_id: expected 400, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "DELETE", "/api/attachment?id="+id, nil, env.token)
	if w.Code != http.StatusOK {
		t.Errorf("Delete: expected 200, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/attachment/"+id+"/download", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Download deleted: expected 404, got %d", w.Code)
	}
}

func TestJobPackEndpoints(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/jobpack", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", w.Code)
	}
	list := dataMap(t, testutil.ParseResponse(w))
	items, _ := list["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 job pack, got %d", len(items))
	}

	w = testutil.DoRequest(env.router, "GET", "/api/jobpack/"+env.jp.ID, nil, env.token)
	if w.Code != http.StatusOK {
		t.Errorf("Get: expected 200, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/jobpack/missing", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Get missing: expected 404, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/jobpack/utils/next-seq", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Next seq: expected 200, got %d", w.Code)
	}
	no, _ := dataMap(t, testutil.ParseResponse(w))["jobpack_no"].(string)
	if !strings.HasPrefix(no, "JP-") {
		t.Errorf("Unexpected job pack number %q", no)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/inspection-types?sow_only=true", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Inspection types: expected 200, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "POST", "/api/jobpack/create", map[string]interface{}{
		"name":          "Alpha 2026",
		"contractor_id": env.fx.Contractor.ID,
		"mode":          "component",
		"start_date":    "2026-06-01T00:00:00Z",
		"structures": []map[string]interface{}{{
			"structure_id":     env.fx.Structure.ID,
			"component_ids":    []string{"cmp-999"},
			"inspection_codes": []string{"GVI"},
		}},
	}, env.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Create with unknown component: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReportRowsAndPDF(t *testing.T) {
	env := setupHandlerTest(t)
	query := "?jobpack_id=" + env.jp.ID

	w := testutil.DoRequest(env.router, "GET", "/api/reports/anomaly-report"+query, nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Rows: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if typ := dataMap(t, testutil.ParseResponse(w))["type"]; typ != "anomaly-report" {
		t.Errorf("Expected type anomaly-report, got %v", typ)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/reports/anomaly-report/pdf"+query, nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("PDF: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="JP-2026-0001_AnomalyReport.pdf"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Errorf("Body is not a PDF")
	}

	w = testutil.DoRequest(env.router, "GET", "/api/reports/video-log/pdf"+query+"&download=false", nil, env.token)
	if w.Code != http.StatusOK {
		t.Fatalf("Inline PDF: expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
		t.Errorf("Expected inline disposition, got %q", cd)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/reports/weather/pdf", nil, env.token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown report type: expected 404, got %d", w.Code)
	}
}

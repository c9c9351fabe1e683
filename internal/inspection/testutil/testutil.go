package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "aims-test-jwt-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

var dbSeq atomic.Int64

// SetupTestDB opens an isolated in-memory sqlite database with all tables migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:aims_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// 内存库只在单连接内可见
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "aims",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default engineer test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Engineer", "engineer@test.com", []string{"engineer"})
}

// DoRequest executes a JSON request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DoMultipart uploads one file with extra form fields
func DoMultipart(r *gin.Engine, path, field, fileName string, content []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, _ := mw.CreateFormFile(field, fileName)
	io.Copy(fw, bytes.NewReader(content))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Fixture 一套最小检验数据：承包商、平台、三个构件、两种检验类型
type Fixture struct {
	Contractor  *entity.Contractor
	Structure   *entity.Structure
	Components  []entity.Component
	Inspections []entity.InspectionType
}

func elv(v float64) *float64 { return &v }

// SeedFixture creates the standard fixture
func SeedFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	now := time.Now()
	f := &Fixture{
		Contractor: &entity.Contractor{ID: "ctr-001", Code: "OCEANDIVE", Name: "Ocean Dive Ltd", CreatedAt: now, UpdatedAt: now},
		Structure:  &entity.Structure{ID: "st-001", Name: "Platform Alpha", Type: entity.StructureTypePlatform, Field: "North Field", Status: "active", CreatedAt: now, UpdatedAt: now},
		Components: []entity.Component{
			{ID: "cmp-001", StructureID: "st-001", QID: "LEG-A1", Type: "LEG", Elv1: elv(-40), Elv2: elv(10)},
			{ID: "cmp-002", StructureID: "st-001", QID: "LEG-A2", Type: "LEG", Elv1: elv(10), Elv2: elv(-40)},
			{ID: "cmp-003", StructureID: "st-001", QID: "BR-101", Type: "BRACE"},
		},
		Inspections: []entity.InspectionType{
			{ID: "it-gvi", Code: "GVI", Name: "General Visual Inspection", IsActive: true},
			{ID: "it-cp", Code: "CP", Name: "Cathodic Protection", IsActive: true},
			{ID: "it-cal", Code: "CAL-ROV", Name: "ROV Calibration", IsActive: true},
		},
	}
	mustCreate(t, db, f.Contractor)
	mustCreate(t, db, f.Structure)
	mustCreate(t, db, &f.Components)
	mustCreate(t, db, &f.Inspections)
	return f
}

// SeedJobPack creates a job pack covering the fixture structure
func SeedJobPack(t *testing.T, db *gorm.DB, f *Fixture, id, no string) *entity.JobPack {
	t.Helper()
	jp := &entity.JobPack{
		ID:           id,
		JobPackNo:    no,
		Name:         "Annual survey " + no,
		ContractorID: f.Contractor.ID,
		Mode:         "structure",
		StartDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Status:       entity.JobPackStatusDraft,
		Structures:   []entity.JobPackStructure{{ID: id + "-s1", JobPackID: id, StructureID: f.Structure.ID}},
	}
	mustCreate(t, db, jp)
	return jp
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed %T: %v", v, err)
	}
}

package buildControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rigforge/rigforge-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Component{}, &models.Build{}, &models.BuildItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (cpu, gpu models.Component) {
	t.Helper()
	cpu = models.Component{Category: models.CategoryCPU, Name: "Ryzen 7 9700X", Price: 35999, Stock: 10}
	gpu = models.Component{Category: models.CategoryGPU, Name: "RTX 5070", Price: 59999, Stock: 2}
	if err := db.Create(&cpu).Error; err != nil {
		t.Fatalf("seed cpu: %v", err)
	}
	if err := db.Create(&gpu).Error; err != nil {
		t.Fatalf("seed gpu: %v", err)
	}
	return cpu, gpu
}

func routerFor(db *gorm.DB, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", "user")
	})
	r.POST("/user/builds", CreateBuildHandler(db))
	r.PUT("/user/builds/:buildID", UpdateBuildItemsHandler(db))
	r.GET("/user/builds/:buildID", GetBuildHandler(db))
	r.DELETE("/user/builds/:buildID", DeleteBuildHandler(db))
	return r
}

func do(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBuildSnapshotsPrices(t *testing.T) {
	db := newTestDB(t)
	cpu, gpu := seedCatalog(t, db)
	r := routerFor(db, "usr_a")

	w := do(r, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name: "workstation",
		Items: []BuildItemInput{
			{ComponentID: cpu.ID, Quantity: 1},
			{ComponentID: gpu.ID, Quantity: 2},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var build models.Build
	if err := json.Unmarshal(w.Body.Bytes(), &build); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	wantTotal := cpu.Price + 2*gpu.Price
	if build.TotalPrice != wantTotal {
		t.Errorf("total = %v, want %v", build.TotalPrice, wantTotal)
	}
	if build.Status != models.BuildStatusDraft {
		t.Errorf("status = %s, want draft", build.Status)
	}

	// A later catalog price change must not reprice the stored item.
	db.Model(&models.Component{}).Where("id = ?", cpu.ID).Update("price", 99999)
	var item models.BuildItem
	db.First(&item, "build_id = ? AND component_id = ?", build.ID, cpu.ID)
	if item.UnitPrice != 35999 {
		t.Errorf("unit price = %v, want snapshot 35999", item.UnitPrice)
	}
}

func TestCreateBuildRejectsUnknownOrOutOfStock(t *testing.T) {
	db := newTestDB(t)
	_, gpu := seedCatalog(t, db)
	r := routerFor(db, "usr_a")

	w := do(r, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name:  "ghost parts",
		Items: []BuildItemInput{{ComponentID: 9999, Quantity: 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown component: status = %d, want 400", w.Code)
	}

	w = do(r, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name:  "greedy",
		Items: []BuildItemInput{{ComponentID: gpu.ID, Quantity: 5}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("over stock: status = %d, want 400", w.Code)
	}
}

func TestUpdateBuildItemsReplacesList(t *testing.T) {
	db := newTestDB(t)
	cpu, gpu := seedCatalog(t, db)
	r := routerFor(db, "usr_a")

	w := do(r, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name:  "rig",
		Items: []BuildItemInput{{ComponentID: cpu.ID, Quantity: 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}
	var build models.Build
	json.Unmarshal(w.Body.Bytes(), &build)

	w = do(r, http.MethodPut, "/user/builds/1", UpdateBuildItemsRequest{
		Items: []BuildItemInput{{ComponentID: gpu.ID, Quantity: 1}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}

	var items []models.BuildItem
	db.Find(&items, "build_id = ?", build.ID)
	if len(items) != 1 || items[0].ComponentID != gpu.ID {
		t.Errorf("items not replaced: %+v", items)
	}
	var got models.Build
	db.First(&got, build.ID)
	if got.TotalPrice != gpu.Price {
		t.Errorf("total = %v, want %v", got.TotalPrice, gpu.Price)
	}
}

func TestBuildOwnershipAndLocking(t *testing.T) {
	db := newTestDB(t)
	cpu, _ := seedCatalog(t, db)

	owner := routerFor(db, "usr_a")
	w := do(owner, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name:  "rig",
		Items: []BuildItemInput{{ComponentID: cpu.ID, Quantity: 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}

	stranger := routerFor(db, "usr_b")
	if w := do(stranger, http.MethodGet, "/user/builds/1", nil); w.Code != http.StatusForbidden {
		t.Errorf("foreign read: status = %d, want 403", w.Code)
	}
	if w := do(stranger, http.MethodDelete, "/user/builds/1", nil); w.Code != http.StatusForbidden {
		t.Errorf("foreign delete: status = %d, want 403", w.Code)
	}

	// An ordered build locks against edits and deletion.
	db.Model(&models.Build{}).Where("id = ?", 1).Update("status", models.BuildStatusOrdered)
	if w := do(owner, http.MethodPut, "/user/builds/1", UpdateBuildItemsRequest{
		Items: []BuildItemInput{{ComponentID: cpu.ID, Quantity: 2}},
	}); w.Code != http.StatusConflict {
		t.Errorf("edit ordered build: status = %d, want 409", w.Code)
	}
	if w := do(owner, http.MethodDelete, "/user/builds/1", nil); w.Code != http.StatusConflict {
		t.Errorf("delete ordered build: status = %d, want 409", w.Code)
	}
}

func TestDeleteDraftBuild(t *testing.T) {
	db := newTestDB(t)
	cpu, _ := seedCatalog(t, db)
	r := routerFor(db, "usr_a")

	w := do(r, http.MethodPost, "/user/builds", CreateBuildRequest{
		Name:  "temp",
		Items: []BuildItemInput{{ComponentID: cpu.ID, Quantity: 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/user/builds/1", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}

	var builds, items int64
	db.Model(&models.Build{}).Count(&builds)
	db.Model(&models.BuildItem{}).Count(&items)
	if builds != 0 || items != 0 {
		t.Errorf("builds = %d, items = %d after delete, want 0/0", builds, items)
	}
}

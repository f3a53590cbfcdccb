package orderControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{}, &models.Component{}, &models.Build{}, &models.BuildItem{},
		&models.Order{}, &models.OrderTimelineEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedBuild(t *testing.T, db *gorm.DB, userID string, stock int) (models.Build, models.Component) {
	t.Helper()
	if err := db.FirstOrCreate(&models.User{ID: userID, Email: userID + "@example.com"}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	cpu := models.Component{
		Category: models.CategoryCPU,
		Name:     "Ryzen 7 9700X",
		Brand:    "AMD",
		Price:    35999,
		Stock:    stock,
	}
	if err := db.Create(&cpu).Error; err != nil {
		t.Fatalf("create component: %v", err)
	}
	build := models.Build{
		UserID: userID,
		Name:   "gaming rig",
		Status: models.BuildStatusDraft,
		Items: []models.BuildItem{{
			ComponentID:   cpu.ID,
			Category:      cpu.Category,
			ComponentName: cpu.Name,
			UnitPrice:     cpu.Price,
			Quantity:      1,
		}},
		TotalPrice: cpu.Price,
	}
	if err := db.Create(&build).Error; err != nil {
		t.Fatalf("create build: %v", err)
	}
	return build, cpu
}

func TestCheckoutCreatesOrderFromBuild(t *testing.T) {
	db := newTestDB(t)
	build, cpu := seedBuild(t, db, "usr_a", 5)

	order, err := Checkout(db, "usr_a", build.ID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.TotalAmount != cpu.Price {
		t.Errorf("total = %v, want %v", order.TotalAmount, cpu.Price)
	}
	if order.Status != models.OrderStatusPending || order.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("order = %s/%s, want pending/pending", order.Status, order.PaymentStatus)
	}
	if order.OrderRef == "" {
		t.Error("missing order ref")
	}

	// Snapshot must survive catalog edits.
	var snap models.Build
	if err := json.Unmarshal(order.BuildSnapshot, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].ComponentName != cpu.Name {
		t.Error("snapshot does not capture the build items")
	}

	// Stock reserved, build locked, timeline written.
	var gotCPU models.Component
	db.First(&gotCPU, cpu.ID)
	if gotCPU.Stock != 4 {
		t.Errorf("stock = %d, want 4", gotCPU.Stock)
	}
	var gotBuild models.Build
	db.First(&gotBuild, build.ID)
	if gotBuild.Status != models.BuildStatusOrdered {
		t.Errorf("build status = %s, want ordered", gotBuild.Status)
	}
	var entries int64
	db.Model(&models.OrderTimelineEntry{}).Where("order_id = ?", order.ID).Count(&entries)
	if entries != 1 {
		t.Errorf("timeline entries = %d, want 1", entries)
	}
}

func TestCheckoutRejectsBadBuilds(t *testing.T) {
	db := newTestDB(t)
	build, _ := seedBuild(t, db, "usr_a", 5)

	t.Run("foreign user", func(t *testing.T) {
		if _, err := Checkout(db, "usr_b", build.ID); err == nil {
			t.Error("expected ownership error")
		}
	})

	t.Run("empty build", func(t *testing.T) {
		empty := models.Build{UserID: "usr_a", Name: "empty", Status: models.BuildStatusDraft}
		if err := db.Create(&empty).Error; err != nil {
			t.Fatalf("create build: %v", err)
		}
		if _, err := Checkout(db, "usr_a", empty.ID); err == nil || !strings.Contains(err.Error(), "no components") {
			t.Errorf("err = %v, want no-components error", err)
		}
	})

	t.Run("already ordered", func(t *testing.T) {
		if _, err := Checkout(db, "usr_a", build.ID); err != nil {
			t.Fatalf("first checkout: %v", err)
		}
		if _, err := Checkout(db, "usr_a", build.ID); err == nil {
			t.Error("second checkout of the same build accepted")
		}
	})
}

func TestCheckoutInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	build, cpu := seedBuild(t, db, "usr_a", 0)

	if _, err := Checkout(db, "usr_a", build.ID); err == nil || !strings.Contains(err.Error(), "insufficient stock") {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	// Nothing committed: no order, stock untouched, build still draft.
	var orders int64
	db.Model(&models.Order{}).Count(&orders)
	if orders != 0 {
		t.Errorf("orders = %d, want 0", orders)
	}
	var gotCPU models.Component
	db.First(&gotCPU, cpu.ID)
	if gotCPU.Stock != 0 {
		t.Errorf("stock = %d, want 0", gotCPU.Stock)
	}
	var gotBuild models.Build
	db.First(&gotBuild, build.ID)
	if gotBuild.Status != models.BuildStatusDraft {
		t.Errorf("build status = %s, want draft", gotBuild.Status)
	}
}

// authedRouter injects the claims the JWT middleware would normally set.
func authedRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", "user")
	})
	return r
}

func TestCancelOrderHandler(t *testing.T) {
	db := newTestDB(t)
	build, _ := seedBuild(t, db, "usr_a", 5)
	order, err := Checkout(db, "usr_a", build.ID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	cancel := func(r *gin.Engine, orderID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/cancel", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("foreign user forbidden", func(t *testing.T) {
		r := authedRouter("usr_b")
		r.POST("/orders/:orderID/cancel", CancelOrderHandler(db))
		if w := cancel(r, "1"); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	r := authedRouter("usr_a")
	r.POST("/orders/:orderID/cancel", CancelOrderHandler(db))

	t.Run("pending order cancels", func(t *testing.T) {
		if w := cancel(r, "1"); w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var got models.Order
		db.Preload("Timeline").First(&got, order.ID)
		if got.Status != models.OrderStatusCancelled {
			t.Errorf("status = %s, want cancelled", got.Status)
		}
		if len(got.Timeline) != 2 {
			t.Errorf("timeline entries = %d, want 2", len(got.Timeline))
		}
	})

	t.Run("cancelled order rejects repeat", func(t *testing.T) {
		if w := cancel(r, "1"); w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		if w := cancel(r, "9999"); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestGetOrderByIDHandler(t *testing.T) {
	db := newTestDB(t)
	build, _ := seedBuild(t, db, "usr_a", 5)
	order, err := Checkout(db, "usr_a", build.ID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	r := authedRouter("usr_a")
	r.GET("/orders/:orderID", GetOrderByIDHandler(db))

	fetch := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("by numeric id", func(t *testing.T) {
		if w := fetch("1"); w.Code != http.StatusOK {
			t.Errorf("status = %d", w.Code)
		}
	})
	t.Run("by order ref", func(t *testing.T) {
		w := fetch(order.OrderRef)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var got models.Order
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.ID != order.ID {
			t.Errorf("returned order %d, want %d", got.ID, order.ID)
		}
	})
	t.Run("foreign user forbidden", func(t *testing.T) {
		other := authedRouter("usr_b")
		other.GET("/orders/:orderID", GetOrderByIDHandler(db))
		req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		w := httptest.NewRecorder()
		other.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	db := newTestDB(t)
	build, _ := seedBuild(t, db, "usr_a", 5)
	if _, err := Checkout(db, "usr_a", build.ID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/admin/orders/:orderID/status", UpdateOrderStatusHandler(db))

	update := func(orderID, status string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(UpdateOrderStatusRequest{Status: status, Note: "test note"})
		req := httptest.NewRequest(http.MethodPut, "/admin/orders/"+orderID+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := update("1", "approved"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.Order
	db.Preload("Timeline").First(&got, 1)
	if got.Status != models.OrderStatusApproved {
		t.Errorf("order status = %s, want approved", got.Status)
	}
	if len(got.Timeline) != 2 {
		t.Errorf("timeline entries = %d, want 2", len(got.Timeline))
	}

	// Terminal orders cannot be re-routed.
	if w := update("1", "completed"); w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d", w.Code)
	}
	if w := update("1", "in_progress"); w.Code != http.StatusConflict {
		t.Errorf("reopen completed order: code = %d, want 409", w.Code)
	}

	if w := update("1", "teleported"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: code = %d, want 400", w.Code)
	}
	if w := update("9999", "approved"); w.Code != http.StatusNotFound {
		t.Errorf("unknown order: code = %d, want 404", w.Code)
	}
}

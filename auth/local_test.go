package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rigforge/rigforge-api/models"
)

type captureNotifier struct {
	dest, code string
}

func (n *captureNotifier) SendCode(destination, code, purpose string) error {
	n.dest, n.code = destination, code
	return nil
}

func newAuthRig(t *testing.T) (*gin.Engine, *gorm.DB, *cache.Cache, *captureNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	codes := NewVerificationCache()
	notifier := &captureNotifier{}

	r := gin.New()
	r.POST("/auth/register", RegisterHandler(db, codes, notifier))
	r.POST("/auth/verify-email", VerifyEmailHandler(db, codes))
	r.POST("/auth/login", LoginHandler(db))
	return r, db, codes, notifier
}

func post(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	r, db, _, notifier := newAuthRig(t)

	creds := gin.H{
		"email":    "builder@example.com",
		"password": "hunter2hunter2",
		"name":     "Builder",
		"phone":    "9876543210",
	}
	if w := post(r, "/auth/register", creds); w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	if notifier.dest != "builder@example.com" || len(notifier.code) != 6 {
		t.Fatalf("verification code not delivered: dest=%q code=%q", notifier.dest, notifier.code)
	}

	var user models.User
	if err := db.First(&user, "email = ?", "builder@example.com").Error; err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Verified {
		t.Error("user should start unverified")
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in the clear")
	}

	// Unverified login is refused.
	login := gin.H{"email": "builder@example.com", "password": "hunter2hunter2"}
	if w := post(r, "/auth/login", login); w.Code != http.StatusForbidden {
		t.Errorf("unverified login: status = %d, want 403", w.Code)
	}

	// Wrong code refused, delivered code accepted.
	bad := gin.H{"email": "builder@example.com", "code": "000000"}
	if w := post(r, "/auth/verify-email", bad); w.Code != http.StatusBadRequest {
		t.Errorf("wrong code: status = %d, want 400", w.Code)
	}
	good := gin.H{"email": "builder@example.com", "code": notifier.code}
	if w := post(r, "/auth/verify-email", good); w.Code != http.StatusOK {
		t.Fatalf("verify: status = %d, body = %s", w.Code, w.Body.String())
	}
	// A code is single use.
	if w := post(r, "/auth/verify-email", good); w.Code != http.StatusBadRequest {
		t.Errorf("code reuse: status = %d, want 400", w.Code)
	}

	w := post(r, "/auth/login", login)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Errorf("login response missing token: %s", w.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _, _, _ := newAuthRig(t)

	creds := gin.H{"email": "dup@example.com", "password": "hunter2hunter2", "name": "Dup"}
	if w := post(r, "/auth/register", creds); w.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", w.Code)
	}
	if w := post(r, "/auth/register", creds); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, db, codes, _ := newAuthRig(t)

	creds := gin.H{"email": "a@example.com", "password": "hunter2hunter2", "name": "A"}
	post(r, "/auth/register", creds)
	stored, _ := codes.Get("a@example.com")
	post(r, "/auth/verify-email", gin.H{"email": "a@example.com", "code": stored.(string)})

	if w := post(r, "/auth/login", gin.H{"email": "a@example.com", "password": "wrong-password"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", w.Code)
	}
	if w := post(r, "/auth/login", gin.H{"email": "ghost@example.com", "password": "hunter2hunter2"}); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want 401", w.Code)
	}

	// Accounts created through a federated provider cannot password-login.
	db.Create(&models.User{ID: "usr_gg", Email: "g@example.com", Provider: "google", Verified: true})
	if w := post(r, "/auth/login", gin.H{"email": "g@example.com", "password": "hunter2hunter2"}); w.Code != http.StatusBadRequest {
		t.Errorf("federated account: status = %d, want 400", w.Code)
	}
}

func TestVerificationCodeExpiry(t *testing.T) {
	r, _, codes, notifier := newAuthRig(t)

	creds := gin.H{"email": "slow@example.com", "password": "hunter2hunter2", "name": "Slow"}
	post(r, "/auth/register", creds)

	// Simulate the TTL lapsing.
	codes.Delete("slow@example.com")

	w := post(r, "/auth/verify-email", gin.H{"email": "slow@example.com", "code": notifier.code})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expired code: status = %d, want 400", w.Code)
	}
}

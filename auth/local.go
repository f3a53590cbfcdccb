package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/models"
	"github.com/rigforge/rigforge-api/notify"
)

const codeValidity = 10 * time.Minute

// NewVerificationCache holds pending email verification codes, keyed by
// email, with automatic expiry.
func NewVerificationCache() *cache.Cache {
	return cache.New(codeValidity, 15*time.Minute)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/register
func RegisterHandler(db *gorm.DB, codes *cache.Cache, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var existing models.User
		err := db.First(&existing, "email = ?", req.Email).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "email is already registered"})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user := models.User{
			ID:           "usr_" + generateRandomString(12),
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         req.Name,
			Phone:        req.Phone,
			Provider:     "local",
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		code := generateVerificationCode()
		codes.Set(req.Email, code, cache.DefaultExpiration)
		if err := notifier.SendCode(req.Email, code, "email verification"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Registered. Check your inbox for a verification code.",
			"user_id": user.ID,
		})
	}
}

// POST /auth/verify-email
func VerifyEmailHandler(db *gorm.DB, codes *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		stored, found := codes.Get(req.Email)
		if !found || stored.(string) != req.Code {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification code"})
			return
		}
		codes.Delete(req.Email)

		if err := db.Model(&models.User{}).
			Where("email = ?", req.Email).
			Update("verified", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Email verified, you can now log in"})
	}
}

// POST /auth/login
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, "email = ?", req.Email).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		if user.Provider != "local" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account uses " + user.Provider + " sign-in"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		if !user.Verified {
			c.JSON(http.StatusForbidden, gin.H{"error": "email is not verified yet"})
			return
		}

		token, err := issueToken(user.ID, "user", 7*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

package routes

import (
	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/auth"
	"github.com/rigforge/rigforge-api/notify"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB, codes *cache.Cache, notifier notify.Notifier) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.RegisterHandler(db, codes, notifier))
		authGroup.POST("/verify-email", auth.VerifyEmailHandler(db, codes))
		authGroup.POST("/login", auth.LoginHandler(db))

		// Google sign-in via Firebase ID token
		authGroup.POST("/google", auth.GoogleLoginHandler(db))

		authGroup.POST("/guest", auth.CreateGuestUser(db))
	}
}

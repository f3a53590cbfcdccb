package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	firebase "firebase.google.com/go"
	firebaseauth "firebase.google.com/go/auth"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/models"
)

var (
	firebaseOnce sync.Once
	firebaseAuth *firebaseauth.Client
	firebaseErr  error
	projectID    string
)

// initFirebase reads the service account out of the environment lazily so
// that deployments without Google sign-in (and tests) never need it.
func initFirebase() error {
	firebaseOnce.Do(func() {
		ctx := context.Background()

		credsJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		projectID = os.Getenv("FIREBASE_PROJECT_ID")
		if credsJSON == "" || projectID == "" {
			firebaseErr = errors.New("FIREBASE_CREDENTIALS_JSON and FIREBASE_PROJECT_ID must be set")
			return
		}

		opt := option.WithCredentialsJSON([]byte(credsJSON))
		config := &firebase.Config{ProjectID: projectID}

		app, err := firebase.NewApp(ctx, config, opt)
		if err != nil {
			firebaseErr = err
			return
		}
		firebaseAuth, firebaseErr = app.Auth(ctx)
	})
	return firebaseErr
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
	GuestID string `json:"guest_id"`
}

// POST /auth/google
// Verifies a Firebase ID token, creates or refreshes the user, adopts any
// guest builds, and issues our own JWT.
func GoogleLoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := initFirebase(); err != nil {
			log.Printf("❌ Firebase unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
			return
		}

		var req googleLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		ctx := context.Background()

		// Verify the token AND check for revocation
		token, err := firebaseAuth.VerifyIDTokenAndCheckRevoked(ctx, req.IDToken)
		if err != nil {
			log.Printf("❌ ID token verification failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or revoked ID token"})
			return
		}
		if token.Audience != projectID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token audience"})
			return
		}

		email, _ := token.Claims["email"].(string)
		name, _ := token.Claims["name"].(string)
		picture, _ := token.Claims["picture"].(string)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email not found in token"})
			return
		}

		// Fetch or create the user
		var user models.User
		err = db.First(&user, "id = ?", token.UID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				ID:       token.UID,
				Email:    email,
				Name:     name,
				Picture:  picture,
				Provider: "google",
				Verified: true,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
				return
			}
		} else if err == nil {
			db.Model(&user).Updates(models.User{Name: name, Picture: picture})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		// Adopt builds assembled during a guest session
		if req.GuestID != "" {
			if err := db.Model(&models.Build{}).
				Where("user_id = ? AND status = ?", req.GuestID, models.BuildStatusDraft).
				Update("user_id", user.ID).Error; err != nil {
				log.Printf("failed to adopt guest builds for %s: %v", req.GuestID, err)
			}
		}

		jwtToken, err := issueToken(user.ID, "user", 7*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": jwtToken,
			"user":  user,
		})
	}
}

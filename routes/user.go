package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	buildControllers "github.com/rigforge/rigforge-api/controllers/build"
	componentController "github.com/rigforge/rigforge-api/controllers/component"
	userControllers "github.com/rigforge/rigforge-api/controllers/user"
	"github.com/rigforge/rigforge-api/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints plus the public catalog.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	// ──────────────── Public catalog ────────────────
	r.GET("/components", componentController.GetComponents(db))
	r.GET("/components/:id", componentController.GetComponentByID(db))

	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/", userControllers.GetUser(db))    // GET /user/
		userGroup.PUT("/", userControllers.UpdateUser(db)) // PUT /user/

		// ──────────────── PC Builds ────────────────
		buildGroup := userGroup.Group("/builds")
		{
			buildGroup.POST("/", buildControllers.CreateBuildHandler(db))             // POST /user/builds
			buildGroup.GET("/", buildControllers.GetMyBuildsHandler(db))              // GET /user/builds
			buildGroup.GET("/:buildID", buildControllers.GetBuildHandler(db))         // GET /user/builds/:buildID
			buildGroup.PUT("/:buildID", buildControllers.UpdateBuildItemsHandler(db)) // PUT /user/builds/:buildID
			buildGroup.DELETE("/:buildID", buildControllers.DeleteBuildHandler(db))   // DELETE /user/builds/:buildID
		}
	}
}

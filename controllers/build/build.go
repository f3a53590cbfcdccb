package buildControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/middleware"
	"github.com/rigforge/rigforge-api/models"
)

type BuildItemInput struct {
	ComponentID uint `json:"component_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

type CreateBuildRequest struct {
	Name  string           `json:"name" binding:"required"`
	Items []BuildItemInput `json:"items"`
}

type UpdateBuildItemsRequest struct {
	Items []BuildItemInput `json:"items" binding:"required"`
}

// snapshotItems resolves components and prices them at current catalog price.
func snapshotItems(db *gorm.DB, inputs []BuildItemInput) ([]models.BuildItem, float64, error) {
	var items []models.BuildItem
	var total float64
	for _, in := range inputs {
		var component models.Component
		if err := db.First(&component, "id = ?", in.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, errors.New("component does not exist")
			}
			return nil, 0, err
		}
		if component.Stock < in.Quantity {
			return nil, 0, errors.New("insufficient stock for component: " + component.Name)
		}
		items = append(items, models.BuildItem{
			ComponentID:   component.ID,
			Category:      component.Category,
			ComponentName: component.Name,
			UnitPrice:     component.Price,
			Quantity:      in.Quantity,
		})
		total += component.Price * float64(in.Quantity)
	}
	return items, total, nil
}

// POST /user/builds
func CreateBuildHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateBuildRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		items, total, err := snapshotItems(db, req.Items)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		build := models.Build{
			UserID:     userID,
			Name:       req.Name,
			Items:      items,
			TotalPrice: total,
			Status:     models.BuildStatusDraft,
		}
		if err := db.Create(&build).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create build"})
			return
		}
		c.JSON(http.StatusCreated, build)
	}
}

// PUT /user/builds/:buildID replaces the component list of a draft build.
func UpdateBuildItemsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateBuildItemsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var build models.Build
		if err := db.First(&build, "id = ?", c.Param("buildID")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "build not found"})
			return
		}
		if build.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this build"})
			return
		}
		if build.Status != models.BuildStatusDraft {
			c.JSON(http.StatusConflict, gin.H{"error": "ordered builds cannot be edited"})
			return
		}

		items, total, err := snapshotItems(db, req.Items)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("build_id = ?", build.ID).Delete(&models.BuildItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].BuildID = build.ID
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
			return tx.Model(&build).Update("total_price", total).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update build"})
			return
		}

		build.Items = items
		build.TotalPrice = total
		c.JSON(http.StatusOK, build)
	}
}

// GET /user/builds
func GetMyBuildsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var builds []models.Build
		if err := db.Where("user_id = ?", userID).
			Preload("Items").
			Order("created_at DESC").
			Find(&builds).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, builds)
	}
}

// GET /user/builds/:buildID
func GetBuildHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var build models.Build
		if err := db.Preload("Items").First(&build, "id = ?", c.Param("buildID")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "build not found"})
			return
		}
		if build.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this build"})
			return
		}
		c.JSON(http.StatusOK, build)
	}
}

// DELETE /user/builds/:buildID
func DeleteBuildHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var build models.Build
		if err := db.First(&build, "id = ?", c.Param("buildID")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "build not found"})
			return
		}
		if build.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this build"})
			return
		}
		if build.Status != models.BuildStatusDraft {
			c.JSON(http.StatusConflict, gin.H{"error": "ordered builds cannot be deleted"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("build_id = ?", build.ID).Delete(&models.BuildItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&build).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete build"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Build deleted successfully"})
	}
}

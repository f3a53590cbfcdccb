package componentController

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/models"
)

type ComponentInput struct {
	Category string  `json:"category" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Brand    string  `json:"brand"`
	Spec     string  `json:"spec"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Stock    int     `json:"stock" binding:"min=0"`
	Image    string  `json:"image"`
}

func mapCategory(category string) (models.ComponentCategory, error) {
	switch strings.ToLower(category) {
	case string(models.CategoryCPU):
		return models.CategoryCPU, nil
	case string(models.CategoryGPU):
		return models.CategoryGPU, nil
	case string(models.CategoryMotherboard):
		return models.CategoryMotherboard, nil
	case string(models.CategoryRAM):
		return models.CategoryRAM, nil
	case string(models.CategoryStorage):
		return models.CategoryStorage, nil
	case string(models.CategoryPSU):
		return models.CategoryPSU, nil
	case string(models.CategoryCase):
		return models.CategoryCase, nil
	case string(models.CategoryCooler):
		return models.CategoryCooler, nil
	default:
		return "", errors.New("invalid component category")
	}
}

// GET /components?category=cpu
func GetComponents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Order("category, price")
		if category := c.Query("category"); category != "" {
			mapped, err := mapCategory(category)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where("category = ?", mapped)
		}

		var components []models.Component
		if err := query.Find(&components).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch components"})
			return
		}
		c.JSON(http.StatusOK, components)
	}
}

// GET /components/:id
func GetComponentByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var component models.Component
		if err := db.First(&component, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "component not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, component)
	}
}

// POST /admin/components
func CreateComponent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ComponentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		category, err := mapCategory(input.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		component := models.Component{
			Category: category,
			Name:     input.Name,
			Brand:    input.Brand,
			Spec:     input.Spec,
			Price:    input.Price,
			Stock:    input.Stock,
			Image:    input.Image,
		}
		if err := db.Create(&component).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create component"})
			return
		}
		c.JSON(http.StatusCreated, component)
	}
}

// PUT /admin/components/:id
func UpdateComponent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var component models.Component
		if err := db.First(&component, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "component not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var input ComponentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		category, err := mapCategory(input.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		component.Category = category
		component.Name = input.Name
		component.Brand = input.Brand
		component.Spec = input.Spec
		component.Price = input.Price
		component.Stock = input.Stock
		component.Image = input.Image
		if err := db.Save(&component).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update component"})
			return
		}
		c.JSON(http.StatusOK, component)
	}
}

// DELETE /admin/components/:id
func DeleteComponent(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Delete(&models.Component{}, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete component"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Component deleted successfully"})
	}
}

package componentController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/models"
)

// GET /admin/components/export-excel
func ExportComponentsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []models.Component
		if err := db.Order("category, name").Find(&components).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch components"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Components")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		// Header row
		headers := []string{
			"ID", "Category", "Name", "Brand", "Spec", "Price", "Stock", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		// Data rows
		for _, comp := range components {
			row := sheet.AddRow()

			row.AddCell().SetValue(comp.ID)
			row.AddCell().SetValue(string(comp.Category))
			row.AddCell().SetValue(comp.Name)
			row.AddCell().SetValue(comp.Brand)
			row.AddCell().SetValue(comp.Spec)
			row.AddCell().SetValue(comp.Price)
			row.AddCell().SetValue(comp.Stock)
			row.AddCell().SetValue(comp.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=components.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		// Write file to response
		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

package ingest

import (
	"fmt"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportRunHandler streams one run's per-row outcomes as an XLSX workbook
// for back-office review of Partial and Failed runs.
func ExportRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		runId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB().WithContext(ctx)
		var run models.SettlementFileRun
		if err := db.Where("id = ?", runId).Take(&run).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		var rows []models.SettlementRowDetail
		if err := db.Where("run_id = ?", run.ID).Order("line_number ASC").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		sheet := "Sheet1"

		f.SetCellValue(sheet, "A1", "Line")
		f.SetCellValue(sheet, "B1", "OurNumber")
		f.SetCellValue(sheet, "C1", "Outcome")
		f.SetCellValue(sheet, "D1", "Message")

		for i, row := range rows {
			f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), row.LineNumber)
			f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), row.OurNumber)
			f.SetCellValue(sheet, "C"+fmt.Sprint(i+2), string(row.Outcome))
			f.SetCellValue(sheet, "D"+fmt.Sprint(i+2), row.Message)
		}

		filename := fmt.Sprintf("settlement-run-%d.xlsx", run.ID)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}

package main

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/remotesync"
	"github.com/kunal-9999/inventory-management-system-sub000/utils"
	"github.com/kunal-9999/inventory-management-system-sub000/workflow"
)

const consolidatedCacheTTL = 5 * time.Minute

type newRowRequest struct {
	ProductId      string `json:"product_id"`
	ProductName    string `json:"product_name" binding:"required"`
	ProductUnit    string `json:"product_unit"`
	CustomerId     string `json:"customer_id"`
	CustomerName   string `json:"customer_name"`
	WarehouseId    string `json:"warehouse_id"`
	WarehouseName  string `json:"warehouse_name"`
	DirectShipment bool   `json:"direct_shipment"`
}

type editRequest struct {
	RowId     string                 `json:"row_id" binding:"required"`
	Field     models.EditField       `json:"field" binding:"required"`
	Month     models.MonthKey        `json:"month" binding:"required"`
	Value     string                 `json:"value"`
	Shipments []models.ShipmentEntry `json:"shipments"`
}

type overrideRequest struct {
	ProductName   string          `json:"product_name" binding:"required"`
	WarehouseName string          `json:"warehouse_name" binding:"required"`
	Month         models.MonthKey `json:"month" binding:"required"`
	Value         string          `json:"value"`
}

func registerRoutes(r *gin.Engine, registry *sheetRegistry) {
	api := r.Group("/api/sheets/:sheetId")
	api.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetSheetIdInContext(c.Request.Context(), c.Param("sheetId")))
		c.Next()
	})

	api.GET("/rows", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"months": eng.Months(),
			"rows":   eng.Rows(),
		})
	})

	api.POST("/rows", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		var req newRowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		product := models.Product{ID: req.ProductId, Name: req.ProductName, Unit: req.ProductUnit}
		customer := models.Customer{ID: req.CustomerId, Name: req.CustomerName}
		warehouse := models.Warehouse{ID: req.WarehouseId, Name: req.WarehouseName}

		var row *models.StockRow
		var err error
		if req.DirectShipment {
			row, err = eng.AddDirectShipmentRow(c.Request.Context(), product, customer, warehouse)
		} else {
			row, err = eng.AddRow(c.Request.Context(), product, customer, warehouse)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		invalidateConsolidatedCache(c.Param("sheetId"))
		c.JSON(http.StatusCreated, gin.H{
			"row":      row,
			"warnings": eng.Warnings(),
		})
	})

	api.DELETE("/rows/:rowId", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		if err := eng.DeleteRow(c.Request.Context(), c.Param("rowId")); err != nil {
			if err == utils.ErrorRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		invalidateConsolidatedCache(c.Param("sheetId"))
		c.Status(http.StatusNoContent)
	})

	api.POST("/edits", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		var req editRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		ran, err := eng.ApplyEdit(c.Request.Context(), workflow.EditEvent{
			RowID:     req.RowId,
			Field:     req.Field,
			Month:     req.Month,
			RawValue:  req.Value,
			Shipments: req.Shipments,
		})
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		registry.queueMirrorEdit(remotesync.CellEdit{
			SheetId:  c.Param("sheetId"),
			RowId:    req.RowId,
			Field:    req.Field,
			Month:    req.Month,
			Value:    utils.ParseQuantity(req.Value),
			EditedAt: time.Now(),
		})
		invalidateConsolidatedCache(c.Param("sheetId"))

		c.JSON(http.StatusOK, gin.H{
			"recalculated": ran,
			"rows":         eng.Rows(),
			"groups":       sortedGroupSeries(eng.Groups()),
			"warnings":     eng.Warnings(),
		})
	})

	api.GET("/consolidated", func(c *gin.Context) {
		sheetId := c.Param("sheetId")
		var cached []*workflow.GroupSeries
		if hit, err := config.GetRedisObject(consolidatedCacheKey(sheetId), &cached); err == nil && hit {
			c.JSON(http.StatusOK, gin.H{"groups": cached})
			return
		}
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		groups := sortedGroupSeries(eng.Groups())
		_ = config.SetRedisObject(consolidatedCacheKey(sheetId), groups, consolidatedCacheTTL)
		c.JSON(http.StatusOK, gin.H{"groups": groups})
	})

	api.GET("/warnings", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"warnings": eng.Warnings()})
	})

	api.PUT("/overrides", func(c *gin.Context) {
		eng, ok := engineOrAbort(c, registry)
		if !ok {
			return
		}
		var req overrideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		ran, err := eng.SetOpeningStockOverride(c.Request.Context(), req.ProductName, req.WarehouseName, req.Month, req.Value)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		registry.saveOverrides(c.Request.Context(), c.Param("sheetId"), eng)
		invalidateConsolidatedCache(c.Param("sheetId"))
		c.JSON(http.StatusOK, gin.H{
			"recalculated": ran,
			"groups":       sortedGroupSeries(eng.Groups()),
		})
	})
}

func consolidatedCacheKey(sheetId string) string {
	return "stocksheet:consolidated:" + sheetId
}

func invalidateConsolidatedCache(sheetId string) {
	_ = config.RemoveRedisKey(consolidatedCacheKey(sheetId))
}

// sortedGroupSeries flattens the consolidated map into a deterministic slice
// for JSON responses and the redis cache.
func sortedGroupSeries(groups map[models.GroupKey]*workflow.GroupSeries) []*workflow.GroupSeries {
	out := make([]*workflow.GroupSeries, 0, len(groups))
	for _, series := range groups {
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].WarehouseName < out[j].WarehouseName
	})
	return out
}

func bindError(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func engineOrAbort(c *gin.Context, registry *sheetRegistry) (*workflow.Engine, bool) {
	eng, err := registry.engine(c.Request.Context(), c.Param("sheetId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return eng, true
}

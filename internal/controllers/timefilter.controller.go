package controllers

import (
	"net/http"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/models"
	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
)

type constructRequest struct {
	Period   string `json:"period" binding:"required"`
	Duration string `json:"duration" binding:"required"`
}

// GetTimeFilterPresets returns the menu for one period
// Query params: period=latest|current|previous
func GetTimeFilterPresets(c *gin.Context) {
	period, ok := services.ParseTimeFilterPeriod(c.Query("period"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown period"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":  period,
		"presets": services.GetTimeFilterPresets(period),
	})
}

// GetComparisonPresets returns the comparison menu, "Off" first
func GetComparisonPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": services.ComparisonPresets()})
}

// CheckComparisonShift reports whether a shift is one of the comparison menu entries
// Query params: shift=P1W (empty means no comparison)
func CheckComparisonShift(c *gin.Context) {
	raw := c.Query("shift")
	shift := models.EmptyTimeShift()
	if raw != "" {
		parsed, err := models.TimeShiftFromJS(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		shift = parsed
	}
	c.JSON(http.StatusOK, gin.H{
		"shift":  shift,
		"preset": services.IsShiftPreset(shift),
	})
}

// ConstructTimeFilter builds the filter expression for a period and duration and
// resolves it against the history dataset
func ConstructTimeFilter(c *gin.Context) {
	var req constructRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period and duration are required"})
		return
	}

	filter := services.ConstructFilter(services.TimeFilterPeriod(req.Period), req.Duration)
	if filter == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown period"})
		return
	}
	if err := expr.Validate(filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tr, err := resolve(filter, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expression": filter,
		"formula":    filter.String(),
		"range":      tr,
	})
}

// ClassifyTimeFilter maps a filter clause back to its period; period is null when
// the clause was not built by ConstructTimeFilter
func ClassifyTimeFilter(c *gin.Context) {
	var clause models.FilterClause
	if err := c.ShouldBindJSON(&clause); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period, ok := services.GetFilterPeriod(clause)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"period": nil})
		return
	}
	duration, _ := services.SelectionDuration(clause.Selection)
	c.JSON(http.StatusOK, gin.H{
		"period":   period,
		"duration": duration,
	})
}

func resolve(e expr.Expression, now time.Time) (expr.TimeRange, error) {
	if hc := services.GetHistoryCollector(); hc != nil {
		return hc.Resolve(e, now)
	}
	return expr.Resolve(e, expr.References{Now: now, MaxTime: now, Location: time.UTC})
}

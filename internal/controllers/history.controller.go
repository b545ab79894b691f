package controllers

import (
	"net/http"

	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
)

// GetHistory returns the samples inside a relative time filter
// Query params: period=latest|current|previous, duration=PT1H|P1D|..., metric=cpu|memory|disk|network (empty: all)
func GetHistory(c *gin.Context) {
	hc := services.GetHistoryCollector()
	if hc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not running"})
		return
	}

	period, ok := services.ParseTimeFilterPeriod(c.DefaultQuery("period", string(services.PeriodLatest)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown period"})
		return
	}
	duration := c.DefaultQuery("duration", "PT1H")
	metric := c.Query("metric")

	result, err := services.GetQueryCache().Query(hc, period, duration, metric)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":   period,
		"duration": duration,
		"metric":   metric,
		"range":    result.Range,
		"data":     result.Data,
	})
}

package controllers

import (
	"net/http"

	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
)

// GetLatestSnapshot returns the newest sample, the one $maxTime points at
func GetLatestSnapshot(c *gin.Context) {
	hc := services.GetHistoryCollector()
	if hc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not running"})
		return
	}
	snapshot, ok := hc.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no samples yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"max_time": snapshot.Timestamp,
		"snapshot": snapshot,
	})
}

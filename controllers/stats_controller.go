package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

// StatsController serves the health probe and aggregate counts.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Health pings the database.
func (s *StatsController) Health(ctx *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		utils.Logger.Sugar().Warnf("health check failed: %v", err)
		utils.Error(ctx, http.StatusServiceUnavailable, "Database is unavailable.")
		return
	}
	utils.Success(ctx, 0, gin.H{"status": "ok"})
}

// GetStats returns aggregate counts. Moderators only.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	var users, posts, comments, likes int64

	if err := db.Model(&models.User{}).Where("is_deactivated = ?", false).Count(&users).Error; err != nil {
		utils.HandleError(ctx, err)
		return
	}
	if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		utils.HandleError(ctx, err)
		return
	}
	if err := db.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		utils.HandleError(ctx, err)
		return
	}
	if err := db.Model(&models.Like{}).Count(&likes).Error; err != nil {
		utils.HandleError(ctx, err)
		return
	}

	utils.Success(ctx, 1, gin.H{"stats": gin.H{
		"users":    users,
		"posts":    posts,
		"comments": comments,
		"likes":    likes,
	}})
}

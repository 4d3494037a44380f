package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

// ConfigController serves the limits clients need to validate input before submitting it.
type ConfigController struct {
	defaultImage string
}

func NewConfigController(accounts *services.AccountService) *ConfigController {
	return &ConfigController{defaultImage: accounts.DefaultImage()}
}

// GetLimits returns input limits and paging defaults.
func (c *ConfigController) GetLimits(ctx *gin.Context) {
	utils.Success(ctx, 1, gin.H{
		"limits": gin.H{
			"contentMaxLength": models.ContentMaxLength,
			"imageMaxBytes":    storage.MaxImageSize,
			"passwordMin":      services.PasswordMinLength,
			"passwordMax":      services.PasswordMaxLength,
			"pageLimit":        utils.DefaultPageLimit,
			"pageLimitMax":     utils.MaxPageLimit,
			"defaultImage":     c.defaultImage,
		},
	})
}

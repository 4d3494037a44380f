package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/middleware"
	"github.com/cppla/socialbbs/utils"
)

const userCachePrefix = "cache:user:public:"

// bindData decodes a {"data": {...}} request body into out.
func bindData(ctx *gin.Context, out interface{}) bool {
	body := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Request body has to be a JSON object of the form {data: {...}}.")
		return false
	}
	return true
}

func isMultipart(ctx *gin.Context) bool {
	return ctx.ContentType() == gin.MIMEMultipartPOSTForm
}

// pathID parses a numeric path parameter, answering 400 when malformed.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, fmt.Sprintf("Invalid %s '%s'.", name, raw))
		return 0, false
	}
	return uint(id), true
}

// getUserID returns the authenticated user's id.
func getUserID(ctx *gin.Context) (uint, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// requestBaseURL is the scheme and host the request was addressed to.
func requestBaseURL(ctx *gin.Context) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + ctx.Request.Host
}

func userCacheKey(id uint) string {
	return userCachePrefix + strconv.FormatUint(uint64(id), 10)
}

func invalidateUsers(ids ...uint) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, userCacheKey(id))
	}
	utils.CacheDelete(keys...)
}

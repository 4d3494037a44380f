package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User in the Gin context.
	ContextUserKey = "auth_user"
	// ContextUserIDKey stores the authenticated user ID.
	ContextUserIDKey = "user_id"
	// ContextClaimsKey stores the parsed token claims.
	ContextClaimsKey = "auth_claims"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "auth_token"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error)
}

// AuthRequired ensures the request carries a valid session token.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx.GetHeader("Authorization"))
		if token == "" {
			utils.Error(ctx, http.StatusUnauthorized, "No authentication token is associated with the request.")
			return
		}

		user, claims, err := auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			utils.HandleError(ctx, err)
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthorizeUserID lets the request through only when the authenticated user is
// the one named by the :param path segment.
func AuthorizeUserID(param string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok || strconv.FormatUint(uint64(user.ID), 10) != ctx.Param(param) {
			utils.Error(ctx, http.StatusForbidden, "User role is not authorized to perform this action for a different user.")
			return
		}
		ctx.Next()
	}
}

// Authorize restricts the route to the given roles.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if ok {
			for _, role := range roles {
				if user.Role == role {
					ctx.Next()
					return
				}
			}
		}
		utils.Error(ctx, http.StatusForbidden, "User role is not authorized to perform this action.")
	}
}

// CurrentUser returns the authenticated user set by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentClaims returns the token claims and raw token set by AuthRequired.
func CurrentClaims(ctx *gin.Context) (*utils.Claims, string) {
	claims, _ := ctx.Get(ContextClaimsKey)
	c, _ := claims.(*utils.Claims)
	return c, ctx.GetString(ContextTokenKey)
}

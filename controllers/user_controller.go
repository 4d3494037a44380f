package controllers

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/middleware"
	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/utils"
)

// UserController handles accounts, sessions and the follow graph.
type UserController struct {
	accounts *services.AccountService
	follows  *services.FollowService
	feed     *services.FeedService
}

func NewUserController(accounts *services.AccountService, follows *services.FollowService, feed *services.FeedService) *UserController {
	return &UserController{accounts: accounts, follows: follows, feed: feed}
}

// Signup creates an account.
func (u *UserController) Signup(ctx *gin.Context) {
	var req services.SignupInput
	if !bindData(ctx, &req) {
		return
	}
	ip := ctx.ClientIP()
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.HandleError(ctx, utils.TooManyRequests("Too many accounts created from this IP, please try again tomorrow."))
		return
	}
	if _, err := u.accounts.Signup(ctx.Request.Context(), req); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.RegistrationDailyIncrement(ip)
	utils.Message(ctx, http.StatusCreated, "User account created successfully. Please login.")
}

// Signin exchanges credentials for a session token.
func (u *UserController) Signin(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindData(ctx, &req) {
		return
	}
	user, token, err := u.accounts.Signin(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, 1, gin.H{"user": user, "token": token})
}

// Logout revokes the bearer token.
func (u *UserController) Logout(ctx *gin.Context) {
	claims, token := middleware.CurrentClaims(ctx)
	u.accounts.Logout(claims, token)
	utils.Message(ctx, http.StatusOK, "Logged out successfully.")
}

// ForgotPassword mails a reset link. The token itself is never part of the response.
func (u *UserController) ForgotPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindData(ctx, &req) {
		return
	}
	if err := u.accounts.ForgotPassword(ctx.Request.Context(), req.Email, requestBaseURL(ctx)); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Password reset URL is sent to the provided email.")
}

// ResetPassword sets a new password using the mailed token.
func (u *UserController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindData(ctx, &req) {
		return
	}
	if err := u.accounts.ResetPassword(ctx.Request.Context(), ctx.Param("resetToken"), req.Email, req.Password); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Password changed successfully. Please login again.")
}

// Search finds users by name.
func (u *UserController) Search(ctx *gin.Context) {
	users, err := u.feed.Search(ctx.Request.Context(), ctx.Query("name"), utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(users), gin.H{"users": users})
}

// GetUser returns one user, served from cache when possible.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	key := userCacheKey(id)
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	user, err := u.accounts.GetUser(ctx.Request.Context(), id)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	resp := utils.JSONResponse{Results: 1, Status: "success", Data: gin.H{"user": user}}
	utils.CacheSetJSON(key, resp, time.Hour)
	ctx.JSON(http.StatusOK, resp)
}

// ListUsers returns every active user. Moderators only.
func (u *UserController) ListUsers(ctx *gin.Context) {
	users, err := u.accounts.ListUsers(ctx.Request.Context(), utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(users), gin.H{"users": users})
}

// Following lists who the user follows.
func (u *UserController) Following(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	users, err := u.feed.Following(ctx.Request.Context(), id, utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(users), gin.H{"following": users})
}

// Followers lists who follows the user.
func (u *UserController) Followers(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	users, err := u.feed.Followers(ctx.Request.Context(), id, utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(users), gin.H{"followers": users})
}

// UpdateUser patches the profile. Multipart requests may carry an "image" file.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	var (
		req   services.UpdateUserInput
		image *multipart.FileHeader
	)
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, "Invalid multipart form.")
			return
		}
		req = updateUserFromForm(form.Value)
		if files := form.File["image"]; len(files) > 0 {
			image = files[0]
		}
	} else if !bindData(ctx, &req) {
		return
	}

	user, err := u.accounts.UpdateUser(ctx.Request.Context(), id, req, image)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	invalidateUsers(id)
	utils.Success(ctx, 1, gin.H{"user": user})
}

func updateUserFromForm(values map[string][]string) services.UpdateUserInput {
	field := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	return services.UpdateUserInput{
		Name:      field("name"),
		Email:     field("email"),
		Birthdate: field("birthdate"),
		Country:   field("country"),
		Status:    field("status"),
	}
}

// DeleteUser deactivates the account.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	if err := u.accounts.Deactivate(ctx.Request.Context(), id); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	invalidateUsers(id)
	utils.NoContent(ctx)
}

// UpdatePassword changes the password; the caller has to sign in again.
func (u *UserController) UpdatePassword(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		Password        string `json:"password"`
	}
	if !bindData(ctx, &req) {
		return
	}
	if err := u.accounts.UpdatePassword(ctx.Request.Context(), id, req.CurrentPassword, req.Password); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Password changed successfully. Please login again.")
}

// Follow toggles following :followId.
func (u *UserController) Follow(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	followID, ok := pathID(ctx, "followId")
	if !ok {
		return
	}
	user, err := u.follows.ToggleFollow(ctx.Request.Context(), id, followID)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	invalidateUsers(id, followID)
	utils.Success(ctx, 1, gin.H{"user": user})
}

// Explore suggests users to follow.
func (u *UserController) Explore(ctx *gin.Context) {
	id, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	users, err := u.feed.Explore(ctx.Request.Context(), id)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(users), gin.H{"users": users})
}

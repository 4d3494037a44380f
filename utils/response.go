package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Results int         `json:"results"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a success envelope carrying data.
func Respond(ctx *gin.Context, status int, results int, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Results: results,
		Status:  "success",
		Data:    data,
	})
}

// Success returns a standard 200 response.
func Success(ctx *gin.Context, results int, data interface{}) {
	Respond(ctx, http.StatusOK, results, data)
}

// Message returns a success envelope with a human readable message and no payload.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, JSONResponse{
		Status:  "success",
		Message: message,
	})
}

// NoContent answers 204 with an empty body.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error returns a failure envelope; 4xx report "fail", 5xx report "error".
func Error(ctx *gin.Context, status int, message string) {
	label := "fail"
	if status >= 500 {
		label = "error"
	}
	ctx.AbortWithStatusJSON(status, JSONResponse{
		Status:  label,
		Message: message,
	})
}

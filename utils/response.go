package utils

import "github.com/gin-gonic/gin"

// JSONResponse defines the uniform structure for API responses. The app
// uses a flat error model: failures carry only a human-readable message.
type JSONResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 200, message, data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, message, nil)
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the request tracing header honored and echoed back.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request an id for log correlation, reusing the
// client's header when supplied.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set("request_id", id)
		ctx.Writer.Header().Set(HeaderRequestID, id)
		ctx.Next()
	}
}

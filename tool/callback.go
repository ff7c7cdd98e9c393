package tool

import "github.com/gin-gonic/gin"

// Response envelopes shared by the API controllers. Errors carry a
// human-readable message under "error", payloads travel under "data".
// The booth UI endpoints that mirror an external contract respond with
// their payload directly instead.

func FastReturnError(msg string) gin.H {
	return gin.H{"error": msg}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{"data": data}
}

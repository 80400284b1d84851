package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgNoLinks         = "No links found"
	MsgNoContent       = "No content found"
	MsgTooManyRequests = "Too Many Requests"
	MsgInvalidPayload  = "Invalid request payload"
)

// Envelope is the body of every /cmp-actions response. Result holds either a
// string or a list of strings.
type Envelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
}

func OK(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Result:  result,
	})
}

func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Envelope{
		Success: false,
		Result:  message,
	})
}

// Error reports a failed capability inside a 200 envelope.
func Error(c *gin.Context, err error) {
	Fail(c, http.StatusOK, "Error processing request: "+err.Error())
}

func Abort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, Envelope{
		Success: false,
		Result:  message,
	})
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/worksgraph/internal/platform/apierr"
)

const (
	CodeStoreUnavailable = apierr.CodeStoreUnavailable
	CodeInvalidRequest   = apierr.CodeInvalidRequest
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError reports err with the status and code apierr.From assigns.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	RespondError(c, ae.Status, ae.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

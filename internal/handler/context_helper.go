package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/middleware"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

// identityFromContext returns the caller's id, writing a 401 when the session
// middleware did not run.
func identityFromContext(c *gin.Context) (string, bool) {
	id, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, appErrors.ErrAuthenticationRequired)
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

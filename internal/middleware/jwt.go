package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
	"github.com/noah-isme/life-ease-api/pkg/logger"
	"github.com/noah-isme/life-ease-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated identity id.
const ContextUserKey = logger.IdentityKey

type accessVerifier interface {
	VerifyAccess(token string) (string, error)
}

type authFailureRecorder interface {
	RecordAuthFailure(code string)
}

// JWT protects routes by requiring a valid access token. It does no I/O.
func JWT(tokens accessVerifier, failures authFailureRecorder) gin.HandlerFunc {
	reject := func(c *gin.Context, err *appErrors.Error) {
		if failures != nil {
			failures.RecordAuthFailure(err.Code)
		}
		response.Abort(c, err)
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, appErrors.ErrAuthenticationRequired)
			return
		}

		identityID, err := tokens.VerifyAccess(token)
		if err != nil {
			reject(c, appErrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserKey, identityID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// IdentityID returns the identity attached by JWT.
func IdentityID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserKey)
	return id, id != ""
}

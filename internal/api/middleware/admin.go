package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/response"
)

const adminSecretHeader = "X-Admin-Secret"

var errInvalidAdminSecret = errors.New("invalid admin secret")

// AdminAuthenticator guards admin endpoints with a single shared secret.
// The config stores a bcrypt hash of the secret, so the plaintext never
// lives in a config file.
type AdminAuthenticator struct {
	secretHash string
}

func NewAdminAuthenticator(secretHash string) *AdminAuthenticator {
	return &AdminAuthenticator{
		secretHash: secretHash,
	}
}

func (a *AdminAuthenticator) RequireSecret() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		secret := ctx.GetHeader(adminSecretHeader)
		if a.secretHash == "" || secret == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errInvalidAdminSecret))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(a.secretHash), []byte(secret)); err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(errInvalidAdminSecret))
			return
		}

		ctx.Next()
	}
}

package middleware

import (
	"net/http"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/gin-gonic/gin"
)

const userTokenKey = "userToken"

// CookieConfig describes the identity cookie
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Identity resolves the caller's token from the identity cookie, minting and setting one when needed
func Identity(identity usecase.IdentityUseCase, cookie CookieConfig, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(cookie.Name)

		token, issued, err := identity.Resolve(c.Request.Context(), presented)
		if err != nil {
			Fail(c, err)
			return
		}

		if issued {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookie.Name,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge / time.Second),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			logger.Debug("Identity issued", map[string]any{
				"request_id": coreport.RequestIDFrom(c.Request.Context()),
				"replaced":   presented != "",
			})
		}

		c.Set(userTokenKey, token)
		c.Next()
	}
}

// UserToken returns the token resolved by Identity
func UserToken(c *gin.Context) string {
	return c.GetString(userTokenKey)
}

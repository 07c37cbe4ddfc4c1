package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthObserver is notified of every authentication decision.
type AuthObserver func(status string)

// NewBearerAuth accepts requests whose bearer token matches tokenHash (a
// bcrypt hash). An empty hash disables the check.
func NewBearerAuth(tokenHash string, observe AuthObserver) echo.MiddlewareFunc {
	hash := []byte(tokenHash)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(hash) == 0 {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
				if observe != nil {
					observe("error")
				}
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="attendance"`)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
			}

			if observe != nil {
				observe("success")
			}
			return next(c)
		}
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/dahlia/pkg/context"
)

const (
	// HeaderTenantID is the header key for tenant ID
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID is the header key for the acting staff member's ID
	HeaderUserID = "X-User-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			tenantID := req.Header.Get(HeaderTenantID)
			userID := req.Header.Get(HeaderUserID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetTenantID(ctx, tenantID)
			ctx = context.SetUserID(ctx, userID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

package middleware

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// defaultOrigins are the dashboards allowed to call the network API.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
	"https://barrim.online",
	"https://www.barrim.online",
}

// GlobalCORS creates a global CORS middleware. extraOrigins come from
// ALLOWED_ORIGINS.
func GlobalCORS(extraOrigins []string) echo.MiddlewareFunc {
	origins := append(append([]string(nil), defaultOrigins...), extraOrigins...)

	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "HEAD", "PUT", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		MaxAge:           86400, // 24 hours
	})
}

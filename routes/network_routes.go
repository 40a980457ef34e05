package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HSouheill/barrim_network/controllers"
	"github.com/HSouheill/barrim_network/middleware"
	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/websocket"
)

// RegisterNetworkRoutes sets up the member-facing network routes
func RegisterNetworkRoutes(e *echo.Echo, jwtSecret string, networkController *controllers.NetworkController, hub *websocket.Hub) {
	network := e.Group("/api/network")
	network.Use(middleware.JWTMiddleware(jwtSecret))

	// Activation and sale events come from the account and order services
	network.POST("/members", networkController.AddMember,
		middleware.RequireUserType(middleware.UserTypeAdmin, middleware.UserTypeStaff))
	network.POST("/sales", networkController.RecordSale,
		middleware.RequireUserType(middleware.UserTypeAdmin, middleware.UserTypeStaff))

	account := network.Group("/accounts/:id")
	account.Use(middleware.RequireSelfOrUserType("id", middleware.UserTypeAdmin, middleware.UserTypeStaff))
	account.GET("/rank", networkController.GetRank)
	account.GET("/uplines", networkController.GetUplines)
	account.GET("/downlines", networkController.GetDownlines)
	account.GET("/volume", networkController.GetTeamVolume)
	account.GET("/commissions", networkController.GetCommissions)
	account.GET("/wallet", networkController.GetWallet)

	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub, middleware.GetUserIDFromToken(c))
	}, middleware.JWTMiddleware(jwtSecret))
}

// RegisterNetworkAdminRoutes sets up plan management and job control
func RegisterNetworkAdminRoutes(e *echo.Echo, jwtSecret string, adminController *controllers.NetworkAdminController) {
	admin := e.Group("/api/admin/network")
	admin.Use(middleware.JWTMiddleware(jwtSecret))
	admin.Use(middleware.RequireUserType(middleware.UserTypeAdmin, middleware.UserTypeStaff))

	admin.GET("/plan", adminController.GetPlan)
	admin.PUT("/plan", adminController.UpdatePlan, middleware.RequireUserType(middleware.UserTypeAdmin))
	admin.POST("/jobs/:type", adminController.TriggerJob)
	admin.GET("/jobs/dead", adminController.GetDeadJobs)
	admin.GET("/bonuses", adminController.GetBonusPayouts)
}

// RegisterOpsRoutes exposes health and Prometheus metrics
func RegisterOpsRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "ok",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

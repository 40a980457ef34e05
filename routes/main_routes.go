package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/barrim_network/controllers"
	"github.com/HSouheill/barrim_network/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, jwtSecret string, hub *websocket.Hub, networkController *controllers.NetworkController, adminController *controllers.NetworkAdminController) {
	RegisterOpsRoutes(e)
	RegisterNetworkRoutes(e, jwtSecret, networkController, hub)
	RegisterNetworkAdminRoutes(e, jwtSecret, adminController)
}

// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"clustercart/internal/delivery/http/middleware"
	"clustercart/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	WhatsAppHandler *handler.WhatsAppHandler
	PaystackHandler *handler.PaystackHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	whatsappHandler *handler.WhatsAppHandler
	paystackHandler *handler.PaystackHandler
	adminHandler    *handler.AdminHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		whatsappHandler: params.WhatsAppHandler,
		paystackHandler: params.PaystackHandler,
		adminHandler:    params.AdminHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Provider webhooks
	webhookGroup := e.Group("/webhooks")
	{
		webhookGroup.POST("/whatsapp", r.whatsappHandler.Receive)
		webhookGroup.POST("/whatsapp/status", r.whatsappHandler.Status)
		webhookGroup.POST("/paystack", r.paystackHandler.Receive)
	}

	// Dashboard login
	e.POST("/admin/login", r.adminHandler.Login)

	// Dashboard routes that require authentication
	adminGroup := e.Group("/admin")
	adminGroup.Use(r.authMiddleware.Authenticate)
	{
		adminGroup.GET("/orders", r.adminHandler.ListOrders)
		adminGroup.POST("/orders/:slug/mark-paid", r.adminHandler.MarkOrderPaid)
		adminGroup.GET("/members", r.adminHandler.ListMembers)
		adminGroup.GET("/notifications", r.adminHandler.ListNotifications)
		adminGroup.POST("/broadcast", r.adminHandler.Broadcast)
	}
}

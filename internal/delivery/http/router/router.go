// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"scanengine/internal/delivery/http/middleware"
	"scanengine/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	SessionHandler      *handler.SessionHandler
	EntitlementHandler  *handler.EntitlementHandler
	RequestIDMiddleware *middleware.RequestIDMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	sessionHandler      *handler.SessionHandler
	entitlementHandler  *handler.EntitlementHandler
	requestIDMiddleware *middleware.RequestIDMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		sessionHandler:      params.SessionHandler,
		entitlementHandler:  params.EntitlementHandler,
		requestIDMiddleware: params.RequestIDMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.requestIDMiddleware.Process)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Session routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.sessionHandler.SignUp)
		authGroup.POST("/confirm", r.sessionHandler.ConfirmSignUp)
		authGroup.POST("/resend", r.sessionHandler.ResendConfirmationCode)
		authGroup.POST("/signin", r.sessionHandler.SignIn)
		authGroup.POST("/guest", r.sessionHandler.GuestSignUp)
		authGroup.POST("/signout", r.sessionHandler.SignOut)
		authGroup.POST("/refresh", r.sessionHandler.Refresh)
		authGroup.POST("/forgot", r.sessionHandler.ForgotPassword)
		authGroup.POST("/forgot/confirm", r.sessionHandler.ConfirmForgotPassword)
		authGroup.GET("/session", r.sessionHandler.Session)
	}

	// Entitlement routes
	entitlementGroup := e.Group("/entitlements")
	{
		entitlementGroup.POST("/refresh", r.entitlementHandler.RefreshStatus)
		entitlementGroup.GET("/eligibility", r.entitlementHandler.CheckEligibility)
		entitlementGroup.POST("/scan", r.entitlementHandler.RecordScan)
		entitlementGroup.POST("/purchase", r.entitlementHandler.Purchase)
		entitlementGroup.POST("/restore", r.entitlementHandler.Restore)
		entitlementGroup.GET("/balance", r.entitlementHandler.Balance)
	}
}

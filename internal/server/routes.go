// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/handlers"
	apimw "codeberg.org/nutechnocrats/clubhub/internal/middleware"
)

func setupRoutes(e *echo.Echo, a *App) {
	authn := apimw.NewAuthenticator(a.Auth.Tokens(), a.Repo, a.Config.Auth.CookieName)
	protect := authn.Authenticate()

	h := handlers.New(a.Repo)
	e.GET("/health", h.Health)
	e.RouteNotFound("/*", h.NotFound)

	api := e.Group("/api")

	// Accounts
	ah := handlers.NewAuth(a.Auth, handlers.CookieConfig{
		Name:   a.Config.Auth.CookieName,
		Secure: a.Config.Auth.CookieSecure,
	})
	account := api.Group("/auth")
	account.POST("/register", ah.Register)
	account.POST("/login", ah.Login)
	account.POST("/forgot-password", ah.ForgotPassword)
	account.PUT("/reset-password/:resetToken", ah.ResetPassword)
	account.GET("/verify-email/:token", ah.VerifyEmail)
	account.POST("/logout", ah.Logout, protect)
	account.GET("/me", ah.Me, protect)
	account.PUT("/profile", ah.UpdateProfile, protect)
	account.PUT("/password", ah.UpdatePassword, protect)
	account.POST("/resend-verification", ah.ResendVerification, protect)

	// Administration
	adm := handlers.NewAdmin(a.Admin)
	admin := api.Group("/admin", protect, apimw.RequireAdmin())
	admin.GET("/dashboard", adm.Dashboard)
	admin.GET("/users", adm.ListUsers)
	admin.PUT("/users/bulk", adm.BulkUpdateUsers)
	admin.GET("/export/users", adm.ExportUsers)
	admin.PUT("/users/:id", adm.UpdateUser)
	admin.DELETE("/users/:id", adm.DeleteUser)
	admin.PUT("/users/:id/membership", adm.UpdateMembership)
	admin.POST("/notifications/email", adm.SendNotification)

	// Departments
	dh := handlers.NewDepartments(a.Repo)
	departments := api.Group("/departments")
	departments.GET("", dh.List)
	departments.GET("/:departmentId", dh.Get)
	departments.GET("/:departmentId/members", dh.Members,
		protect, apimw.RequireClubMembership(), apimw.RequireDepartmentAccess("departmentId"))
	departments.POST("", dh.Create, protect, apimw.RequireAdmin())

	// Member directory
	mh := handlers.NewMembers(a.Repo)
	members := api.Group("/members", protect)
	members.GET("", mh.List, apimw.RequireActiveMember(), apimw.RequireEmailVerified())
	members.GET("/:userId", mh.Get, apimw.RequireOwnership("userId"))
}

// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kinotage/movie-reviews/internal/config"
	"github.com/kinotage/movie-reviews/internal/handler"
	"github.com/kinotage/movie-reviews/internal/middleware"
	"github.com/kinotage/movie-reviews/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth         *handler.AuthHandler
	Movies       *handler.MovieHandler
	Reviews      *handler.ReviewHandler
	AccessSecret string
	CacheCfg     config.CacheConfig
	Redis        *redis.Client
}

// Register wires all routes. Public catalog reads sit behind the
// response cache; curation requires an ADMIN access token, review
// writes any valid access token.
func Register(e *echo.Echo, d Deps) {
	e.GET("/health", handler.Health)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/logout-all", d.Auth.LogoutAll, middleware.JWTAuth(d.AccessSecret))

	cache := middleware.ResponseCache(d.CacheCfg, d.Redis)

	movies := e.Group("/movies")
	movies.GET("", d.Movies.List, cache)
	movies.GET("/:id", d.Movies.Get, cache)
	admin := movies.Group("", middleware.JWTAuth(d.AccessSecret), middleware.RequireRole(model.RoleAdmin))
	admin.POST("", d.Movies.Create)
	admin.PUT("/:id", d.Movies.Update)
	admin.DELETE("/:id", d.Movies.Delete)

	reviews := e.Group("/reviews")
	reviews.GET("/movie/:movieId", d.Reviews.ListForMovie, cache)
	authed := reviews.Group("", middleware.JWTAuth(d.AccessSecret))
	authed.POST("", d.Reviews.Create)
	authed.PUT("/:id", d.Reviews.Update)
	authed.DELETE("/:id", d.Reviews.Delete)
}

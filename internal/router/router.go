// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/barberia/reservation-backend/internal/config"
	"github.com/barberia/reservation-backend/internal/handler"
	"github.com/barberia/reservation-backend/internal/middleware"
)

// RegisterPublic registers routes that require no authentication: the
// health check and the browse endpoints customers use before logging in.
// The slot listing sits behind the Redis response cache and the global
// rate limiter when a Redis client is available.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	limited := e.Group("", middleware.NewTokenBucket(rlCfg, rdb))
	limited.GET("/v1/slots", b.ListSlots, middleware.NewRedisCache(cacheCfg, rdb))
	limited.GET("/v1/barbers", b.ListBarbers)
}

// RegisterAuth registers the authentication surface.  Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterBooking registers the authenticated reservation surface.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", b.CreateReservation)
	g.GET("/status/:code", b.GetStatus)
	g.GET("/mine", b.MyReservations)
	g.GET("/by-barber/:id", b.ByBarber)
}

// RegisterAdmin registers the administrative surface, gated on the ADMIN
// role claim.
func RegisterAdmin(e *echo.Echo, r *handler.AdminReservationHandler, u *handler.AdminUserHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireAdmin())

	g.GET("/reservations", r.ListAll)
	g.PUT("/reservations/:id", r.Update)
	g.DELETE("/reservations/:id", r.Delete)
	g.POST("/slots", r.CreateSlot)

	g.GET("/users", u.List)
	g.POST("/users", u.Create)
	g.PUT("/users/:id", u.Update)
	g.DELETE("/users/:id", u.Delete)
}

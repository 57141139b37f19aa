package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/kinotage/movie-reviews/internal/config"
	"github.com/kinotage/movie-reviews/internal/database"
	"github.com/kinotage/movie-reviews/internal/handler"
	"github.com/kinotage/movie-reviews/internal/middleware"
	"github.com/kinotage/movie-reviews/internal/queue"
	"github.com/kinotage/movie-reviews/internal/repository"
	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/router"
	"github.com/kinotage/movie-reviews/internal/service"
	"github.com/kinotage/movie-reviews/internal/validation"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	// .env is optional; in production the variables come from the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zlog.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		zlog.Warn().Msg("redis unavailable, response cache disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	reviewRepo := repository.NewReviewRepo(db)

	authSvc := service.NewAuthService(service.AuthConfig{
		AccessSecret:   cfg.JWTAccessSecret,
		RefreshSecret:  cfg.JWTRefreshSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, userRepo, tokenRepo)
	cacheInv := middleware.NewCacheInvalidator(cacheCfg, rdb)
	movieSvc := service.NewMovieService(movieRepo, cacheInv, cfg.DefaultPageSize, cfg.MaxPageSize)
	reviewSvc := service.NewReviewService(reviewRepo, movieRepo, queue.NewPublisher(), cacheInv)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(requestLogger())
	e.Use(middleware.RateLimit(rlCfg, middleware.NewRateLimiter(rlCfg.Max, rlCfg.Window)))

	router.Register(e, router.Deps{
		Auth:         handler.NewAuthHandler(authSvc),
		Movies:       handler.NewMovieHandler(movieSvc),
		Reviews:      handler.NewReviewHandler(reviewSvc),
		AccessSecret: cfg.JWTAccessSecret,
		CacheCfg:     cacheCfg,
		Redis:        rdb,
	})

	addr := ":" + cfg.Port
	zlog.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}
}

// requestLogger logs one line per request with method, path, status
// and latency.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			zlog.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

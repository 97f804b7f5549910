package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fforsikring/prisberegner/internal/auth"
	"github.com/fforsikring/prisberegner/internal/config"
	"github.com/fforsikring/prisberegner/internal/database"
	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/handler"
	"github.com/fforsikring/prisberegner/internal/lead"
	middlewarepkg "github.com/fforsikring/prisberegner/internal/middleware"
	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/repository"
	"github.com/fforsikring/prisberegner/internal/roles"
	"github.com/fforsikring/prisberegner/internal/router"
	"github.com/fforsikring/prisberegner/internal/service"
	"github.com/fforsikring/prisberegner/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	table, err := roles.Load(cfg.PositionsPath)
	if err != nil {
		log.Fatalf("failed to load positions: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	var cache registry.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		cache = registry.NewRedisCache(redisClient, cfg.CVRCacheTTL, cfg.CVRQuotaCacheTTL)
	} else {
		log.Print("REDIS_URL not set, cvr lookup cache disabled")
	}

	lookup := registry.NewCachedLookup(
		registry.NewClient(httpClient, cfg.CVRAPIBaseURL, cfg.CVRUserAgent),
		cache,
	)

	var poster lead.HookPoster
	if cfg.LeadHookURL != "" {
		poster = lead.NewHookClient(httpClient, cfg.LeadHookURL)
	} else {
		log.Print("LEAD_HOOK_URL not set, lead submissions will be rejected")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	var archive *service.LeadArchive
	handlers := router.Handlers{}
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer pool.Close()

		usersRepo := repository.NewPGXUsersRepository(pool)
		leadsRepo := repository.NewPGXLeadsRepository(pool)

		archive = service.NewLeadArchive(leadsRepo)
		authService := service.NewAuthService(usersRepo, jwtManager)
		userService := service.NewUserService(usersRepo)

		handlers.Auth = handler.NewAuthHandler(authService)
		handlers.Leads = handler.NewLeadsAdminHandler(archive)
		handlers.Users = handler.NewUserAdminHandler(userService)
	} else {
		log.Print("DATABASE_URL not set, lead archive and admin portal disabled")
	}

	store := wizard.NewStore(wizard.Config{
		Table:       table,
		Lookup:      lookup,
		Debounce:    cfg.CVRDebounce,
		BridgeDelay: cfg.BridgeDelay,
		Submit:      submitFunc(poster, archive),
	}, cfg.SessionTTL)
	defer store.Close()

	handlers.CVR = handler.NewCVRHandler(lookup)
	handlers.Positions = handler.NewPositionsHandler(table)
	handlers.Lead = handler.NewLeadHandler(poster, archiver(archive))
	handlers.Wizard = handler.NewWizardHandler(store, table)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// submitFunc converts wizard submissions into hook payloads, forwards
// them and archives the outcome. Wizard submissions are fire-and-forget
// towards the visitor, so failures only get logged.
func submitFunc(poster lead.HookPoster, archive *service.LeadArchive) wizard.SubmitFunc {
	return func(sub wizard.Submission) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		req := dto.LeadRequest{
			CVR:         sub.CVR,
			Phone:       sub.Phone,
			Total:       sub.Total,
			Roles:       sub.Roles,
			Virk:        sub.Company,
			Page:        sub.Attribution.Page,
			Referrer:    sub.Attribution.Referrer,
			UTMSource:   sub.Attribution.UTMSource,
			UTMMedium:   sub.Attribution.UTMMedium,
			UTMCampaign: sub.Attribution.UTMCampaign,
			UTMTerm:     sub.Attribution.UTMTerm,
			UTMContent:  sub.Attribution.UTMContent,
			TS:          sub.SubmittedAt.UnixMilli(),
		}
		payload := lead.BuildPayload(req, sub.CVR, sub.Phone, lead.RequestMeta{Now: sub.SubmittedAt})

		if poster != nil {
			if err := poster.Forward(ctx, payload); err != nil {
				log.Printf("wizard lead hook forward failed: %v", err)
			}
		}
		if archive != nil {
			if err := archive.Archive(ctx, payload); err != nil {
				log.Printf("wizard lead archive failed: %v", err)
			}
		}
	}
}

func archiver(archive *service.LeadArchive) handler.LeadArchiver {
	if archive == nil {
		return nil
	}
	return archive
}

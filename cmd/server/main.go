package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/config"   // Internal config loader
	"github.com/iliyamo/event-ticketing/internal/database" // MySQL connection pool
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router" // Internal router setup
	"github.com/iliyamo/event-ticketing/internal/service"
)

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it caching and rate limiting are disabled.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	rlCfg := config.LoadRateLimitConfig()
	limiter := middleware.NewRateLimiter(rlCfg, rdb)
	clientKey := middleware.ClientKey(rlCfg.KeyStrategy)
	limits := router.Limits{
		Purchase: limiter.Middleware(middleware.CustomerKey(clientKey)),
		CheckIn:  limiter.Middleware(clientKey),
	}

	auditCfg := config.LoadAuditConfig()
	notifier := handler.Notifier{Cache: cache}
	if auditCfg.Enabled {
		notifier.Audit = service.NewAuditPublisher(auditCfg.URL, auditCfg.Queue, true)
	}

	repos := repository.NewRepos(db)
	purchases := service.NewPurchaseService(repos)
	checkins := service.NewCheckInService(repos)
	loyalty := service.NewLoyaltyService(repos)
	statuses := service.NewEventStatusService(repos)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	router.Setup(e, router.Options{CORSOrigins: cfg.CORSOrigins, StaticDir: cfg.StaticDir})
	router.RegisterRoutes(e, db)
	router.RegisterAPI(e, router.Handlers{
		Purchase: handler.NewPurchaseHandler(purchases, notifier),
		Events:   handler.NewEventHandler(repos, statuses, notifier),
		Tickets:  handler.NewTicketHandler(checkins, repos, notifier),
		Customer: handler.NewCustomerHandler(repos, loyalty, notifier),
		Reports:  handler.NewReportHandler(repos),
	}, cache.Middleware(), limits)

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s audit=%v)", addr, cfg.Env, auditCfg.Enabled) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/fragstat/internal/adapters/cache"
	"github.com/Amund211/fragstat/internal/adapters/database"
	"github.com/Amund211/fragstat/internal/adapters/matchrepository"
	"github.com/Amund211/fragstat/internal/adapters/playerrepository"
	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/config"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/ports"
	"github.com/Amund211/fragstat/internal/reconciler"
	"github.com/Amund211/fragstat/internal/reporting"
	"github.com/Amund211/fragstat/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
	"golang.org/x/time/rate"
)

const serviceName = "fragstat"

// Players recomputed per second by the reconciliation sweep
const reconcileRatePerSecond = 20

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil)),
	).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	if os.Getenv("FRAGSTAT_ENVIRONMENT") == "development" {
		loaded, err := config.LoadDotEnv(".env")
		if err != nil {
			fail("Failed to load .env", "error", err.Error())
		}
		logger.Info("Checked for .env file", "loaded", loaded)
	}

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", cfg.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			fail("Failed to initialize OpenTelemetry", "error", err.Error())
		}
		defer func() {
			err := shutdownOTel(context.Background())
			if err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(cfg)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	logger.Info("Initializing database connection")
	db, err := database.NewPostgresDatabaseFromConfig(cfg)
	if err != nil {
		fail("Failed to initialize database", "error", err.Error())
	}
	defer db.Close()
	logger.Info("Initialized database connection")

	repositorySchemaName := database.GetSchemaName(!cfg.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	playerRepo := playerrepository.NewPostgres(db, repositorySchemaName)
	matchRepo := matchrepository.NewPostgres(db, repositorySchemaName)
	logger.Info("Initialized repositories")

	// Participants are resolved on every read, so only the match itself is cached
	matchCache := cache.NewTTLCache[domain.Match](1 * time.Minute)

	allowedOrigins, err := ports.NewDomainSuffixes(cfg.IsDevelopment(), cfg.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	recomputePlayer := app.BuildRecomputePlayer(playerRepo)

	createMatch := app.BuildCreateMatch(matchRepo, recomputePlayer, time.Now)
	deleteMatch := app.BuildDeleteMatch(matchCache, matchRepo, recomputePlayer)
	getMatch := app.BuildGetMatchWithCache(matchCache, matchRepo, playerRepo)
	listMatches := app.BuildListMatches(matchRepo, playerRepo)

	createPlayer := app.BuildCreatePlayer(playerRepo)
	updatePlayer := app.BuildUpdatePlayer(playerRepo)
	deletePlayer := app.BuildDeletePlayer(playerRepo)
	listPlayers := app.BuildListPlayers(playerRepo)
	getPlayerWithHistory := app.BuildGetPlayerWithHistory(playerRepo, matchRepo)

	if cfg.ReconcileInterval() > 0 {
		reconcileAllPlayers := app.BuildReconcileAllPlayers(
			playerRepo,
			recomputePlayer,
			rate.NewLimiter(rate.Limit(reconcileRatePerSecond), 1),
		)
		stopReconciler, err := reconciler.Start(
			cfg.ReconcileInterval(),
			reconcileAllPlayers,
			logger.With("component", "reconciler"),
		)
		if err != nil {
			fail("Failed to start reconciler", "error", err.Error())
		}
		defer func() {
			err := stopReconciler()
			if err != nil {
				logger.Error("Failed to stop reconciler", "error", err.Error())
			}
		}()
		logger.Info("Started reconciler", "interval", cfg.ReconcileInterval().String())
	} else {
		logger.Info("Reconciler disabled")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", ports.MakeHealthHandler(time.Now))

	mux.HandleFunc("OPTIONS /api/players", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /api/players",
		ports.MakeListPlayersHandler(listPlayers, allowedOrigins, logger.With("port", "listplayers"), sentryMiddleware),
	)
	mux.HandleFunc(
		"POST /api/players",
		ports.MakeCreatePlayerHandler(createPlayer, allowedOrigins, logger.With("port", "createplayer"), sentryMiddleware),
	)

	mux.HandleFunc("OPTIONS /api/players/{id}", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /api/players/{id}",
		ports.MakeGetPlayerHandler(getPlayerWithHistory, allowedOrigins, logger.With("port", "getplayer"), sentryMiddleware),
	)
	mux.HandleFunc(
		"PUT /api/players/{id}",
		ports.MakeUpdatePlayerHandler(updatePlayer, allowedOrigins, logger.With("port", "updateplayer"), sentryMiddleware),
	)
	mux.HandleFunc(
		"DELETE /api/players/{id}",
		ports.MakeDeletePlayerHandler(deletePlayer, allowedOrigins, logger.With("port", "deleteplayer"), sentryMiddleware),
	)

	mux.HandleFunc("OPTIONS /api/players/{id}/recompute", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"POST /api/players/{id}/recompute",
		ports.MakeRecomputePlayerHandler(recomputePlayer, allowedOrigins, logger.With("port", "recomputeplayer"), sentryMiddleware),
	)

	mux.HandleFunc("OPTIONS /api/matches", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /api/matches",
		ports.MakeListMatchesHandler(listMatches, allowedOrigins, logger.With("port", "listmatches"), sentryMiddleware),
	)
	mux.HandleFunc(
		"POST /api/matches",
		ports.MakeCreateMatchHandler(createMatch, allowedOrigins, logger.With("port", "creatematch"), sentryMiddleware),
	)

	mux.HandleFunc("OPTIONS /api/matches/{id}", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /api/matches/{id}",
		ports.MakeGetMatchHandler(getMatch, allowedOrigins, logger.With("port", "getmatch"), sentryMiddleware),
	)
	mux.HandleFunc(
		"DELETE /api/matches/{id}",
		ports.MakeDeleteMatchHandler(deleteMatch, allowedOrigins, logger.With("port", "deletematch"), sentryMiddleware),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}

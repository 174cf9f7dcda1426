// @title                      Identity API
// @version                    1.0
// @description                Accounts, roles, federated login and role profiles for the clinic platform.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/carepoint/identity-service/internal/api"
	"github.com/carepoint/identity-service/internal/api/handler"
	"github.com/carepoint/identity-service/internal/core/service"
	"github.com/carepoint/identity-service/internal/infrastructure/db/mongo"
	"github.com/carepoint/identity-service/internal/infrastructure/db/redis"
	"github.com/carepoint/identity-service/internal/infrastructure/oauth"
	"github.com/carepoint/identity-service/internal/infrastructure/queue"
	"github.com/carepoint/identity-service/internal/pkg/config"
	"github.com/carepoint/identity-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "identity-api",
		Short:         "Clinic identity and access service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ensureIndexesCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log := logger.Init(logger.Options{})
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg, newLogger(cfg))
		},
	}
}

func ensureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			client, db, err := mongo.Connect(cmd.Context(), mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer disconnect(client, log)

			if err := mongo.EnsureIndexes(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity-api",
	})
}

func runServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer disconnect(client, log)
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Msg("connected to mongo and redis")

	accounts := mongo.NewAccountRepository(db)

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongo.NewAuthEventRepository(db), log)
	dispatcher.Start(workerCtx)

	// --- Services ---
	tokens := service.NewTokenService(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.TTL)
	authService := service.NewAuthService(accounts, tokens, service.NewBcryptHasher(0), dispatcher, log)
	profileService := service.NewProfileService(
		accounts,
		mongo.NewPatientRepository(db),
		mongo.NewDoctorRepository(db),
		mongo.NewAdminRepository(db),
		service.NewCodeGenerator(),
		log,
	)

	providers := oauth.NewRegistry(oauth.Settings{
		RedirectBaseURL: cfg.OAuth2.RedirectBaseURL,
		Google:          oauth.Credentials{ClientID: cfg.OAuth2.GoogleClientID, ClientSecret: cfg.OAuth2.GoogleClientSecret},
		Github:          oauth.Credentials{ClientID: cfg.OAuth2.GithubClientID, ClientSecret: cfg.OAuth2.GithubClientSecret},
		Facebook:        oauth.Credentials{ClientID: cfg.OAuth2.FacebookClientID, ClientSecret: cfg.OAuth2.FacebookClientSecret},
	})
	log.Info().Strs("providers", providers.Names()).Msg("federated login providers")

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Profiles:  profileService,
		Tokens:    tokens,
		Accounts:  accounts,
		Providers: providers,
		States:    redis.NewOAuthStateStore(rdb),
		Checks:    readinessChecks(client, rdb),
		Log:       log,
	})

	// --- Serve until signalled ---
	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(net.JoinHostPort("", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case serveErr = <-srvErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Requests are done publishing; flush the audit queue before the
	// mongo client goes away.
	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return serveErr
}

func readinessChecks(client *mongodriver.Client, rdb *goredis.Client) map[string]handler.Check {
	return map[string]handler.Check{
		"mongo": mongo.Ping(client),
		"redis": redis.Ping(rdb),
	}
}

func disconnect(client *mongodriver.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}

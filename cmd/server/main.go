package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-token-auth/auth"
	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/internal/database"
	"github.com/jrsteele09/go-token-auth/internal/logging"
	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/jrsteele09/go-token-auth/server"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/refresh"
	"github.com/jrsteele09/go-token-auth/users"
	userspostgres "github.com/jrsteele09/go-token-auth/users/postgres"
	fakeuserrepo "github.com/jrsteele09/go-token-auth/users/repofake"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var errPanicRecovered = errors.New("panic recovered")

func main() {
	for {
		err := run()
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			log.Fatal().Err(err).Msg("Error running server")
		}
		log.Error().Err(err).Msg("Restarting server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logger, err := logging.Setup(c.GetLogLevel(), c.IsDev())
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("close resource")
			}
		}
	}()

	var db *sql.DB
	if c.GetUserStore() == config.StorePostgres || c.GetRegistryBackend() == config.StorePostgres {
		db, err = database.Open(ctx, c.GetDatabaseDSN())
		if err != nil {
			return err
		}
		closers = append(closers, db.Close)
		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}
	}

	userRepo := newUserRepo(c, db)
	registry, err := newRegistry(ctx, c, db, &closers)
	if err != nil {
		return err
	}

	signer, err := newSigner(c)
	if err != nil {
		return err
	}
	codec, err := token.NewCodec(signer, token.WithIssuer(c.GetIssuer()))
	if err != nil {
		return err
	}

	m := metrics.New()
	userService, err := users.NewService(userRepo, users.WithPasswordStrength(c.GetEnforcePasswordStrength()))
	if err != nil {
		return err
	}
	authService, err := auth.NewService(userService, codec, registry,
		auth.WithTokenTTLs(c.GetAccessTokenTTL(), c.GetRefreshTokenTTL()),
		auth.WithOperationTimeout(c.GetOperationTimeout()),
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
		auth.WithRecorder(m),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(c, server.Services{Auth: authService, Users: userService, Metrics: m, Signer: signer})
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	g.Go(func() error {
		housekeeping(gctx, c.GetRegistrySweepInterval(), registry, srv)
		return nil
	})
	return g.Wait()
}

func newUserRepo(c config.Config, db *sql.DB) users.UserRepo {
	if c.GetUserStore() == config.StorePostgres {
		return userspostgres.NewUserRepo(db)
	}
	log.Warn().Msg("Using the in-memory user store, users are lost on restart")
	return fakeuserrepo.NewFakeUserRepo()
}

func newRegistry(ctx context.Context, c config.Config, db *sql.DB, closers *[]func() error) (refresh.Registry, error) {
	switch c.GetRegistryBackend() {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		*closers = append(*closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, errors.Wrapf(err, "[newRegistry] ping redis at %s", c.GetRedisAddr())
		}
		return refresh.NewRedisRegistry(client, c.GetRedisKeyPrefix())
	case config.StorePostgres:
		return refresh.NewPostgresRegistry(db), nil
	default:
		return refresh.NewMemoryRegistry(), nil
	}
}

func newSigner(c config.Config) (token.Signer, error) {
	secret := c.GetSigningSecret()
	if secret == "" {
		// Config validation only lets an empty secret through in DEV
		generated, err := token.GenerateHMACSecret()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("SIGNING_SECRET is not set, using a random secret. Tokens will not survive a restart")
		secret = generated
	}
	return token.NewSignerFromSecret(secret, c.GetSigningKeyID())
}

// housekeeping removes expired registry records and idle rate limiter buckets until ctx is done
func housekeeping(ctx context.Context, interval time.Duration, registry refresh.Registry, srv *server.Server) {
	sweeper, _ := registry.(refresh.Sweeper)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if sweeper != nil {
				removed, err := sweeper.Sweep(ctx, now)
				if err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Msg("Registry sweep failed")
				} else if removed > 0 {
					log.Debug().Int("removed", removed).Msg("Swept expired refresh tokens")
				}
			}
			srv.PruneLimiters()
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"gorm.io/gorm"

	"github.com/totegamma/xcheck/internal/config"
	"github.com/totegamma/xcheck/internal/infra/database"
	"github.com/totegamma/xcheck/internal/infra/gateway"
	"github.com/totegamma/xcheck/internal/infra/repository"
	"github.com/totegamma/xcheck/internal/present/rest"
	xmiddleware "github.com/totegamma/xcheck/internal/present/rest/middleware"
	"github.com/totegamma/xcheck/internal/service"
	"github.com/totegamma/xcheck/internal/telemetry"
	"github.com/totegamma/xcheck/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, conf)
	},
}

func openStore(conf config.Config) (repository.Store, *gorm.DB, func(), error) {
	var db *gorm.DB
	if conf.Store.PostgresDsn != "" {
		var err error
		db, err = database.NewPostgres(conf.Store.PostgresDsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	switch conf.Store.Driver {
	case config.DriverMongo:
		session, err := database.NewMongo(conf.Store.MongoURL, time.Duration(conf.Store.DialTimeout)*time.Second)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewMongoRepository(session, conf.Store.Database), db, session.Close, nil
	default:
		return repository.NewRecordRepository(db), db, func() {}, nil
	}
}

func serve(ctx context.Context, conf config.Config) error {

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.SetupTraceProvider(ctx, conf.Server.TraceEndpoint, "xcheck", version)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	store, db, closeStore, err := openStore(conf)
	if err != nil {
		return err
	}
	defer closeStore()

	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		store = repository.NewListingCache(store, mc, time.Duration(conf.Server.ListingCacheTTL)*time.Second)
	}

	var (
		publishers service.Publishers
		realtime   rest.Realtime
		audit      *usecase.AuditUsecase
	)

	if conf.Server.RedisAddr != "" {
		rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		signalService := service.NewSignalService(rdb)
		publishers = append(publishers, signalService)
		realtime = signalService
	}

	if db != nil {
		commitLog := repository.NewCommitLogRepository(db)
		publishers = append(publishers, commitLog)
		audit = usecase.NewAuditUsecase(commitLog)
	}

	ledger, err := gateway.DialLedger(
		ctx,
		conf.Ledger.RPCURL,
		conf.Ledger.ContractAddress,
		conf.Ledger.PrivateKey,
		conf.Ledger.ChainID,
	)
	if err != nil {
		return fmt.Errorf("dial ledger: %w", err)
	}
	slog.Info("ledger connected", slog.String("account", ledger.Account().Hex()), slog.String("module", "ledger"))

	pinata := gateway.NewPinata(conf.ContentStore.Endpoint, conf.ContentStore.JWT, conf.ContentStore.Gateway)

	policy := usecase.Policy{
		PlaceholderWallet:        conf.Identity.PlaceholderWallet,
		DefaultGasLimit:          conf.Ledger.DefaultGasLimit,
		DefaultOrganizationImage: conf.Identity.DefaultOrganizationImage,
		DefaultJournalistImage:   conf.Identity.DefaultJournalistImage,
		ConfirmTimeout:           conf.Ledger.ConfirmTimeoutDuration(),
	}

	certificate := usecase.NewCertificateUsecase(store, pinata, ledger, publishers, policy)
	news := usecase.NewNewsUsecase(store, pinata, ledger, publishers, policy)
	listing := usecase.NewListingUsecase(store)
	verify := usecase.NewVerifyUsecase(ledger)

	handler := rest.NewHandler(
		rest.Options{ValidateRequests: conf.Server.ValidateRequests},
		certificate,
		news,
		listing,
		verify,
		audit,
		realtime,
	)

	e := echo.New()
	e.HideBanner = true
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("xcheck"))
	}
	e.Use(xmiddleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.ValidateRequests {
		e.Validator = xmiddleware.NewRequestValidator()
	}

	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("listen", conf.Server.Listen))
		errCh <- e.Start(conf.Server.Listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/met-galaxy/field-engine/internal/cfg"
	v1Http "github.com/met-galaxy/field-engine/internal/delivery/v1/http"
	"github.com/met-galaxy/field-engine/internal/infrastructure/kafka"
	"github.com/met-galaxy/field-engine/internal/pca"
	"github.com/met-galaxy/field-engine/internal/repository/pgdb"
	"github.com/met-galaxy/field-engine/internal/repository/pgdb/converter"
	"github.com/met-galaxy/field-engine/internal/usecase"
	"github.com/met-galaxy/field-engine/pkg/closer"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/logger"
	"github.com/met-galaxy/field-engine/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// Run wires and starts the field-sampling engine: config, Postgres (with
// migrations), the PCA basis, the Kafka outbox relay, and the HTTP server.
// A failure to load the PCA basis does not abort startup: the field
// endpoints simply report PcaUnavailable until it is fixed and the process
// restarted.
func Run() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	db, err := initPGDB(log, cfg)
	if err != nil {
		log.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}

	basis, err := pca.Load(cfg.Field.PCABasisPath)
	if err != nil {
		log.Warnf("pca basis unavailable, field endpoints will degrade: %v", err)
		basis = nil
	}

	artworkRepo := pgdb.NewArtworkRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, converter.NewOutboxEventConverter())

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		log.Errorf(err, "failed to initialize kafka producer")
		os.Exit(1)
	}

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("failed to ensure kafka topic exists: %v", err)
	}

	dsn := db.Dsn
	worker := kafka.NewOutboxWorker(outboxRepo, log, producer, dsn)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	worker.Start(workerCtx)

	fieldUC := usecase.NewFieldUC(artworkRepo, basis, outboxRepo, db.Pool, log, cfg.Field.MaxChunks)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log, cfg.Field.MinCount, cfg.Field.MaxCount, cfg.Field.MaxChunks)
	router.Init(fieldUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	cl := closer.NewCloser(10 * time.Second)
	cl.Add(func(ctx context.Context) error {
		workerCancel()
		worker.Stop()
		return nil
	})
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		log.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		log.Infof("received shutdown signal, stopping gracefully")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cl.Close(shutdownCtx); err != nil {
		log.Warnf("shutdown error: %v", err)
	}

	log.Infof("application shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

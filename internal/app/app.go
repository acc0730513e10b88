// Package app wires the iris components together and runs them under pkg/startup.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/internal/repositories/castingrequest"
	"github.com/Ramsey-B/iris/internal/repositories/company"
	"github.com/Ramsey-B/iris/internal/repositories/contactproposal"
	"github.com/Ramsey-B/iris/internal/repositories/person"
	"github.com/Ramsey-B/iris/internal/repositories/project"
	"github.com/Ramsey-B/iris/pkg/catalog"
	"github.com/Ramsey-B/iris/pkg/contacts"
	"github.com/Ramsey-B/iris/pkg/database"
	"github.com/Ramsey-B/iris/pkg/duplicates"
	"github.com/Ramsey-B/iris/pkg/extractor"
	"github.com/Ramsey-B/iris/pkg/health"
	"github.com/Ramsey-B/iris/pkg/kafka"
	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/processor"
	catalogroutes "github.com/Ramsey-B/iris/pkg/routes/catalog"
	contactroutes "github.com/Ramsey-B/iris/pkg/routes/contacts"
	duplicateroutes "github.com/Ramsey-B/iris/pkg/routes/duplicates"
	matchroutes "github.com/Ramsey-B/iris/pkg/routes/matches"
	"github.com/Ramsey-B/iris/pkg/server"
	"github.com/Ramsey-B/iris/pkg/startup"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// Version is reported by the health endpoints.
var Version = "dev"

const (
	depTracing  = "tracing"
	depDatabase = "database"
	depProducer = "kafka-producer"
	depConsumer = "kafka-consumer"
	depHTTP     = "http"
)

// App owns the long-lived components of a serving process
type App struct {
	cfg      *config.Config
	matching *config.MatchingConfig
	logger   ectologger.Logger
	startup  *startup.Startup
	checker  *health.Checker

	db       database.DB
	svc      *services
	producer *kafka.Producer
	consumer *kafka.Consumer
	server   *server.Server
}

// New loads the matching settings and registers the startup dependencies. Nothing
// connects until Start.
func New(cfg *config.Config, logger ectologger.Logger) (*App, error) {
	matchingCfg, err := config.LoadMatchingConfig(cfg.MatchingConfigPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		matching: matchingCfg,
		logger:   logger,
		startup:  startup.NewStartup(logger, cfg.StartupMaxAttempts),
		checker:  health.NewChecker(Version),
	}

	var shutdownTracing func(context.Context) error
	a.startup.AddDependency(&startup.Dependency{
		Name: depTracing,
		OnStart: func(ctx context.Context) error {
			if !cfg.TracingEnabled {
				return nil
			}
			shutdown, err := tracing.Setup(ctx, cfg.Tracing())
			if err != nil {
				return err
			}
			shutdownTracing = shutdown
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdownTracing == nil {
				return nil
			}
			return shutdownTracing(ctx)
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name:     depDatabase,
		Requires: []string{depTracing},
		OnStart:  a.startDatabase,
		OnStop: func(ctx context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Raw().Close()
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name:     depProducer,
		Requires: []string{depTracing},
		OnStart: func(ctx context.Context) error {
			a.producer = kafka.NewProducer(kafka.ProducerConfigFrom(cfg), logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if a.producer == nil {
				return nil
			}
			return a.producer.Close()
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name:     depConsumer,
		Requires: []string{depDatabase, depProducer},
		OnStart:  a.startConsumer,
		OnStop: func(ctx context.Context) error {
			if a.consumer == nil {
				return nil
			}
			return a.consumer.Stop()
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name:     depHTTP,
		Requires: []string{depDatabase},
		OnStart:  a.startHTTP,
		OnStop: func(ctx context.Context) error {
			if a.server == nil {
				return nil
			}
			return a.server.Stop(ctx)
		},
	})

	return a, nil
}

func (a *App) startDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, a.cfg.Database(), a.logger)
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(a.cfg.DatabaseName, db); err != nil {
		_ = db.Raw().Close()
		return errors.Wrap(err, "failed to migrate database")
	}

	a.db = db
	a.checker.AddCheck(depDatabase, func(ctx context.Context) error {
		return db.Raw().PingContext(ctx)
	})
	return nil
}

// services are built once the database is available
type services struct {
	companies  *company.Repository
	projects   *project.Repository
	persons    *person.Repository
	requests   *castingrequest.Repository
	engine     *matching.Engine
	detector   *duplicates.Detector
	contacts   *contacts.Service
	uow        *database.TxRunner
	extraction *extractor.Extractor
}

func (a *App) services() (*services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	capacity := a.matching.Contacts.Capacity

	s := &services{
		companies: company.NewRepository(a.db, a.logger),
		projects:  project.NewRepository(a.db, a.logger),
		persons:   person.NewRepository(a.db, a.logger, capacity),
		requests:  castingrequest.NewRepository(a.db, a.logger),
		uow:       database.NewTxRunner(a.db, a.logger),
	}
	proposals := contactproposal.NewRepository(a.db, a.logger)

	s.engine = matching.NewEngine(a.logger, catalog.NewStore(s.companies, s.projects, s.persons), a.matching)
	s.detector = duplicates.NewDetector(a.logger, a.matching.DuplicateDetection, s.requests)
	s.contacts = contacts.NewService(a.logger, s.persons, proposals, s.engine, s.uow, capacity)

	ext, err := extractor.New(a.matching.Extraction)
	if err != nil {
		return nil, err
	}
	s.extraction = ext
	a.svc = s
	return s, nil
}

func (a *App) startConsumer(ctx context.Context) error {
	if !a.cfg.KafkaConsumerEnabled {
		a.logger.WithContext(ctx).Info("Kafka consumer disabled")
		return nil
	}

	s, err := a.services()
	if err != nil {
		return err
	}

	p := processor.NewProcessor(a.logger, s.detector, s.requests, s.engine, s.contacts, s.extraction, a.producer, s.uow)
	a.consumer = kafka.NewConsumer(a.cfg, a.logger, p.Handle)
	if err := a.consumer.Start(ctx); err != nil {
		return err
	}

	consumer := a.consumer
	a.checker.AddCheck(depConsumer, func(context.Context) error {
		if !consumer.Health() {
			return fmt.Errorf("consumer for %s is not running", a.cfg.KafkaInputTopic)
		}
		return nil
	})
	return nil
}

func (a *App) startHTTP(ctx context.Context) error {
	s, err := a.services()
	if err != nil {
		return err
	}

	var verifier middleware.TokenVerifier
	if a.cfg.AuthEnabled {
		v, err := middleware.NewVerifier(ctx, a.cfg.AuthIssuerURL, a.cfg.AuthClientID)
		if err != nil {
			return errors.Wrap(err, "failed to discover token issuer")
		}
		verifier = v
	}

	a.server = server.New(a.cfg, a.logger, server.Handlers{
		Matches:    matchroutes.NewHandler(s.engine),
		Catalog:    catalogroutes.NewHandler(s.companies, s.projects, s.persons),
		Duplicates: duplicateroutes.NewHandler(s.detector, s.requests),
		Contacts:   contactroutes.NewHandler(s.contacts),
		Health:     a.checker,
	}, verifier)
	return a.server.Start(ctx)
}

// Run starts every dependency, blocks until ctx is cancelled or the HTTP server fails,
// then stops them in reverse order within shutdownTimeout.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := a.startup.Start(ctx); err != nil {
		a.shutdown(ctx, shutdownTimeout)
		return err
	}
	a.checker.SetReady(true)
	a.logger.WithContext(ctx).Info("iris started")

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case runErr = <-a.server.Errors():
	}

	a.checker.SetReady(false)
	if err := a.shutdown(ctx, shutdownTimeout); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) shutdown(ctx context.Context, timeout time.Duration) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return a.startup.Stop(stopCtx)
}

// Migrate connects and applies migrations without serving
func (a *App) Migrate(ctx context.Context) error {
	if err := a.startDatabase(ctx); err != nil {
		return err
	}
	return a.db.Raw().Close()
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/solienlac/apps/api/echo"
	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	emailsvc "github.com/trezcool/solienlac/services/email"
	logsvc "github.com/trezcool/solienlac/services/logger"
	metricsvc "github.com/trezcool/solienlac/services/metrics"
	recordsvc "github.com/trezcool/solienlac/services/records"
	"github.com/trezcool/solienlac/storage/database"
	dummydb "github.com/trezcool/solienlac/storage/database/dummy"
	sqlxrepos "github.com/trezcool/solienlac/storage/database/sqlx"
)

// Engine value selecting the in-memory store.
const dummyEngine = "dummy"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up the record store: the local database, or a remote record store API
	var store evaluation.Store
	var repo evaluation.Repository
	switch {
	case conf.Records.BaseURL != "":
		repo = recordsvc.NewClient(conf)
		logger.Info(fmt.Sprintf("using remote record store at %s", conf.Records.BaseURL))
	case conf.Database.Engine == dummyEngine:
		db, err := dummydb.Open()
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up dummy database: %v", err), err)
		}
		store = dummydb.NewEvaluationRepository(db)
		repo = store
	default:
		db, err := setUpDB(conf, dbLogger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		store = sqlxrepos.NewEvaluationRepository(db)
		repo = store
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	recorder := metricsvc.NewRecorder()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)

	evalSvc := evaluation.NewService(evaluation.Deps{
		Repo:       repo,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Conf:       conf,
		MailSvc:    mailSvc,
		Observer:   recorder,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			EvaluationSvc: evalSvc,
			Store:         store,
			Metrics:       recorder.Handler(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config, logger core.Logger) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, logger); err != nil {
		return nil, err
	}
	return db, nil
}

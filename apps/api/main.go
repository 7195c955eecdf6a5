package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/convivencia/apps/api/echo"
	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
	"github.com/trezcool/convivencia/core/user"
	"github.com/trezcool/convivencia/services/backup"
	logsvc "github.com/trezcool/convivencia/services/logger"
	"github.com/trezcool/convivencia/storage"
	"github.com/trezcool/convivencia/storage/database"
	"github.com/trezcool/convivencia/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	console, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer console.Sync()

	logger := logsvc.NewRollbarLogger(console, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	// set up DB
	db, err := setUpDB(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	evalStore, err := storage.NewEvaluationStore(conf, db)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up evaluation store: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger, filepath.Join(conf.WorkDir, "assets", "common-passwords.txt.gz"))

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), logger)
	evalSvc := evaluation.NewService(evalStore, validate, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(conf.Interchange.Store)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Backup Scheduler

	if conf.Backup.Schedule != "" {
		scheduler := backup.NewScheduler(evalSvc, conf.Backup, logger)
		if err = scheduler.Start(conf.Backup.Schedule); err != nil {
			logger.Fatal(fmt.Sprintf("starting backup scheduler: %v", err), err)
		}
		defer scheduler.Stop()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			EvaluationSvc: evalSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
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

	if err = database.Migrate(db, conf.Database.Engine, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

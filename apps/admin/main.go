package main

import (
	"log"
	"os"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
	"github.com/trezcool/convivencia/core/user"
	logsvc "github.com/trezcool/convivencia/services/logger"
	"github.com/trezcool/convivencia/storage"
	"github.com/trezcool/convivencia/storage/database"
	"github.com/trezcool/convivencia/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	logger, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(logger, err)
	errAndDie(logger, db.Ping())

	evalStore, err := storage.NewEvaluationStore(conf, db)
	errAndDie(logger, err)

	validate, _ := core.NewValidator()

	// start CLI
	cli := commandLine{
		db:      db,
		engine:  conf.Database.Engine,
		logger:  logger,
		usrSvc:  user.NewService(sqlxrepos.NewUserRepository(db), logger),
		evalSvc: evaluation.NewService(evalStore, validate, logger),
		out:     os.Stdout,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	emailsvc "github.com/trezcool/solienlac/services/email"
	logsvc "github.com/trezcool/solienlac/services/logger"
	recordsvc "github.com/trezcool/solienlac/services/records"
	"github.com/trezcool/solienlac/storage/database"
	sqlxrepos "github.com/trezcool/solienlac/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	cli := commandLine{conf: conf, logger: logger, out: os.Stdout}

	// set up the record store
	if conf.Records.BaseURL != "" {
		cli.repo = recordsvc.NewClient(conf)
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer db.Close()

		cli.db = db
		cli.store = sqlxrepos.NewEvaluationRepository(db)
		cli.repo = cli.store
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)

	cli.svc = evaluation.NewService(evaluation.Deps{
		Repo:       cli.repo,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Conf:       conf,
		MailSvc:    emailsvc.NewConsoleService(conf),
	})

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		if cli.db != nil {
			_ = cli.db.Close()
		}
		os.Exit(1)
	}
}

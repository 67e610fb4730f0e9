package main

import (
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/solienlac/storage/database"
)

var (
	gooseRunFunc = goose.Run // mockable

	errNoDatabase = errors.New("no sql database configured")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	if err := database.PrepareMigrations(cli.db, cli.logger); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, database.MigrationsDir, arguments...)
}

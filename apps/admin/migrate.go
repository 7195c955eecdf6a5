package main

import (
	"github.com/trezcool/convivencia/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, cli.engine, cli.logger, args[1:]...)
}

// Command salesctl runs administrative tasks against the sales database:
// schema migration, spreadsheet imports and account maintenance.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&importCmd{}, "clients")
	commander.Register(&createUserCmd{}, "users")
	commander.Register(&resetPasswordCmd{}, "users")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// Command yenfolio-admin is a maintenance CLI for the portfolio database.
// It shares configuration with the server, so it operates on the same
// SQLite file the API serves.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"yenfolio/internal/config"
	"yenfolio/pkg/yenfolio"
)

var dataDir = flag.String("data-dir", "", "Directory holding the database (overrides YENFOLIO_DATA_DIR)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&snapshotCmd{}, "portfolio")
	commander.Register(&backfillCmd{}, "portfolio")
	commander.Register(&tradeCmd{}, "portfolio")

	commander.Register(&newYearCmd{}, "performance")
	commander.Register(&finalizeYearCmd{}, "performance")
	commander.Register(&reportCmd{}, "performance")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openCore opens the shared database with the server's configuration.
func openCore() (*yenfolio.Core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	return yenfolio.OpenWithOptions(yenfolio.Options{
		DBPath:           cfg.DBPath(),
		FinnhubAPIKey:    cfg.FinnhubAPIKey,
		TwelveDataAPIKey: cfg.TwelveDataAPIKey,
		JPXProxyURL:      cfg.JPXProxyURL,
	})
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

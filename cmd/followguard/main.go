package main

import (
	"log/slog"
	"os"

	"github.com/bluesky-social/followguard/followscan"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "followguard",
		Usage:   "moderation bot which adds spam followers to a Bluesky list",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "pds-host",
			Usage:   "method, hostname, and port of PDS (or entryway) to log in to",
			Value:   "https://bsky.social",
			EnvVars: []string{"ATP_PDS_HOST"},
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "handle, DID, or email of the bot account",
			EnvVars: []string{"BLUESKY_USERNAME", "BLUESKY_EMAIL"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "app password for the bot account",
			EnvVars: []string{"BLUESKY_APP_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "auth-factor-token",
			Usage:   "email two-factor token, if required for login",
			EnvVars: []string{"BLUESKY_AUTH_FACTOR_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "blocklist-id",
			Usage:   "record key (or full AT-URI) of the moderation list to add matching accounts to",
			EnvVars: []string{"BLOCKLIST_ID"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "ledger database (sqlite or postgres)",
			Value:   "sqlite://data/followguard/ledger.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   10,
		},
		&cli.BoolFlag{
			Name:    "enable-db-tracing",
			Usage:   "emit OpenTelemetry spans for ledger database queries",
			EnvVars: []string{"FOLLOWGUARD_ENABLE_DB_TRACING"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis server URL; if set, the ledger is kept in redis instead of the database",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.IntFlag{
			Name:    "ledger-cache-size",
			Usage:   "number of checked accounts to remember in-process",
			Value:   100_000,
			EnvVars: []string{"FOLLOWGUARD_LEDGER_CACHE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "rules-file",
			Usage:   "JSON file of pattern rules; built-in rules are used if not set",
			EnvVars: []string{"FOLLOWGUARD_RULES"},
		},
		&cli.Float64Flag{
			Name:    "api-rate-limit",
			Usage:   "max API requests per second",
			Value:   followscan.DefaultAPIRateLimit,
			EnvVars: []string{"FOLLOWGUARD_API_RATE_LIMIT"},
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Usage:   "log matches, but don't add accounts to the list or write the ledger",
			EnvVars: []string{"FOLLOWGUARD_DRY_RUN"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "verbose logging",
			EnvVars: []string{"FOLLOWGUARD_DEBUG", "DEBUG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"FOLLOWGUARD_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: text or json",
			EnvVars: []string{"FOLLOWGUARD_LOG_FORMAT", "LOG_FORMAT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		scanAllCmd,
		scanRecentCmd,
		inspectCmd,
		recheckCmd,
		ledgerCmd,
	}

	return app.Run(args)
}

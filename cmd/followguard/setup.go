package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bluesky-social/followguard/followscan"
	"github.com/bluesky-social/followguard/ledger"
	"github.com/bluesky-social/followguard/profilematch"
	"github.com/bluesky-social/followguard/util"
	"github.com/bluesky-social/followguard/util/cliutil"

	cli "github.com/urfave/cli/v2"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Everything a scan needs, wired together from CLI flags
type Guard struct {
	Logger    *slog.Logger
	Network   *followscan.NetworkClient
	Ledger    ledger.Ledger
	Evaluator *followscan.Evaluator
	Scanner   *followscan.Scanner

	closers []func() error
}

func (g *Guard) Close() {
	for _, c := range g.closers {
		if err := c(); err != nil {
			g.Logger.Warn("error during shutdown", "err", err)
		}
	}
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	logger, err := cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cctx.String("log-level"),
		LogFormat: cctx.String("log-format"),
		Debug:     cctx.Bool("debug"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", followscan.ErrConfig, err)
	}
	return logger.With("service", "followguard"), nil
}

// Opens the redis ledger if a redis URL is configured, otherwise the SQL ledger. Either way it is wrapped with an in-process cache.
func openLedger(cctx *cli.Context, logger *slog.Logger) (ledger.Ledger, func() error, error) {
	var inner ledger.Ledger
	closer := func() error { return nil }

	if redisURL := cctx.String("redis-url"); redisURL != "" {
		rl, err := ledger.NewRedisLedger(redisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("using redis ledger")
		inner = rl
		closer = rl.Client.Close
	} else {
		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open ledger database: %w", err)
		}
		if cctx.Bool("enable-db-tracing") {
			if err := db.Use(tracing.NewPlugin()); err != nil {
				return nil, nil, err
			}
		}
		gl := ledger.NewGormLedger(db)
		if err := gl.Migrate(); err != nil {
			return nil, nil, err
		}
		sqldb, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using SQL ledger")
		inner = gl
		closer = sqldb.Close
	}

	cached, err := ledger.NewCachedLedger(inner, cctx.Int("ledger-cache-size"))
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("%w: %w", followscan.ErrConfig, err)
	}
	return cached, closer, nil
}

func loadMatcher(cctx *cli.Context, logger *slog.Logger) (*profilematch.Matcher, error) {
	p := cctx.String("rules-file")
	if p == "" {
		return profilematch.DefaultMatcher(), nil
	}
	rs, err := profilematch.LoadRuleSetJSON(p)
	if err != nil {
		return nil, fmt.Errorf("%w: loading rules file: %w", followscan.ErrConfig, err)
	}
	m, err := profilematch.NewMatcher(*rs)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling rules: %w", followscan.ErrConfig, err)
	}
	logger.Info("loaded rules file", "path", p, "rules", len(rs.Patterns))
	return m, nil
}

func login(ctx context.Context, cctx *cli.Context, logger *slog.Logger) (*followscan.NetworkClient, error) {
	nc, err := followscan.Login(ctx, followscan.LoginConfig{
		Host:            cctx.String("pds-host"),
		Username:        cctx.String("username"),
		Password:        cctx.String("password"),
		AuthFactorToken: cctx.String("auth-factor-token"),
		RateLimit:       cctx.Float64("api-rate-limit"),
		HTTPClient:      util.RobustHTTPClient(logger),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("logged in", "did", nc.AccountDID())
	return nc, nil
}

// Validates configuration, logs in, and opens the ledger. Configuration and auth errors are returned before any scanning happens.
func setupGuard(ctx context.Context, cctx *cli.Context, logger *slog.Logger) (*Guard, error) {
	dryRun := cctx.Bool("dry-run")
	if !dryRun && cctx.String("blocklist-id") == "" {
		return nil, fmt.Errorf("%w: BLOCKLIST_ID (--blocklist-id) is required", followscan.ErrConfig)
	}

	matcher, err := loadMatcher(cctx, logger)
	if err != nil {
		return nil, err
	}

	nc, err := login(ctx, cctx, logger)
	if err != nil {
		return nil, err
	}

	l, closer, err := openLedger(cctx, logger)
	if err != nil {
		return nil, err
	}

	ev := &followscan.Evaluator{
		Ledger:   l,
		Profiles: nc,
		Lists:    nc,
		Matcher:  matcher,
		ListID:   cctx.String("blocklist-id"),
		DryRun:   dryRun,
		Logger:   logger.With("component", "evaluator"),
	}
	if err := ev.Validate(); err != nil {
		closer()
		return nil, err
	}

	return &Guard{
		Logger:    logger,
		Network:   nc,
		Ledger:    l,
		Evaluator: ev,
		Scanner: &followscan.Scanner{
			Followers: nc,
			Evaluator: ev,
			Actor:     nc.AccountDID().String(),
			Logger:    logger.With("component", "scanner"),
		},
		closers: []func() error{closer},
	}, nil
}

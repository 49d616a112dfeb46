package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluesky-social/followguard/followscan"
	"github.com/bluesky-social/followguard/util/cliutil"

	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the bot: scan recent followers periodically, and serve admin HTTP endpoints",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:    "scan-interval",
			Usage:   "time between recent-follower scans",
			Value:   followscan.DefaultScanInterval,
			EnvVars: []string{"FOLLOWGUARD_SCAN_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    "recent-limit",
			Usage:   "number of most recent followers checked by each scheduled scan",
			Value:   followscan.DefaultRecentLimit,
			EnvVars: []string{"FOLLOWGUARD_RECENT_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "page-size",
			Usage:   "followers per page during full scans",
			Value:   followscan.DefaultPageSize,
			EnvVars: []string{"FOLLOWGUARD_PAGE_SIZE"},
		},
		&cli.BoolFlag{
			Name:    "initial-full-scan",
			Usage:   "scan all followers at startup, before the first scheduled scan",
			EnvVars: []string{"FOLLOWGUARD_INITIAL_FULL_SCAN"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for admin HTTP (health, metrics, ledger); empty to disable",
			Value:   ":3989",
			EnvVars: []string{"FOLLOWGUARD_BIND"},
		},
	},
	Action: runGuard,
}

func runGuard(cctx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}

	shutdownOTEL, err := cliutil.SetupOTEL(ctx, "followguard")
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(ctx); err != nil {
			logger.Error("failed to shutdown trace exporter", "err", err)
		}
	}()

	g, err := setupGuard(ctx, cctx, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	sched := followscan.NewScheduler(g.Scanner, cctx.Duration("scan-interval"), cctx.Int("recent-limit"), logger)

	eg, ctx := errgroup.WithContext(ctx)

	if bind := cctx.String("bind"); bind != "" {
		srv := NewAdminServer(AdminConfig{
			Ledger: g.Ledger,
			Bind:   bind,
			Logger: logger,
		})
		eg.Go(func() error {
			return srv.Run()
		})
		eg.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown()
		})
	}

	eg.Go(func() error {
		// an initial scan failure is logged, not fatal; the schedule will catch up
		var err error
		if cctx.Bool("initial-full-scan") {
			_, err = sched.RunFull(ctx, cctx.Int("page-size"))
		} else {
			_, err = sched.TriggerNow(ctx)
		}
		if err != nil && ctx.Err() == nil {
			logger.Error("initial scan failed", "err", err)
		}

		if err := sched.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		sched.Stop()
		return sched.Wait()
	})

	logger.Info("startup complete")
	err = eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("graceful shutdown complete")
	return nil
}

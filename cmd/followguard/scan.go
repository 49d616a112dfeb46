package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/followscan"

	cli "github.com/urfave/cli/v2"
)

var scanAllCmd = &cli.Command{
	Name:  "scan-all",
	Usage: "check every follower once, then exit",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "page-size",
			Usage:   "followers per page",
			Value:   followscan.DefaultPageSize,
			EnvVars: []string{"FOLLOWGUARD_PAGE_SIZE"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		g, err := setupGuard(ctx, cctx, logger)
		if err != nil {
			return err
		}
		defer g.Close()

		stats, err := g.Scanner.ScanAll(ctx, cctx.Int("page-size"))
		if stats != nil {
			printJSON(stats)
		}
		return err
	},
}

var scanRecentCmd = &cli.Command{
	Name:  "scan-recent",
	Usage: "check the most recent followers once, then exit",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "number of recent followers to check",
			Value:   followscan.DefaultRecentLimit,
			EnvVars: []string{"FOLLOWGUARD_RECENT_LIMIT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		g, err := setupGuard(ctx, cctx, logger)
		if err != nil {
			return err
		}
		defer g.Close()

		stats, err := g.Scanner.ScanRecent(ctx, cctx.Int("limit"))
		if stats != nil {
			printJSON(stats)
		}
		return err
	},
}

var inspectCmd = &cli.Command{
	Name:      "inspect",
	Usage:     "fetch an account's profile and show how each rule evaluates it (no list or ledger writes)",
	ArgsUsage: `<handle-or-did>`,
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		atid, err := parseAccountArg(cctx)
		if err != nil {
			return err
		}
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		matcher, err := loadMatcher(cctx, logger)
		if err != nil {
			return err
		}
		nc, err := login(ctx, cctx, logger)
		if err != nil {
			return err
		}

		pv, err := nc.GetProfileDetailed(ctx, atid.String())
		if err != nil {
			return err
		}
		printJSON(map[string]any{
			"did":         pv.Did,
			"handle":      pv.Handle,
			"explanation": matcher.Explain(followscan.ProfileFromView(pv)),
		})
		return nil
	},
}

var recheckCmd = &cli.Command{
	Name:      "recheck",
	Usage:     "re-evaluate an account regardless of the ledger, and record the new outcome",
	ArgsUsage: `<handle-or-did>`,
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		atid, err := parseAccountArg(cctx)
		if err != nil {
			return err
		}
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		g, err := setupGuard(ctx, cctx, logger)
		if err != nil {
			return err
		}
		defer g.Close()

		// resolve handles (and current handle for DIDs) via the profile
		pv, err := g.Network.GetProfileDetailed(ctx, atid.String())
		if err != nil {
			return err
		}
		did, err := syntax.ParseDID(pv.Did)
		if err != nil {
			return err
		}
		handle, err := syntax.ParseHandle(pv.Handle)
		if err != nil {
			handle = syntax.HandleInvalid
		}

		out, err := g.Evaluator.Recheck(ctx, followscan.Follower{DID: did, Handle: handle})
		printJSON(out)
		return err
	},
}

func parseAccountArg(cctx *cli.Context) (syntax.AtIdentifier, error) {
	s := cctx.Args().First()
	if s == "" {
		return "", fmt.Errorf("%w: need to provide account handle or DID as an argument", followscan.ErrConfig)
	}
	atid, err := syntax.ParseAtIdentifier(s)
	if err != nil {
		return "", errors.Join(followscan.ErrConfig, err)
	}
	return atid, nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}

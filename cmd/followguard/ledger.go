package main

import (
	"errors"
	"fmt"

	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/followscan"
	"github.com/bluesky-social/followguard/ledger"

	cli "github.com/urfave/cli/v2"
)

var ledgerCmd = &cli.Command{
	Name:  "ledger",
	Usage: "inspect the ledger of checked followers",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:  "recent",
			Usage: "list most recently checked accounts",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: ledger.DefaultRecentLimit,
				},
				&cli.BoolFlag{
					Name:  "blocked",
					Usage: "only show accounts which matched a rule",
				},
			},
			Action: runLedgerRecent,
		},
		&cli.Command{
			Name:      "show",
			Usage:     "show the check record for an account",
			ArgsUsage: `<did>`,
			Action:    runLedgerShow,
		},
	},
}

func runLedgerRecent(cctx *cli.Context) error {
	ctx := cctx.Context
	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}
	l, closer, err := openLedger(cctx, logger)
	if err != nil {
		return err
	}
	defer closer()

	recs, err := l.RecentChecks(ctx, cctx.Int("limit"))
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if cctx.Bool("blocked") && !rec.Blocked {
			continue
		}
		reason := ""
		if rec.Reason != nil {
			reason = *rec.Reason
		}
		fmt.Printf("%s\t%s\t%s\tblocked=%v\t%s\n", rec.CheckedAt.Format(syntax.AtprotoDatetimeLayout), rec.DID, rec.Handle, rec.Blocked, reason)
	}
	return nil
}

func runLedgerShow(cctx *cli.Context) error {
	ctx := cctx.Context
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("%w: need to provide account DID as an argument", followscan.ErrConfig)
	}
	did, err := syntax.ParseDID(s)
	if err != nil {
		return err
	}
	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}
	l, closer, err := openLedger(cctx, logger)
	if err != nil {
		return err
	}
	defer closer()

	rec, err := l.GetCheck(ctx, did)
	if errors.Is(err, ledger.ErrNotFound) {
		fmt.Printf("%s has not been checked\n", did)
		return nil
	} else if err != nil {
		return err
	}
	printJSON(rec)
	return nil
}

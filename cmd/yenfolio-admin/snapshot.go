package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"yenfolio/pkg/yenfolio"
)

// snapshotCmd records today's portfolio valuation.
type snapshotCmd struct{}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "value all holdings and record today's snapshot" }
func (*snapshotCmd) Usage() string {
	return `yenfolio-admin snapshot

  Fetches live prices, values every holding in JPY and upserts a snapshot
  for today's date in Asia/Tokyo.
`
}
func (*snapshotCmd) SetFlags(*flag.FlagSet) {}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	snapshot, err := core.CreateSnapshot()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("snapshot %s\n", snapshot.Date)
	printBucket("  stocks", snapshot.StockValue)
	printBucket("  crypto", snapshot.CryptoValue)
	printBucket("  total ", snapshot.TotalValue)
	fmt.Printf("  usd/jpy %.2f\n", snapshot.ExchangeRate)
	return subcommands.ExitSuccess
}

func printBucket(label string, value *yenfolio.Amount) {
	if value == nil {
		fmt.Printf("%s (no data)\n", label)
		return
	}
	fmt.Printf("%s %s JPY\n", label, value.StringFixed(0))
}

// backfillCmd estimates missing crypto values in historical snapshots.
type backfillCmd struct{}

func (*backfillCmd) Name() string { return "backfill-crypto" }
func (*backfillCmd) Synopsis() string {
	return "estimate missing crypto values in past snapshots"
}
func (*backfillCmd) Usage() string {
	return `yenfolio-admin backfill-crypto

  Fills snapshot days with no crypto value by interpolating between the
  surrounding known values, carrying the last known value forward at the
  tail. Totals are recomputed where the stock value is known.
`
}
func (*backfillCmd) SetFlags(*flag.FlagSet) {}

func (c *backfillCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	updated, err := core.BackfillCryptoValues()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("updated %d snapshot(s)\n", updated)
	return subcommands.ExitSuccess
}

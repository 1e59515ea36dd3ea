package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"yenfolio/pkg/yenfolio"
)

// newYearCmd opens a fresh annual performance row.
type newYearCmd struct {
	year int
}

func (*newYearCmd) Name() string     { return "new-year" }
func (*newYearCmd) Synopsis() string { return "open an annual performance row for a year" }
func (*newYearCmd) Usage() string {
	return `yenfolio-admin new-year [-year <yyyy>]

  Creates the year's performance row, seeding its start value from the
  previous year's end value when available.
`
}

func (c *newYearCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", yenfolio.CurrentYearInTokyo(), "Year to open")
}

func (c *newYearCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	created, err := core.CreateNewYear(c.year)
	if err != nil {
		return fail(err)
	}
	if !created {
		fmt.Printf("year %d already exists\n", c.year)
		return subcommands.ExitSuccess
	}
	fmt.Printf("year %d opened\n", c.year)
	return subcommands.ExitSuccess
}

// finalizeYearCmd closes a year from its recorded snapshots.
type finalizeYearCmd struct {
	year int
}

func (*finalizeYearCmd) Name() string     { return "finalize-year" }
func (*finalizeYearCmd) Synopsis() string { return "close a year using its recorded snapshots" }
func (*finalizeYearCmd) Usage() string {
	return `yenfolio-admin finalize-year -year <yyyy>

  Sets the year's end value from its last valid snapshot and computes the
  year's performance.
`
}

func (c *finalizeYearCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year to finalize")
}

func (c *finalizeYearCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		fmt.Fprintln(os.Stderr, "Error: -year is required")
		return subcommands.ExitUsageError
	}

	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	record, err := core.FinalizeYear(c.year)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("year %d finalized: profit %s JPY (%.2f%%)\n",
		record.Year, record.ActualProfit.StringFixed(0), record.ReturnPercent)
	return subcommands.ExitSuccess
}

// reportCmd prints the annual performance table.
type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the annual performance table" }
func (*reportCmd) Usage() string {
	return `yenfolio-admin report

  Prints one row per computable year: start and end values, capital
  moved, actual profit and the return on average capital.
`
}
func (*reportCmd) SetFlags(*flag.FlagSet) {}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	records, err := core.AllYearsPerformance()
	if err != nil {
		return fail(err)
	}
	if len(records) == 0 {
		fmt.Println("no computable years")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tSTART\tEND\tADDED\tWITHDRAWN\tPROFIT\tRETURN\tMETHOD")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f%%\t%s\n",
			r.Year,
			r.StartValue.StringFixed(0),
			r.EndValue.StringFixed(0),
			r.CapitalAdded.StringFixed(0),
			r.CapitalWithdrawn.StringFixed(0),
			r.ActualProfit.StringFixed(0),
			r.ReturnPercent,
			r.Method,
		)
	}
	_ = w.Flush()
	return subcommands.ExitSuccess
}

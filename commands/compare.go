package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

var CompareCmd = Compare{
	command: command{},
	report:  "Report!A1:D",
}

// Compare reconciles a source table against the target worksheet without changing it and
// writes the updated, added, not existing and unchanged keys to a report worksheet.
type Compare struct {
	command
	source      string
	sourceRange string
	policy      string
	report      string
	noreport    bool
}

func (c *Compare) Name() string {
	return "compare"
}

func (c *Compare) Description() string {
	return "Compares a source table with a Google Sheets worksheet"
}

func (c *Compare) Usage() string {
	return "--url <url> --range <range> --source <file> | --source-range <range>"
}

func (c *Compare) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] compare [options] --url <URL> --range <range> --source <file> | --source-range <range>\n", APP)
	fmt.Println()
	fmt.Println("  Compares a source table with a Google Sheets worksheet and writes the result to a report worksheet")
	fmt.Println()

	helpOptions(c.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-merge compare --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                         --range "Japan_Deal_Intake!A1:AB" \`)
	fmt.Println(`                         --source "Japan_Deal_intake_New.xlsx" \`)
	fmt.Println(`                         --report-range "Audit!A1:D"`)
	fmt.Println()
}

func (c *Compare) FlagSet() *flag.FlagSet {
	flagset := c.flagset("compare")

	flagset.StringVar(&c.source, "source", c.source, "Source spreadsheet file (.xlsx, .csv or .tsv), optionally with a sheet e.g. 'deals.xlsx#Intake'")
	flagset.StringVar(&c.sourceRange, "source-range", c.sourceRange, "Source worksheet range on the same spreadsheet e.g. 'Import!A1:AB'")
	flagset.StringVar(&c.policy, "policy", c.policy, "Duplicate target key policy ('first' or 'reject')")
	flagset.StringVar(&c.report, "report-range", c.report, "Spreadsheet range for compare report")
	flagset.BoolVar(&c.noreport, "no-report", c.noreport, "Prints the report instead of writing it to the report worksheet")

	return flagset
}

func (c *Compare) Execute(ctx context.Context, options *Options) error {
	c.configure(options)

	if err := c.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.source) == "" && strings.TrimSpace(c.sourceRange) == "" {
		return fmt.Errorf("one of --source or --source-range is required")
	}

	mergeopts, err := mergeOptions(options.Settings, c.policy)
	if err != nil {
		return err
	}

	google, err := c.connect(ctx, SHEETS)
	if err != nil {
		return err
	}

	source, sourceID := sourceLoader(options.Settings, google, c.source, c.sourceRange)

	plan, err := merge.Sync(ctx, merge.Job{
		Source:   source,
		SourceID: sourceID,
		Target:   google,
		TargetID: c.area,
		Options:  mergeopts,
		DryRun:   true,
	})

	if err != nil {
		return err
	}

	if c.noreport {
		return merge.WritePlan(os.Stdout, plan)
	}

	if err := google.WriteReport(ctx, c.report, plan, time.Now()); err != nil {
		return fmt.Errorf("error writing report to Google Sheets (%v)", err)
	}

	log.Infof("Wrote compare report to %v", c.report)

	return nil
}

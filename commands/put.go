package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dealdesk/sheets-merge/log"
)

var PutCmd = Put{
	command: command{},
	file:    "",
}

// Put replaces the contents of a worksheet range with a local spreadsheet file, e.g. to stage
// a new source table on the same spreadsheet before a merge with --source-range.
type Put struct {
	command
	file string
}

func (c *Put) Name() string {
	return "put"
}

func (c *Put) Description() string {
	return "Uploads a TSV, CSV or XLSX file to a Google Sheets worksheet"
}

func (c *Put) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (c *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a TSV, CSV or XLSX file to a Google Sheets worksheet, replacing the range contents")
	fmt.Println()

	helpOptions(c.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-merge --debug put --credentials "credentials.json" \`)
	fmt.Println(`                             --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                             --range "Import!A1:AB" \`)
	fmt.Println(`                             --file "Japan_Deal_intake_New.xlsx#Intake"`)
	fmt.Println()
}

func (c *Put) FlagSet() *flag.FlagSet {
	flagset := c.flagset("put")

	flagset.StringVar(&c.file, "file", c.file, "TSV, CSV or XLSX file, optionally with a sheet e.g. 'deals.xlsx#Intake'")

	return flagset
}

func (c *Put) Execute(ctx context.Context, options *Options) error {
	c.configure(options)

	if err := c.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	table, err := sourceFiles(options.Settings).Load(ctx, c.file)
	if err != nil {
		return fmt.Errorf("invalid file %v (%v)", c.file, err)
	}

	google, err := c.connect(ctx, SHEETS)
	if err != nil {
		return err
	}

	if err := google.Put(ctx, c.area, table); err != nil {
		return err
	}

	log.Infof("Uploaded %v rows from %v to Google Sheets %v", len(table.Rows), c.file, c.area)

	return nil
}

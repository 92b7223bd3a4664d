package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/worksheet"
)

var GetCmd = Get{
	command: command{},
	file:    "",
}

// Get downloads a worksheet range to a local TSV or XLSX file.
type Get struct {
	command
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a Google Sheets worksheet range and stores it to a local file"
}

func (cmd *Get) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet to a TSV or XLSX file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-merge --debug get --credentials "credentials.json" \`)
	fmt.Println(`                             --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                             --range "Japan_Deal_Intake!A1:AB" \`)
	fmt.Println(`                             --file "deals.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV or XLSX file name. Defaults to '<sheet> <yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
	cmd.configure(options)

	if err := cmd.validate(); err != nil {
		return err
	}

	google, err := cmd.connect(ctx, SHEETS)
	if err != nil {
		return err
	}

	table, err := google.Load(ctx, cmd.area)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%v)", err)
	}

	r, err := worksheet.ParseRange(cmd.area)
	if err != nil {
		return err
	}

	file := cmd.file
	if file == "" {
		file = filepath.Join(cmd.workdir, fmt.Sprintf("%v %v.tsv", filename(r.Sheet), time.Now().Format("2006-01-02T150405")))
	}

	if err := backup(file, r.Sheet, table); err != nil {
		return err
	}

	log.Infof("Retrieved %v rows to file %s", len(table.Rows), file)

	return nil
}

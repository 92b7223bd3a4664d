package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
	"github.com/dealdesk/sheets-merge/spreadsheet"
	"github.com/dealdesk/sheets-merge/worksheet"
)

var MergeCmd = Merge{
	command: command{},

	backup:       "backups",
	backupFormat: "xlsx",
	logRetention: -1,
}

// Merge reconciles a source table (a local spreadsheet file or another worksheet range) into
// the target worksheet.
type Merge struct {
	command
	source       string
	sourceRange  string
	policy       string
	plan         string
	backup       string
	backupFormat string
	noBackup     bool
	reportRange  string
	logRange     string
	logRetention int
	nolog        bool
	dryrun       bool
}

func (cmd *Merge) Name() string {
	return "merge"
}

func (cmd *Merge) Description() string {
	return "Merges a source table into a Google Sheets worksheet"
}

func (cmd *Merge) Usage() string {
	return "--url <url> --range <range> --source <file>"
}

func (cmd *Merge) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] merge [options] --url <URL> --range <range> --source <file>\n", APP)
	fmt.Println()
	fmt.Println("  Merges the rows of a source table into a Google Sheets worksheet. Rows are matched on the key")
	fmt.Println("  columns, changed cells are updated, new rows are added at the top of the worksheet and the")
	fmt.Println("  status column of every row is set to one of NOT_EXIST, NO_UPDATE, UPDATED or NEWLY_ADDED.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-merge merge --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                       --range "Japan_Deal_Intake!A1:AB" \`)
	fmt.Println(`                       --source "Japan_Deal_intake_New.xlsx"`)
	fmt.Println()
	fmt.Println(`    sheets-merge --debug merge --dry-run --plan plan.yaml \`)
	fmt.Println(`                               --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                               --range "Japan_Deal_Intake!A1:AB" \`)
	fmt.Println(`                               --source-range "Import!A1:AB"`)
	fmt.Println()
}

func (cmd *Merge) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("merge")

	flagset.StringVar(&cmd.source, "source", cmd.source, "Source spreadsheet file (.xlsx, .csv or .tsv), optionally with a sheet e.g. 'deals.xlsx#Intake'")
	flagset.StringVar(&cmd.sourceRange, "source-range", cmd.sourceRange, "Source worksheet range on the same spreadsheet e.g. 'Import!A1:AB'")
	flagset.StringVar(&cmd.policy, "policy", cmd.policy, "Duplicate target key policy ('first' or 'reject')")
	flagset.StringVar(&cmd.plan, "plan", cmd.plan, "Writes the merge plan to a YAML file")
	flagset.StringVar(&cmd.backup, "backup", cmd.backup, "Backup directory for the target worksheet snapshot, relative to the workdir")
	flagset.StringVar(&cmd.backupFormat, "backup-format", cmd.backupFormat, "Backup file format ('xlsx' or 'tsv')")
	flagset.BoolVar(&cmd.noBackup, "no-backup", cmd.noBackup, "Disables the target worksheet backup")
	flagset.StringVar(&cmd.reportRange, "report-range", cmd.reportRange, "Spreadsheet range for the merge report e.g. 'Report!A1:D'")
	flagset.StringVar(&cmd.logRange, "log-range", cmd.logRange, "Spreadsheet range for the run log. Defaults to the configured log range")
	flagset.IntVar(&cmd.logRetention, "log-retention", cmd.logRetention, "Log sheet records older than 'log-retention' days are pruned. Defaults to the configured retention")
	flagset.BoolVar(&cmd.nolog, "no-log", cmd.nolog, "Disables writing a summary to the log worksheet")
	flagset.BoolVar(&cmd.dryrun, "dry-run", cmd.dryrun, "Reconciles without making any changes to the worksheet")

	return flagset
}

func (cmd *Merge) Execute(ctx context.Context, options *Options) error {
	cmd.configure(options)

	if options.Settings != nil {
		if cmd.logRange == "" {
			cmd.logRange = options.Settings.Log.Range
		}

		if cmd.logRetention < 0 {
			cmd.logRetention = options.Settings.Log.Retention
		}
	}

	if err := cmd.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.source) == "" && strings.TrimSpace(cmd.sourceRange) == "" {
		return fmt.Errorf("one of --source or --source-range is required")
	}

	if cmd.backupFormat != "xlsx" && cmd.backupFormat != "tsv" {
		return fmt.Errorf("invalid --backup-format '%v' - expected 'xlsx' or 'tsv'", cmd.backupFormat)
	}

	mergeopts, err := mergeOptions(options.Settings, cmd.policy)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	log.With("run", runID)

	google, err := cmd.connect(ctx, SHEETS)
	if err != nil {
		return err
	}

	source, sourceID := sourceLoader(options.Settings, google, cmd.source, cmd.sourceRange)

	job := merge.Job{
		Source:   source,
		SourceID: sourceID,
		Target:   google,
		TargetID: cmd.area,
		Options:  mergeopts,
		DryRun:   cmd.dryrun,
		BeforeWrite: func(ctx context.Context, target *merge.Table, plan *merge.Plan) error {
			if cmd.plan != "" {
				if err := cmd.writePlan(plan); err != nil {
					return err
				}
			}

			if !cmd.dryrun && !cmd.noBackup && !plan.Empty() {
				return cmd.snapshot(ctx, google, target)
			}

			return nil
		},
	}

	plan, err := merge.Sync(ctx, job)
	if err != nil {
		return err
	}

	summary := plan.Summary

	log.Infof("Merged %v source rows into %v target rows: unchanged:%v updated:%v added:%v not-exist:%v cells:%v",
		summary.Source, summary.Target, summary.Unchanged, summary.Updated, summary.Added, summary.NotExist, summary.Cells)

	now := time.Now()

	if cmd.reportRange != "" {
		if err := google.WriteReport(ctx, cmd.reportRange, plan, now); err != nil {
			return fmt.Errorf("error writing report to Google Sheets (%v)", err)
		}
	}

	if cmd.dryrun || cmd.nolog || cmd.logRange == "" {
		return nil
	}

	entry := worksheet.Entry{
		Timestamp: now,
		RunID:     runID,
		Source:    sourceID,
		Target:    cmd.area,
		Summary:   summary,
	}

	if err := google.AppendLog(ctx, cmd.logRange, entry); err != nil {
		return err
	}

	if cmd.logRetention > 0 {
		if _, err := google.PruneLog(ctx, cmd.logRange, cmd.logRetention, now); err != nil {
			return err
		}
	}

	return nil
}

func (cmd *Merge) writePlan(plan *merge.Plan) error {
	f, err := os.Create(cmd.plan)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := merge.WritePlan(f, plan); err != nil {
		return fmt.Errorf("error writing plan to %v (%v)", cmd.plan, err)
	}

	log.Infof("Wrote merge plan to %v", cmd.plan)

	return nil
}

// snapshot saves the target table as loaded, named after the latest spreadsheet revision if
// it can be retrieved and the current time otherwise.
func (cmd *Merge) snapshot(ctx context.Context, google *worksheet.Sheets, target *merge.Table) error {
	r, err := worksheet.ParseRange(cmd.area)
	if err != nil {
		return err
	}

	tag := time.Now().Format("2006-01-02T150405")
	if version, err := cmd.revision(ctx, google.Spreadsheet()); err != nil {
		log.Warnf("unable to retrieve spreadsheet revision (%v)", err)
	} else {
		tag = fmt.Sprintf("%v-%v", version.Modified.Format("2006-01-02T150405"), version.Revision)
	}

	dir := cmd.backup
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cmd.workdir, dir)
	}

	file := filepath.Join(dir, fmt.Sprintf("%v %v.%v", filename(r.Sheet), tag, cmd.backupFormat))

	return backup(file, r.Sheet, target)
}

// backup writes a table to a file via a temporary file so that a failed backup never leaves
// a partial file behind.
func backup(file string, sheet string, table *merge.Table) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(file))
	tmp, err := os.CreateTemp(dir, ".backup-*"+ext)
	if err != nil {
		return err
	}

	tmpfile := tmp.Name()
	defer os.Remove(tmpfile)

	switch ext {
	case ".xlsx":
		tmp.Close()
		err = spreadsheet.WriteXLSX(tmpfile, sheet, table)

	default:
		err = worksheet.MakeTSV(tmp, table)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
	}

	if err != nil {
		return fmt.Errorf("error creating backup file (%v)", err)
	}

	if err := os.Rename(tmpfile, file); err != nil {
		return err
	}

	log.Infof("Backed up %v rows to %v", len(table.Rows), file)

	return nil
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dealdesk/sheets-merge/config"
	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
	"github.com/dealdesk/sheets-merge/spreadsheet"
	"github.com/dealdesk/sheets-merge/worksheet"
)

const APP = "sheets-merge"

// Options holds the global command line options and the loaded configuration.
type Options struct {
	Debug    bool
	Config   string
	Settings *config.Config
}

// Command is implemented by every sheets-merge subcommand.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Help()
	FlagSet() *flag.FlagSet
	Execute(ctx context.Context, options *Options) error
}

// command holds the options shared by all the commands that access Google Sheets. Unset
// options default to the configuration values.
type command struct {
	workdir     string
	credentials string
	tokens      string
	url         string
	area        string
	rate        int
	retries     uint64
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (tokens, backups, etc)")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Directory for the cached OAuth2 tokens")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL")
	flagset.StringVar(&c.area, "range", c.area, "Spreadsheet range e.g. 'Japan_Deal_Intake!A1:AB'")

	return flagset
}

func (c *command) configure(options *Options) {
	c.debug = options.Debug

	set := func(v *string, dflt string) {
		if strings.TrimSpace(*v) == "" {
			*v = dflt
		}
	}

	if options.Settings == nil {
		set(&c.workdir, DEFAULT_WORKDIR)
		set(&c.credentials, DEFAULT_CREDENTIALS)
		return
	}

	google := options.Settings.Google

	set(&c.workdir, google.Workdir)
	set(&c.credentials, google.Credentials)
	set(&c.tokens, google.Tokens)
	set(&c.url, google.URL)
	set(&c.area, google.Range)

	c.rate = google.Rate
	c.retries = google.Retries
}

func (c *command) validate() error {
	if strings.TrimSpace(c.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	if strings.TrimSpace(c.url) == "" {
		return fmt.Errorf("--url is a required option")
	}

	if strings.TrimSpace(c.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	if _, err := worksheet.ParseRange(c.area); err != nil {
		return fmt.Errorf("invalid --range (%v)", err)
	}

	return nil
}

// connect authorises access to the spreadsheet and returns a rate limited client for it.
func (c *command) connect(ctx context.Context, scope string) (*worksheet.Sheets, error) {
	spreadsheet, err := worksheet.SpreadsheetID(c.url)
	if err != nil {
		return nil, err
	}

	log.Debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, c.area)

	client, err := authorize(ctx, c.credentials, scope, c.tokenDir())
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return worksheet.NewSheets(google, spreadsheet, c.rate, c.retries), nil
}

// revision returns the latest Drive revision of the spreadsheet.
func (c *command) revision(ctx context.Context, spreadsheet string) (*worksheet.Version, error) {
	client, err := authorize(ctx, c.credentials, DRIVE, c.tokenDir())
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	gdrive, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	return worksheet.LatestRevision(ctx, gdrive, spreadsheet)
}

func (c *command) tokenDir() string {
	if c.tokens != "" {
		return c.tokens
	}

	return filepath.Join(c.workdir, ".google")
}

// mergeOptions builds the reconciliation options from the configuration. A non-empty policy
// overrides the configured policy.
func mergeOptions(settings *config.Config, policy string) (merge.Options, error) {
	options := merge.DefaultOptions()
	patterns := []string{}

	if settings != nil {
		if len(settings.Merge.Keys) > 0 {
			options.Keys = settings.Merge.Keys
		}

		if settings.Merge.Status != "" {
			options.Status = settings.Merge.Status
		}

		if policy == "" {
			policy = settings.Merge.Policy
		}

		patterns = settings.Merge.Ignore
	}

	p, err := merge.ParsePolicy(policy)
	if err != nil {
		return options, err
	}

	ignore, err := merge.CompileIgnore(patterns)
	if err != nil {
		return options, err
	}

	options.Policy = p
	options.Ignore = ignore

	return options, nil
}

// sourceLoader returns the loader and identifier for a merge source. A local file takes
// precedence over a worksheet range on the target spreadsheet.
func sourceLoader(settings *config.Config, google *worksheet.Sheets, file, area string) (merge.Loader, string) {
	if strings.TrimSpace(file) == "" {
		return google, area
	}

	return sourceFiles(settings), file
}

func sourceFiles(settings *config.Config) spreadsheet.Files {
	files := spreadsheet.Files{}
	if settings != nil {
		files.Header = settings.Merge.Header
		files.Sheet = settings.Merge.Sheet
	}

	return files
}

// filename replaces the characters in a worksheet title that are not valid in a file name.
func filename(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || r < 0x20 {
			return '_'
		}

		return r
	}, strings.TrimSpace(title))

	if name == "" || name == "." || name == ".." {
		return "sheet"
	}

	return name
}

func helpOptions(flagset *flag.FlagSet) {
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-14s %s\n", f.Name, f.Usage)
	})

	fmt.Println()
	fmt.Println("  Options:")
	fmt.Println()
	fmt.Println("    --debug        Displays internal information for diagnosing errors")
	fmt.Println("    --config       YAML configuration file")
}

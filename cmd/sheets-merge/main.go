package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dealdesk/sheets-merge/commands"
	"github.com/dealdesk/sheets-merge/config"
	"github.com/dealdesk/sheets-merge/log"
)

var cli = []commands.Command{
	&commands.VersionCmd,
	&commands.MergeCmd,
	&commands.CompareCmd,
	&commands.GetCmd,
	&commands.PutCmd,
}

var options = commands.Options{
	Debug: false,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := rootCmd()
	root.SetOut(os.Stdout)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	log.Sync()
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   commands.APP,
		Short: "Merges deal intake rows into a Google Sheets worksheet",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadConfig(".", options.Config)
			if err != nil {
				return err
			}

			options.Settings = settings

			return log.Init(settings.Log.Logger(), options.Debug)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	root.PersistentFlags().BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	root.PersistentFlags().StringVar(&options.Config, "config", options.Config, "YAML configuration file")

	for _, c := range cli {
		root.AddCommand(subcommand(c))
	}

	return root
}

func subcommand(c commands.Command) *cobra.Command {
	sub := &cobra.Command{
		Use:   c.Name() + " " + c.Usage(),
		Short: c.Description(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Execute(cmd.Context(), &options)
		},
	}

	sub.Flags().AddGoFlagSet(c.FlagSet())
	sub.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.Help()
	})

	return sub
}

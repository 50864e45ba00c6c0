package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jbrick2070/Archival-Flow/internal/config"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
	"github.com/jbrick2070/Archival-Flow/internal/shared/utils"
)

const appVersion = "0.3.0"

// Color helpers shared by the plain-output commands.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger logging.Logger
}

func loadApp(verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
		utils.GetLogger().SetLevel(utils.DEBUG)
	} else {
		utils.GetLogger().SetLevel(utils.INFO)
	}
	return &app{cfg: cfg, logger: logging.NewComponentLogger("cli")}, nil
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "archivalflow",
		Short: "Publish audio to an Internet Archive style service",
		Long: `archivalflow publishes a local audio file to an Internet Archive style
content-storage service, generates listing metadata for it, and tracks the
service's post-processing of the upload until the item page is fully
rendered.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newPublishCommand(&verbose))
	rootCmd.AddCommand(newLoginCommand(&verbose))
	rootCmd.AddCommand(newStatusCommand(&verbose))
	rootCmd.AddCommand(newConfigCommand(&verbose))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("archivalflow %s\n", appVersion)
		},
	}
}

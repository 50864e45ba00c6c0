package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
)

func newStatusCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status <identifier>",
		Short: "Check whether an item's post-processing has finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*verbose)
			if err != nil {
				return err
			}

			identifier := args[0]
			client := archive.NewClient(a.cfg, a.logger)

			if client.CheckDerived(cmd.Context(), identifier) {
				fmt.Printf("%s %s is ready\n", green("✓"), bold(identifier))
				fmt.Printf("  %s\n", cyan(client.PublicURL(identifier)))
				return nil
			}

			fmt.Printf("%s %s is still processing (or unknown)\n", yellow("…"), bold(identifier))
			return nil
		},
	}
}

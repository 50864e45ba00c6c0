package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbrick2070/Archival-Flow/internal/config"
)

func newConfigCommand(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*verbose)
			if err != nil {
				return err
			}
			cfg := a.cfg
			fmt.Printf("%s\n", bold("endpoints"))
			fmt.Printf("  upload_base_url       %s\n", cfg.UploadBaseURL)
			fmt.Printf("  metadata_base_url     %s\n", cfg.MetadataBaseURL)
			fmt.Printf("  public_base_url       %s\n", cfg.PublicBaseURL)
			fmt.Printf("%s\n", bold("item classification"))
			fmt.Printf("  collection            %s\n", cfg.Collection)
			fmt.Printf("  media_type            %s\n", cfg.MediaType)
			fmt.Printf("  derived_format        %s\n", cfg.DerivedFormat)
			fmt.Printf("%s\n", bold("polling"))
			fmt.Printf("  poll_interval_seconds %d\n", cfg.PollIntervalSeconds)
			fmt.Printf("%s\n", bold("metadata generation"))
			fmt.Printf("  llm_base_url          %s\n", cfg.LLMBaseURL)
			fmt.Printf("  llm_model             %s\n", cfg.LLMModel)
			fmt.Printf("  llm_api_key           %s\n", maskSecret(cfg.LLMAPIKey))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !config.IsSettableKey(key) {
				return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(config.SettableKeys(), ", "))
			}
			if err := config.Save(key, value); err != nil {
				return err
			}
			fmt.Printf("%s %s = %s\n", green("✓"), key, value)
			return nil
		},
	})

	return cmd
}

func maskSecret(s string) string {
	if s == "" {
		return gray("(unset)")
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "..." + s[len(s)-2:]
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/credentials"
)

func newLoginCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store and verify storage service credentials",
		Long: `Prompts for the storage service's S3-style access and secret keys,
verifies them with a non-destructive probe, and stores them for later
publishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*verbose)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), a)
		},
	}
}

func runLogin(ctx context.Context, a *app) error {
	existing, err := credentials.Load()
	if err != nil {
		return err
	}
	if existing.Present() {
		fmt.Printf("%s existing credentials for access key %s will be replaced\n",
			yellow("!"), gray(existing.AccessKey))
	}

	accessPrompt := promptui.Prompt{
		Label:    "Access key",
		Validate: notBlank,
	}
	accessKey, err := accessPrompt.Run()
	if err != nil {
		return err
	}

	secretPrompt := promptui.Prompt{
		Label:    "Secret key",
		Mask:     '*',
		Validate: notBlank,
	}
	secretKey, err := secretPrompt.Run()
	if err != nil {
		return err
	}

	rec := credentials.Record{
		AccessKey: strings.TrimSpace(accessKey),
		SecretKey: strings.TrimSpace(secretKey),
	}

	client := archive.NewClient(a.cfg, a.logger)
	rec.Verified = client.VerifyCredentials(ctx, rec.Pair())

	if err := credentials.Save(rec); err != nil {
		return err
	}

	if rec.Verified {
		fmt.Printf("%s credentials verified and saved\n", green("✓"))
		return nil
	}
	fmt.Printf("%s credentials saved, but the service did not accept them\n", yellow("!"))
	fmt.Println(gray("  uploads will fail until valid keys are stored"))
	return nil
}

func notBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/credentials"
	"github.com/jbrick2070/Archival-Flow/internal/metadata"
	"github.com/jbrick2070/Archival-Flow/internal/wizard"
)

// Elapsed wait after which the verification view offers to stop waiting.
const skipOfferAfterSeconds = 20

type publishOptions struct {
	title       string
	creator     string
	description string
	tags        []string
	hint        string
	noTUI       bool
	yes         bool
	skipVerify  bool
}

func newPublishCommand(verbose *bool) *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Publish an audio file and wait for it to render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*verbose)
			if err != nil {
				return err
			}

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}

			file := wizard.File{
				Path: path,
				Name: filepath.Base(path),
				Size: info.Size(),
			}

			rec, err := credentials.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.noTUI || !isTTY() {
				return runPlainPublish(ctx, a, file, rec, opts)
			}

			model := newWizardModel(ctx, a, file, rec, opts)
			_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Override the generated title")
	cmd.Flags().StringVar(&opts.creator, "creator", "", "Override the generated creator")
	cmd.Flags().StringVar(&opts.description, "description", "", "Override the generated description")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "Override the generated tags")
	cmd.Flags().StringVar(&opts.hint, "context", "", "Free-text context for metadata generation")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Line-mode output instead of the interactive wizard")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Publish without confirmation (line mode)")
	cmd.Flags().BoolVar(&opts.skipVerify, "skip-verify", false, "Do not wait for post-processing")

	return cmd
}

// applyOverrides folds command-line flags over the generated metadata.
func applyOverrides(gen metadata.Generated, opts publishOptions) wizard.Draft {
	draft := wizard.Draft{
		Title:       gen.Title,
		Description: gen.Description,
		Creator:     gen.Creator,
		Tags:        gen.Tags,
	}
	if opts.title != "" {
		draft.Title = opts.title
	}
	if opts.creator != "" {
		draft.Creator = opts.creator
	}
	if opts.description != "" {
		draft.Description = opts.description
	}
	if len(opts.tags) > 0 {
		draft.Tags = opts.tags
	}
	return draft
}

// runPlainPublish drives the same orchestrator as the wizard, with line
// output for pipes and --no-tui.
func runPlainPublish(ctx context.Context, a *app, file wizard.File, rec credentials.Record, opts publishOptions) error {
	orch := wizard.New(a.logger)
	client := archive.NewClient(a.cfg, a.logger)
	gen := metadata.NewGenerator(a.cfg, a.logger)

	if err := orch.SelectFile(file); err != nil {
		return err
	}

	fmt.Printf("%s generating metadata for %s\n", cyan("»"), bold(file.Name))
	draft := applyOverrides(gen.Generate(ctx, file.Name, opts.hint), opts)
	orch.SetDraft(draft)

	fmt.Printf("  title:       %s\n", draft.Title)
	fmt.Printf("  creator:     %s\n", orDash(draft.Creator))
	fmt.Printf("  tags:        %s\n", orDash(strings.Join(draft.Tags, ", ")))
	fmt.Printf("  description: %s\n", orDash(draft.Description))

	if !opts.yes {
		confirm := promptui.Prompt{Label: "Publish", IsConfirm: true}
		if _, err := confirm.Run(); err != nil {
			fmt.Println(gray("aborted"))
			orch.Reset()
			return nil
		}
	}

	if err := orch.BeginUpload(rec.Pair()); err != nil {
		if errors.Is(err, wizard.ErrCredentialsMissing) {
			return fmt.Errorf("no stored credentials; run %s first", bold("archivalflow login"))
		}
		return err
	}

	f, err := os.Open(file.Path)
	if err != nil {
		orch.FailUpload(&archive.UploadError{Err: err})
		return err
	}
	defer f.Close()

	events := client.Upload(ctx, archive.UploadRequest{
		FileName:    file.Name,
		Size:        file.Size,
		Body:        f,
		Metadata:    orch.Draft().Metadata(),
		Credentials: rec.Pair(),
	})

	var result *archive.UploadResult
	for ev := range events {
		switch {
		case !ev.Done:
			orch.ApplyProgress(ev.Percent)
			fmt.Printf("\r%s uploading %3d%%", cyan("»"), ev.Percent)
		case ev.Err != nil:
			fmt.Println()
			orch.FailUpload(ev.Err)
		default:
			result = ev.Result
			orch.CompleteUpload(ev.Result)
			fmt.Printf("\r%s uploaded 100%%   \n", green("✓"))
		}
	}

	state := orch.State()
	if state.Step == wizard.StepFailed {
		if state.CredentialFailure {
			fmt.Printf("%s the service rejected the stored credentials\n", red("✗"))
			fmt.Printf("  run %s to re-enter them, then retry\n", bold("archivalflow login"))
		}
		return fmt.Errorf("%s", state.Message)
	}

	fmt.Printf("%s %s\n", green("✓"), cyan(state.URL))

	if opts.skipVerify {
		return nil
	}
	return waitPlain(ctx, a, client, result)
}

func waitPlain(ctx context.Context, a *app, client *archive.Client, result *archive.UploadResult) error {
	task := client.WaitForDerivedFile(ctx, result.Identifier, a.cfg.PollInterval())
	defer task.Stop()

	fmt.Printf("%s waiting for the item page to render (ctrl-c to stop waiting)\n", cyan("»"))
	for {
		select {
		case <-task.Done():
			fmt.Printf("\r%s item rendered after %ds       \n", green("✓"), task.State().ElapsedSeconds)
			return nil
		case <-ctx.Done():
			fmt.Printf("\r%s stopped waiting; the item keeps processing at %s\n", yellow("!"), result.PublicURL)
			return nil
		case <-time.After(time.Second):
			fmt.Printf("\r%s waiting %3ds", cyan("»"), task.State().ElapsedSeconds)
		}
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return gray("-")
	}
	return s
}

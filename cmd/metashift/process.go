package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phambaophuc/meta-shift/internal/app"
	"github.com/phambaophuc/meta-shift/internal/config"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/storage"
	"github.com/phambaophuc/meta-shift/pkg/utils"
	"github.com/spf13/cobra"
)

var errFilesFailed = errors.New("one or more files failed")

type processOptions struct {
	template  string
	alterHash bool
	outDir    string
}

func newProcessCmd(root *rootOptions) *cobra.Command {
	opts := &processOptions{}
	cmd := &cobra.Command{
		Use:   "process <files...>",
		Short: "Shift the metadata of each file and save the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", `template id, or "random" (default from DEFAULT_TEMPLATE)`)
	cmd.Flags().BoolVar(&opts.alterHash, "alter-hash", true, "perturb the content so the output hash changes")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default from OUTPUT_DIR)")
	return cmd
}

func runProcess(cmd *cobra.Command, root *rootOptions, opts *processOptions, paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		cfg.Storage.OutputDir = opts.outDir
	}
	alterHash := cfg.Shift.AlterHash
	if cmd.Flags().Changed("alter-hash") {
		alterHash = opts.alterHash
	}
	id := opts.template
	if id == "" {
		id = cfg.Shift.DefaultTemplate
	}

	logger := root.logger()
	defer logger.Sync()

	services := app.NewServices(cfg, logger)
	store, err := storage.NewStorageService(cfg)
	if err != nil {
		return err
	}

	o := services.NewOrchestrator()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		name := filepath.Base(p)
		o.AddFile(name, utils.DetectMIME(name, "", data), data)
	}

	report, err := o.Run(cmd.Context(), models.ShiftRequest{
		Selection: models.NewSelection(id),
		AlterHash: alterHash,
	})
	if err != nil {
		return err
	}

	saved, saveErr := store.SaveOutputs(cmd.Context(), o.Outputs())

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		switch f.Status {
		case models.StatusDone:
			fmt.Fprintf(out, "ok    %s -> %s [%s]\n", f.Original.Name, f.OutputName, f.TemplateID)
		default:
			fmt.Fprintf(out, "fail  %s: %s\n", f.Original.Name, f.Error)
		}
	}
	for _, p := range saved {
		fmt.Fprintf(out, "saved %s\n", p)
	}
	fmt.Fprintln(out, report.String())

	if saveErr != nil {
		return saveErr
	}
	if report.HasFailures() {
		return errFilesFailed
	}
	return nil
}

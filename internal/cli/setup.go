// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobius-function/invideo-assignment/internal/tui"
	"github.com/mobius-function/invideo-assignment/pkg/widerface"
)

func newSetupCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	layout := widerface.DefaultLayout()
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download, extract, and link the WIDER FACE validation set",
		Long: `Provisions the data directory tree, downloads the validation-image and
annotation archives (skipping any already on disk), extracts them, and
exposes the validation images at a stable input path via a symbolic link,
or a full copy where symlinks are unavailable.

The pipeline is idempotent: re-running it after an interruption redoes only
what is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archives := widerface.DefaultArchives()
			if err := applyConfigDefaults(cmd, ro, &layout, archives); err != nil {
				return err
			}

			// Plan-only mode
			if dryRun {
				return printPlan(ro, layout, archives)
			}

			// Progress mode selection
			var progress widerface.ProgressFunc
			if ro.JSONOut {
				progress = jsonProgress(os.Stdout)
			} else if ro.Quiet {
				progress = quietProgress(os.Stdout)
			} else {
				ui := tui.NewRenderer()
				defer ui.Close()
				progress = ui.Handler()
			}

			return widerface.Run(ctx, layout, archives, widerface.Settings{}, progress)
		},
	}

	cmd.Flags().StringVar(&layout.DataDir, "data-dir", layout.DataDir, "Raw download and extraction root")
	cmd.Flags().StringVar(&layout.InputDir, "input-dir", layout.InputDir, "Parent of the materialized input path")
	cmd.Flags().StringVar(&layout.OutputDir, "output-dir", layout.OutputDir, "Output directory provisioned for the cropping stage")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan and exit without touching the network")

	return cmd
}

// applyConfigDefaults merges config-file values into the layout and archive
// set for every flag the user did not set explicitly. Archive URLs have no
// flags (they are compiled in) but may be pinned to mirrors via the file.
func applyConfigDefaults(cmd *cobra.Command, ro *RootOpts, layout *widerface.Layout, archives []widerface.Archive) error {
	path := configFilePath(ro)
	if path == "" {
		return nil
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	setStr := func(flagName string, set func(string)) {
		if cmd.Flags().Changed(flagName) {
			return
		}
		if v, ok := cfg[flagName]; ok && v != nil {
			set(fmt.Sprint(v))
		}
	}

	setStr("data-dir", func(v string) { layout.DataDir = v })
	setStr("input-dir", func(v string) { layout.InputDir = v })
	setStr("output-dir", func(v string) { layout.OutputDir = v })

	setURL := func(key, name string) {
		if v, ok := cfg[key]; ok && v != nil {
			for i := range archives {
				if archives[i].Name == name {
					archives[i].URL = fmt.Sprint(v)
				}
			}
		}
	}

	setURL("val-images-url", "WIDER_val.zip")
	setURL("annotations-url", "wider_face_split.zip")

	return nil
}

// planStep describes one pipeline action for --dry-run output.
type planStep struct {
	Action string `json:"action"`
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
}

func printPlan(ro *RootOpts, layout widerface.Layout, archives []widerface.Archive) error {
	var steps []planStep
	steps = append(steps, planStep{Action: "provision", To: fmt.Sprint(layout.Dirs())})

	for _, ar := range archives {
		dst := layout.ArchivePath(ar.Name)
		action := "fetch"
		if _, err := os.Stat(dst); err == nil {
			action = "cached"
		}
		steps = append(steps, planStep{Action: action, From: ar.URL, To: dst})
		steps = append(steps, planStep{Action: "extract", From: dst, To: layout.DataDir})
	}

	// The real probe runs inside the provisioned input dir; for a dry run
	// the temp dir answers the same capability question.
	m := widerface.DetectMaterializer(os.TempDir())
	steps = append(steps, planStep{Action: m.Name(), From: layout.ValImagesDir(), To: layout.MaterializedPath()})

	if ro.JSONOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(steps)
	}
	fmt.Printf("Plan (%d steps):\n", len(steps))
	for _, s := range steps {
		if s.From != "" {
			fmt.Printf("  %-9s %s -> %s\n", s.Action, s.From, s.To)
		} else {
			fmt.Printf("  %-9s %s\n", s.Action, s.To)
		}
	}
	return nil
}

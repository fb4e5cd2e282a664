// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobius-function/invideo-assignment/pkg/widerface"
)

func newStatsCmd(ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [DIR]",
		Short: "Summarize the materialized image tree",
		Long: `Walks the materialized input path (or DIR) and reports how many images
the cropping stage will see, broken down by event directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := widerface.DefaultLayout().MaterializedPath()
			if len(args) > 0 {
				dir = args[0]
			}

			st, err := widerface.Scan(dir)
			if err != nil {
				if errors.Is(err, widerface.ErrSourceMissing) {
					return fmt.Errorf("%s does not exist; run 'widerprep setup' first", dir)
				}
				return err
			}

			if ro.JSONOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			fmt.Printf("%s: %d images (%s), %d other files\n", st.Root, st.Images, humanBytes(st.Bytes), st.Other)
			for _, d := range st.Dirs() {
				fmt.Printf("  %-42s %6d\n", d, st.ByDir[d])
			}
			if st.Images == 0 {
				fmt.Fprintln(os.Stderr, "warning: no images found; the cropping stage will have nothing to do")
			}
			return nil
		},
	}
	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit && exp < 6 {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

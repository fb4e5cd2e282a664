// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mobius-function/invideo-assignment/pkg/widerface"
)

// RootOpts holds global CLI options.
type RootOpts struct {
	JSONOut bool
	Quiet   bool
	Config  string
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	ro := &RootOpts{}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "widerprep",
		Short:         "Bootstrap the WIDER FACE validation set for the face-cropping pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON events")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Quiet mode (one line per stage)")
	root.PersistentFlags().StringVar(&ro.Config, "config", "", "Path to config file (JSON or YAML)")

	// Add commands
	setupCmd := newSetupCmd(ctx, ro)
	root.AddCommand(setupCmd)
	root.AddCommand(newStatsCmd(ro))
	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newConfigCmd())

	// Make setup the default command when no subcommand is given
	root.RunE = setupCmd.RunE
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// configFilePath resolves the config file to load: an explicit --config path,
// or the first of ~/.config/widerprep.{json,yaml,yml} that exists.
func configFilePath(ro *RootOpts) string {
	if ro.Config != "" {
		return ro.Config
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"widerprep.json", "widerprep.yaml", "widerprep.yml"} {
		p := filepath.Join(home, ".config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadConfigFile parses a config file into a loose key map. CLI flags always
// win over file values; callers only apply keys whose flags were not
// explicitly set.
func loadConfigFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML config file: %w", err)
		}
	default: // .json or unknown
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON config file: %w", err)
		}
	}
	return cfg, nil
}

// quietProgress returns a one-line-per-stage progress handler.
func quietProgress(w io.Writer) widerface.ProgressFunc {
	return func(ev widerface.ProgressEvent) {
		switch ev.Event {
		case "provision":
			fmt.Fprintln(w, "directories ready")
		case "fetch_start":
			fmt.Fprintf(w, "fetching %s\n", ev.URL)
		case "fetch_mirror":
			fmt.Fprintf(w, "mirror fallback %s: %s\n", ev.URL, ev.Message)
		case "fetch_done":
			if ev.Message != "" {
				fmt.Fprintf(w, "%s: %s\n", ev.Archive, ev.Message)
			} else {
				fmt.Fprintf(w, "%s: fetched\n", ev.Archive)
			}
		case "extract_done":
			fmt.Fprintf(w, "%s: extracted %d entries", ev.Archive, ev.Total)
			if ev.Skipped > 0 {
				fmt.Fprintf(w, " (%d unsafe entries skipped)", ev.Skipped)
			}
			fmt.Fprintln(w)
		case "materialize_done":
			fmt.Fprintf(w, "input ready at %s (%s)\n", ev.Path, ev.Strategy)
		case "error":
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Message)
		case "done":
			fmt.Fprintln(w, ev.Message)
		}
	}
}

// jsonProgress returns a JSON-lines progress handler.
func jsonProgress(w io.Writer) widerface.ProgressFunc {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return func(ev widerface.ProgressEvent) {
		_ = enc.Encode(ev)
	}
}

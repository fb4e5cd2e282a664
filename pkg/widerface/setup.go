// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Run executes the full bootstrap pipeline: directory provisioning, archive
// retrieval, extraction, and input materialization, strictly in that order.
//
// Every stage is idempotent against the filesystem, so re-running after a
// failure resumes by redoing only what is missing: cached archives are not
// re-fetched, extraction overwrites in place, and materialization replaces
// the target wholesale. The first error aborts the run.
func Run(ctx context.Context, layout Layout, archives []Archive, cfg Settings, progress ProgressFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if layout == (Layout{}) {
		layout = DefaultLayout()
	}
	if len(archives) == 0 {
		archives = DefaultArchives()
	}

	httpc := cfg.Client
	if httpc == nil {
		httpc = buildHTTPClient()
	}

	emit := func(ev ProgressEvent) {
		if progress != nil {
			if ev.Time.IsZero() {
				ev.Time = time.Now()
			}
			progress(ev)
		}
	}

	fail := func(err error) error {
		emit(ProgressEvent{Event: "error", Message: err.Error()})
		return err
	}

	// Stage 1: directory provisioning. Safe to repeat; any filesystem
	// error is fatal and needs no cleanup.
	for _, dir := range layout.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail(fmt.Errorf("provision %s: %w", dir, err))
		}
	}
	emit(ProgressEvent{Event: "provision", Message: "directory tree ready"})

	// Stage 2: archive retrieval, one blocking fetch at a time.
	var fetched, cached int
	for _, ar := range archives {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		skipped, err := Fetch(ctx, httpc, ar, layout.ArchivePath(ar.Name), emit)
		if err != nil {
			return fail(err)
		}
		if skipped {
			cached++
		} else {
			fetched++
		}
	}

	// Stage 3: extraction into the data dir.
	var droppedEntries int
	for _, ar := range archives {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, err := ExtractZip(layout.ArchivePath(ar.Name), layout.DataDir, emit)
		droppedEntries += n
		if err != nil {
			return fail(err)
		}
	}

	// Stage 4: input materialization.
	m := cfg.Materializer
	if m == nil {
		m = DetectMaterializer(layout.InputDir)
	}
	source, target := layout.ValImagesDir(), layout.MaterializedPath()
	emit(ProgressEvent{Event: "materialize_start", Path: target, Strategy: m.Name()})
	if err := Materialize(m, source, target); err != nil {
		return fail(err)
	}
	emit(ProgressEvent{Event: "materialize_done", Path: target, Strategy: m.Name()})

	emit(ProgressEvent{
		Event:   "done",
		Skipped: droppedEntries,
		Message: fmt.Sprintf("setup complete (fetched %d, cached %d, unsafe entries skipped %d)", fetched, cached, droppedEntries),
	})
	return nil
}

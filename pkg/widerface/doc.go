// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package widerface bootstraps the WIDER FACE validation dataset for the
face-cropping pipeline: it provisions a directory layout, fetches the
validation-image and annotation archives over HTTP(S), extracts them, and
materializes the image tree under a stable input path.

# Pipeline

Run executes four sequential stages, each depending on the previous one's
filesystem side effects:

 1. Directory provisioning (data, input and output directories).
 2. Archive retrieval: streaming GET into a ".tmp" sibling, renamed into
    place only on full success; archives already on disk are trusted and
    skipped. Mirror URLs are tried in order when the primary fails.
 3. Extraction: every zip entry is re-anchored under the data directory;
    entries that would escape it are skipped and counted.
 4. Input materialization: the validation image tree is exposed at a stable
    path via a symbolic link, or a recursive copy where unprivileged
    symlinks are unavailable (probed at startup, see DetectMaterializer).

Every stage is idempotent, so interrupting and re-running the pipeline
resumes with whatever is already on disk.

# Quick start

	err := widerface.Run(context.Background(),
		widerface.DefaultLayout(),
		widerface.DefaultArchives(),
		widerface.Settings{},
		func(e widerface.ProgressEvent) {
			fmt.Printf("[%s] %s %s\n", e.Event, e.Archive, e.Message)
		})
	if err != nil {
		log.Fatal(err)
	}

Progress is observable through the ProgressEvent callback; the pipeline is
sequential and never invokes it concurrently.
*/
package widerface

// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ExtractZip unpacks every entry of archivePath under targetRoot, recreating
// the archive's internal directory structure.
//
// Entries whose names cannot be resolved to a path enclosed within targetRoot
// (absolute names, ".." traversal) are skipped rather than erroring; the
// skipped result carries their count so callers can surface the data loss.
// Entries ending in a separator become directories; all other entries are
// regular files, overwriting whatever is already at their destination.
//
// A corrupt archive stream is fatal for the call. Already-extracted entries
// are left in place (extraction is not transactional).
func ExtractZip(archivePath, targetRoot string, emit func(ProgressEvent)) (skipped int, err error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, &ExtractError{Archive: archivePath, Err: err}
	}
	defer zr.Close()

	name := filepath.Base(archivePath)
	total := int64(len(zr.File))
	emit(ProgressEvent{Event: "extract_start", Archive: name, Path: targetRoot, Total: total})

	lastEmit := time.Now()
	for i, f := range zr.File {
		dst, ok := enclosedPath(targetRoot, f.Name)
		if !ok {
			skipped++
			continue
		}

		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return skipped, &ExtractError{Archive: name, Path: dst, Err: err}
			}
		} else {
			if err := extractFile(f, dst); err != nil {
				return skipped, &ExtractError{Archive: name, Path: dst, Err: err}
			}
		}

		// Throttle emissions to avoid flooding
		if time.Since(lastEmit) >= 200*time.Millisecond || i == len(zr.File)-1 {
			emit(ProgressEvent{Event: "extract_progress", Archive: name, Downloaded: int64(i + 1), Total: total})
			lastEmit = time.Now()
		}
	}

	emit(ProgressEvent{Event: "extract_done", Archive: name, Path: targetRoot, Total: total, Skipped: skipped})
	return skipped, nil
}

// extractFile streams one archive entry to dst, creating parents as needed
// and overwriting any existing file.
func extractFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// enclosedPath re-anchors an archive entry name under root. It reports false
// for entries that would resolve outside root (the defense against archive
// path traversal).
func enclosedPath(root, name string) (string, bool) {
	if name == "" || path.IsAbs(name) || strings.Contains(name, "\x00") {
		return "", false
	}
	// Zip names use forward slashes; Join cleans any ".." segments, so the
	// relative position of the result is what decides enclosure.
	rootClean := filepath.Clean(root)
	dst := filepath.Join(rootClean, filepath.FromSlash(name))
	rel, err := filepath.Rel(rootClean, dst)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", false
	}
	return dst, true
}

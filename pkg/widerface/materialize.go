// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Materializer exposes a source directory at a second, stable path.
//
// Two implementations exist: a symbolic link (cheap, preferred) and a full
// recursive copy for platforms or privilege levels where unprivileged
// symlinks are unavailable. DetectMaterializer picks between them at startup
// by probing the filesystem; the choice is not a user-facing option.
type Materializer interface {
	// Name identifies the strategy ("symlink" or "copy").
	Name() string

	// Materialize makes source's contents available at target. The caller
	// guarantees source exists and target does not.
	Materialize(source, target string) error
}

// SymlinkMaterializer materializes via a symbolic link to the source.
type SymlinkMaterializer struct{}

func (SymlinkMaterializer) Name() string { return "symlink" }

func (SymlinkMaterializer) Materialize(source, target string) error {
	// Link to the absolute source so the link stays valid regardless of
	// the consumer's working directory.
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	return os.Symlink(abs, target)
}

// CopyMaterializer materializes via a full recursive copy of the source.
type CopyMaterializer struct{}

func (CopyMaterializer) Name() string { return "copy" }

func (CopyMaterializer) Materialize(source, target string) error {
	return filepath.WalkDir(source, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(target, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return copyFile(p, dst)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// DetectMaterializer probes whether the process can create symbolic links in
// probeDir and returns the matching strategy. Windows without developer mode
// and restricted containers land on the copy fallback.
func DetectMaterializer(probeDir string) Materializer {
	probe := filepath.Join(probeDir, ".widerprep-linkprobe")
	os.Remove(probe)
	if err := os.Symlink(probeDir, probe); err != nil {
		return CopyMaterializer{}
	}
	os.Remove(probe)
	return SymlinkMaterializer{}
}

// Materialize validates preconditions, clears any pre-existing target, and
// delegates to the strategy. Running it twice is idempotent: the target is
// fully replaced, never merged.
func Materialize(m Materializer, source, target string) error {
	fi, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return &MaterializeError{Path: source, Err: ErrSourceMissing}
		}
		return &MaterializeError{Path: source, Err: err}
	}
	if !fi.IsDir() {
		return &MaterializeError{Path: source, Err: ErrNotADirectory}
	}

	if err := removeExisting(target); err != nil {
		return &MaterializeError{Path: target, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &MaterializeError{Path: target, Err: err}
	}

	if err := m.Materialize(source, target); err != nil {
		return &MaterializeError{Path: target, Err: err}
	}
	return nil
}

// removeExisting deletes whatever sits at target: a file, a stale symlink,
// or a directory tree from a previous copy-fallback run.
func removeExisting(target string) error {
	if _, err := os.Lstat(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.RemoveAll(target)
}

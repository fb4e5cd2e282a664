// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the extensions the cropping stage accepts as input.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Stats summarizes the image tree under a materialized input path.
type Stats struct {
	// Root is the scanned directory.
	Root string `json:"root"`

	// Images is the number of image files found.
	Images int `json:"images"`

	// Bytes is their total size.
	Bytes int64 `json:"bytes"`

	// Other counts non-image files (annotation lists, readmes).
	Other int `json:"other"`

	// ByDir maps each top-level event directory (e.g. "0--Parade") to its
	// image count.
	ByDir map[string]int `json:"byDir"`
}

// Dirs returns the top-level directory names in sorted order.
func (s *Stats) Dirs() []string {
	dirs := make([]string, 0, len(s.ByDir))
	for d := range s.ByDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Scan walks the tree under root and counts image files per top-level
// directory. Symlinked roots are followed. An empty tree is a valid result,
// not an error; a missing root is an error so "setup never ran" is
// distinguishable from "dataset is empty".
func Scan(root string) (*Stats, error) {
	// WalkDir does not follow a symlinked root, and the materialized path
	// usually is one.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MaterializeError{Path: root, Err: ErrSourceMissing}
		}
		return nil, err
	}

	st := &Stats{Root: root, ByDir: map[string]int{}}
	err = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if !imageExts[strings.ToLower(filepath.Ext(p))] {
			st.Other++
			return nil
		}

		st.Images++
		if fi, err := d.Info(); err == nil {
			st.Bytes += fi.Size()
		}

		rel, err := filepath.Rel(resolved, p)
		if err != nil {
			return err
		}
		if top := topDir(rel); top != "" {
			st.ByDir[top]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// topDir returns the first path element of rel, or "" for files sitting
// directly in the root.
func topDir(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.Index(rel, "/"); i > 0 {
		return rel[:i]
	}
	return ""
}

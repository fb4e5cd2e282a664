// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"net/http"
	"path/filepath"
	"time"
)

// Archive identifies one remote archive and its on-disk name.
//
// The archive set is compiled in (see DefaultArchives); once downloaded the
// local file is treated as an immutable cache and never re-fetched.
type Archive struct {
	// Name is the file name inside Layout.DataDir, e.g. "WIDER_val.zip".
	Name string

	// URL is the primary download location.
	URL string

	// Mirrors are tried in order when the primary URL fails.
	Mirrors []string
}

// Layout fixes the directory tree the pipeline works in. All paths are
// relative to the process working directory unless made absolute by the
// caller.
type Layout struct {
	// DataDir holds the downloaded archives and their extracted trees.
	DataDir string

	// InputDir is the parent of the materialized path consumed by the
	// face-cropping stage.
	InputDir string

	// OutputDir is provisioned for the cropping stage; this tool never
	// writes into it.
	OutputDir string
}

// ArchivePath returns the local destination for an archive name.
func (l Layout) ArchivePath(name string) string {
	return filepath.Join(l.DataDir, name)
}

// ValImagesDir returns the validation image tree the extraction stage is
// expected to produce.
func (l Layout) ValImagesDir() string {
	return filepath.Join(l.DataDir, "WIDER_val", "images")
}

// MaterializedPath returns the stable path the cropping stage reads from.
func (l Layout) MaterializedPath() string {
	return filepath.Join(l.InputDir, "wider_face")
}

// Dirs returns the directories the provisioning stage must create.
func (l Layout) Dirs() []string {
	return []string{l.DataDir, l.InputDir, l.OutputDir}
}

// DefaultLayout returns the layout used by the WIDER FACE pipeline.
func DefaultLayout() Layout {
	return Layout{
		DataDir:   filepath.Join("data", "wider_face"),
		InputDir:  filepath.Join("data", "input"),
		OutputDir: filepath.Join("data", "output"),
	}
}

// DefaultArchives returns the two archives the pipeline needs: the
// validation images and the bounding-box annotations.
func DefaultArchives() []Archive {
	return []Archive{
		{
			Name: "WIDER_val.zip",
			URL:  "https://huggingface.co/datasets/CUHK-CSE/wider_face/resolve/main/data/WIDER_val.zip",
			Mirrors: []string{
				"http://shuoyang1213.me/WIDERFACE/support/WIDER_val.zip",
			},
		},
		{
			Name: "wider_face_split.zip",
			URL:  "http://shuoyang1213.me/WIDERFACE/support/bbx_annotation/wider_face_split.zip",
		},
	}
}

// Settings configures pipeline behavior. The zero value is usable: Run
// fills in an HTTP client and probes for the materialization strategy.
type Settings struct {
	// Client is the HTTP client used for fetches. If nil, a client with
	// tuned transport defaults and no overall timeout is built.
	Client *http.Client

	// Materializer overrides the startup capability probe. Intended for
	// tests; the strategy is not a user-facing option.
	Materializer Materializer
}

// ProgressEvent reports pipeline progress to a ProgressFunc.
//
// The Event field indicates the type of event:
//   - "provision": the directory tree exists
//   - "fetch_start": an archive download has begun
//   - "fetch_progress": periodic update during a download
//   - "fetch_mirror": the current URL failed, the next mirror is tried
//   - "fetch_done": archive on disk (Message "skip (cached)" when it already was)
//   - "extract_start": extraction of an archive has begun
//   - "extract_progress": periodic update during extraction
//   - "extract_done": archive fully extracted (Skipped counts unsafe entries)
//   - "materialize_start": input materialization has begun
//   - "materialize_done": the input path resolves to the images
//   - "error": a stage failed
//   - "done": the whole pipeline finished
type ProgressEvent struct {
	// Time is when the event occurred.
	Time time.Time `json:"time"`

	// Event is the event type identifier.
	Event string `json:"event"`

	// Archive is the archive name for fetch/extract events.
	Archive string `json:"archive,omitempty"`

	// URL is the remote location for fetch events.
	URL string `json:"url,omitempty"`

	// Path is the local path involved, if any.
	Path string `json:"path,omitempty"`

	// Downloaded is the cumulative progress: bytes for fetches, entries
	// for extractions.
	Downloaded int64 `json:"downloaded,omitempty"`

	// Total is the expected total, when known (-1 for fetches whose size
	// the server did not report).
	Total int64 `json:"total,omitempty"`

	// Skipped is the number of archive entries dropped by the enclosure
	// check. Only set in "extract_done" events.
	Skipped int `json:"skipped,omitempty"`

	// Strategy names the materialization strategy ("symlink" or "copy").
	Strategy string `json:"strategy,omitempty"`

	// Message contains additional context or error details.
	Message string `json:"message,omitempty"`
}

// ProgressFunc is a callback for receiving progress events. The pipeline is
// sequential, so the callback is never invoked concurrently.
type ProgressFunc func(ProgressEvent)

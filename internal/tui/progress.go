// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/mobius-function/invideo-assignment/pkg/widerface"
)

// Renderer displays pipeline progress interactively: a byte-count bar per
// archive fetch and an entry-count bar per extraction. The pipeline is
// sequential, so at most one bar is live at a time and no locking is needed.
type Renderer struct {
	bar    *pb.ProgressBar
	barKey string
}

// NewRenderer creates a new interactive progress renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Close finishes any live bar.
func (r *Renderer) Close() {
	r.finish()
}

// Handler returns a ProgressFunc that feeds events to the renderer.
func (r *Renderer) Handler() widerface.ProgressFunc {
	return func(ev widerface.ProgressEvent) {
		switch ev.Event {
		case "provision":
			fmt.Println("✓ directory tree ready")
		case "fetch_start":
			r.finish()
			fmt.Printf("downloading %s\n  from %s\n", ev.Archive, ev.URL)
		case "fetch_progress":
			r.ensureBar("fetch:"+ev.Archive, ev.Total, true)
			r.bar.SetCurrent(ev.Downloaded)
		case "fetch_mirror":
			r.finish()
			fmt.Fprintf(os.Stderr, "  primary failed (%s), trying mirror %s\n", ev.Message, ev.URL)
		case "fetch_done":
			r.finish()
			if ev.Message != "" {
				fmt.Printf("• %s: %s\n", ev.Archive, ev.Message)
			} else {
				fmt.Printf("✓ %s downloaded\n", ev.Archive)
			}
		case "extract_start":
			r.finish()
			fmt.Printf("extracting %s (%d entries)\n", ev.Archive, ev.Total)
		case "extract_progress":
			r.ensureBar("extract:"+ev.Archive, ev.Total, false)
			r.bar.SetCurrent(ev.Downloaded)
		case "extract_done":
			r.finish()
			if ev.Skipped > 0 {
				fmt.Fprintf(os.Stderr, "warning: %d unsafe entries skipped in %s\n", ev.Skipped, ev.Archive)
			}
			fmt.Printf("✓ %s extracted\n", ev.Archive)
		case "materialize_start":
			fmt.Printf("materializing input via %s\n", ev.Strategy)
		case "materialize_done":
			fmt.Printf("✓ input ready at %s\n", ev.Path)
		case "error":
			r.finish()
			fmt.Fprintln(os.Stderr, "error:", ev.Message)
		case "done":
			r.finish()
			fmt.Println(ev.Message)
		}
	}
}

// ensureBar starts a bar for key, replacing any bar from a previous stage.
// A total of -1 (unknown Content-Length) renders as a counter-only bar.
func (r *Renderer) ensureBar(key string, total int64, bytes bool) {
	if r.bar != nil && r.barKey == key {
		if total > 0 {
			r.bar.SetTotal(total)
		}
		return
	}
	r.finish()
	if total < 0 {
		total = 0
	}
	bar := pb.New64(total)
	if bytes {
		bar.Set(pb.Bytes, true)
	}
	r.bar = bar.Start()
	r.barKey = key
}

func (r *Renderer) finish() {
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
		r.barKey = ""
	}
}

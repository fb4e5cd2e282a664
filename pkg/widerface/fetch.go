// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"
)

// progressReader wraps an io.Reader and emits progress events during reads.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	archive    string
	emit       func(ProgressEvent)
	lastEmit   time.Time
	interval   time.Duration
}

func newProgressReader(r io.Reader, total int64, archive string, emit func(ProgressEvent)) *progressReader {
	return &progressReader{
		reader:   r,
		total:    total,
		archive:  archive,
		emit:     emit,
		lastEmit: time.Now(),
		interval: 200 * time.Millisecond, // Emit at most 5 times per second
	}
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		// Throttle emissions to avoid flooding
		if time.Since(pr.lastEmit) >= pr.interval || err == io.EOF {
			pr.emit(ProgressEvent{
				Event:      "fetch_progress",
				Archive:    pr.archive,
				Downloaded: pr.downloaded,
				Total:      pr.total,
			})
			pr.lastEmit = time.Now()
		}
	}
	return n, err
}

// buildHTTPClient creates an HTTP client with sensible transport defaults.
// There is no overall timeout: archive fetches are long-running by nature and
// cancellation goes through the request context instead.
func buildHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr}
}

// Fetch downloads an archive into dst.
//
// If dst already exists the call is a no-op that reports success; the file on
// disk is trusted as-is (no checksum, size, or mtime validation). Otherwise
// the primary URL and then each mirror is tried in order until one succeeds;
// the last error wins when all fail. The body streams into dst+".tmp" and is
// renamed into place only on full success, so dst never exists half-written.
//
// The skipped result reports whether the cached file was used.
func Fetch(ctx context.Context, httpc *http.Client, ar Archive, dst string, emit func(ProgressEvent)) (skipped bool, err error) {
	if httpc == nil {
		httpc = buildHTTPClient()
	}
	if emit == nil {
		emit = func(ProgressEvent) {}
	}

	if _, err := os.Stat(dst); err == nil {
		emit(ProgressEvent{Event: "fetch_done", Archive: ar.Name, Path: dst, Message: "skip (cached)"})
		return true, nil
	}

	urls := append([]string{ar.URL}, ar.Mirrors...)

	var lastErr error
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if i > 0 {
			emit(ProgressEvent{Event: "fetch_mirror", Archive: ar.Name, URL: u, Message: lastErr.Error()})
		}
		emit(ProgressEvent{Event: "fetch_start", Archive: ar.Name, URL: u, Path: dst})

		if err := fetchOne(ctx, httpc, ar.Name, u, dst, emit); err != nil {
			lastErr = err
			continue
		}
		emit(ProgressEvent{Event: "fetch_done", Archive: ar.Name, URL: u, Path: dst})
		return false, nil
	}
	return false, lastErr
}

// fetchOne performs a single blocking GET into dst via a temp sibling.
// On any failure the temp file is removed before the error is returned.
func fetchOne(ctx context.Context, httpc *http.Client, name, url, dst string, emit func(ProgressEvent)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode}
	}

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}

	pr := newProgressReader(resp.Body, resp.ContentLength, name, emit)
	_, copyErr := io.Copy(out, pr)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tmp)
		return &FetchError{URL: url, Err: copyErr}
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return &FetchError{URL: url, Err: err}
	}
	return nil
}

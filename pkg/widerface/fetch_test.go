// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func discardProgress(ProgressEvent) {}

func TestFetch_Idempotent(t *testing.T) {
	dir := t.TempDir()

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	ar := Archive{Name: "WIDER_val.zip", URL: srv.URL}
	dst := filepath.Join(dir, ar.Name)

	skipped, err := Fetch(context.Background(), srv.Client(), ar, dst, discardProgress)
	if err != nil {
		t.Fatalf("first Fetch failed: %v", err)
	}
	if skipped {
		t.Error("first Fetch reported skip")
	}

	first, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("destination not readable: %v", err)
	}

	skipped, err = Fetch(context.Background(), srv.Client(), ar, dst, discardProgress)
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if !skipped {
		t.Error("second Fetch did not report skip")
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("expected 1 network hit, got %d", n)
	}

	second, _ := os.ReadFile(dst)
	if string(first) != string(second) {
		t.Error("file changed across idempotent fetches")
	}
}

func TestFetch_NoPartialOnFailure(t *testing.T) {
	dir := t.TempDir()

	// Declare more bytes than we send so the client hits an unexpected EOF
	// mid-stream.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte("truncated"))
	}))
	defer srv.Close()

	ar := Archive{Name: "WIDER_val.zip", URL: srv.URL}
	dst := filepath.Join(dir, ar.Name)

	_, err := Fetch(context.Background(), srv.Client(), ar, dst, discardProgress)
	if err == nil {
		t.Fatal("expected mid-stream failure")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected *FetchError, got %T", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("destination exists after failed fetch: %v", err)
	}
	if _, err := os.Stat(dst + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after failed fetch: %v", err)
	}
}

func TestFetch_BadStatus(t *testing.T) {
	dir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ar := Archive{Name: "WIDER_val.zip", URL: srv.URL}
	dst := filepath.Join(dir, ar.Name)

	_, err := Fetch(context.Background(), srv.Client(), ar, dst, discardProgress)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination exists after 404")
	}
}

func TestFetch_MirrorFallback(t *testing.T) {
	dir := t.TempDir()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mirror-bytes"))
	}))
	defer mirror.Close()

	ar := Archive{
		Name:    "wider_face_split.zip",
		URL:     broken.URL,
		Mirrors: []string{mirror.URL},
	}
	dst := filepath.Join(dir, ar.Name)

	var events []ProgressEvent
	skipped, err := Fetch(context.Background(), mirror.Client(), ar, dst, func(e ProgressEvent) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Fetch with mirror failed: %v", err)
	}
	if skipped {
		t.Error("unexpected skip")
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("destination not readable: %v", err)
	}
	if string(got) != "mirror-bytes" {
		t.Errorf("expected mirror content, got %q", got)
	}

	var sawMirror bool
	for _, e := range events {
		if e.Event == "fetch_mirror" {
			sawMirror = true
			if e.Message == "" {
				t.Error("fetch_mirror event carries no failure reason")
			}
		}
	}
	if !sawMirror {
		t.Error("no fetch_mirror event emitted")
	}
}

func TestFetch_AllMirrorsFail(t *testing.T) {
	dir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	ar := Archive{Name: "a.zip", URL: srv.URL + "/one", Mirrors: []string{srv.URL + "/two"}}
	dst := filepath.Join(dir, ar.Name)

	_, err := Fetch(context.Background(), srv.Client(), ar, dst, discardProgress)
	if err == nil {
		t.Fatal("expected error when every URL fails")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	// The last error wins.
	if fe.URL != srv.URL+"/two" {
		t.Errorf("expected last mirror's error, got %s", fe.URL)
	}
}

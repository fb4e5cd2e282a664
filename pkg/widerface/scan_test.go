// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScan(t *testing.T) {
	tmp := t.TempDir()
	root := filepath.Join(tmp, "wider_face")
	writeTree(t, root, map[string]string{
		"0--Parade/a.jpg":      "aaaa",
		"0--Parade/b.PNG":      "bb",
		"1--Handshaking/c.bmp": "c",
		"0--Parade/notes.txt":  "not an image",
	})

	st, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if st.Images != 3 {
		t.Errorf("Images = %d, want 3", st.Images)
	}
	if st.Other != 1 {
		t.Errorf("Other = %d, want 1", st.Other)
	}
	if st.Bytes != 7 {
		t.Errorf("Bytes = %d, want 7", st.Bytes)
	}
	if st.ByDir["0--Parade"] != 2 {
		t.Errorf("ByDir[0--Parade] = %d, want 2", st.ByDir["0--Parade"])
	}
	if st.ByDir["1--Handshaking"] != 1 {
		t.Errorf("ByDir[1--Handshaking] = %d, want 1", st.ByDir["1--Handshaking"])
	}

	dirs := st.Dirs()
	if len(dirs) != 2 || dirs[0] != "0--Parade" || dirs[1] != "1--Handshaking" {
		t.Errorf("Dirs() = %v", dirs)
	}
}

func TestScan_EmptyTreeIsNotAnError(t *testing.T) {
	root := t.TempDir()

	st, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if st.Images != 0 {
		t.Errorf("Images = %d, want 0", st.Images)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "never-materialized"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("expected ErrSourceMissing, got %v", err)
	}
}

func TestScan_FollowsSymlinkedRoot(t *testing.T) {
	if !symlinksAvailable(t) {
		t.Skip("symlinks unavailable on this platform/privilege level")
	}

	tmp := t.TempDir()
	real := filepath.Join(tmp, "real")
	writeTree(t, real, map[string]string{"0--Parade/a.jpg": "aaaa"})

	link := filepath.Join(tmp, "wider_face")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}

	st, err := Scan(link)
	if err != nil {
		t.Fatalf("Scan through symlink failed: %v", err)
	}
	if st.Images != 1 {
		t.Errorf("Images = %d, want 1", st.Images)
	}
}

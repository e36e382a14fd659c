package main

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/f3d/batch"
)

func TestParseManifestDefaults(t *testing.T) {
	src := `
name: intro
segments:
  - id: 6
    file: seg06.bin
frames:
  - stream: a.dl
  - name: second
    entry: 0x06000100
`
	m, err := parseManifest([]byte(src), "/captures")
	if err != nil {
		t.Fatal(err)
	}
	if m.Version != manifestVersion || m.BatchCap != batch.DefaultCap || m.Scale != 1 {
		t.Errorf("defaults = version %d cap %d scale %d", m.Version, m.BatchCap, m.Scale)
	}
	if m.Target.Width != batch.DefaultScreenWidth || m.Target.Height != batch.DefaultScreenHeight {
		t.Errorf("target = %+v", m.Target)
	}
	if m.Frames[0].Name != "frame000" || m.Frames[1].Name != "second" {
		t.Errorf("frame names = %q, %q", m.Frames[0].Name, m.Frames[1].Name)
	}
	if m.Frames[1].Entry != 0x06000100 {
		t.Errorf("entry = 0x%08x", m.Frames[1].Entry)
	}
	if got := m.path("a.dl"); got != filepath.Join("/captures", "a.dl") {
		t.Errorf("path = %q", got)
	}
}

func TestParseManifestClampsScale(t *testing.T) {
	m, err := parseManifest([]byte("scale: 100\nframes: [{stream: a.dl}]\n"), ".")
	if err != nil {
		t.Fatal(err)
	}
	if m.Scale != maxScale {
		t.Errorf("scale = %d, want %d", m.Scale, maxScale)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "frames: [", "parsing manifest"},
		{"version", "version: 2\nframes: [{stream: a.dl}]", "newer"},
		{"no frames", "name: empty", errNoFrames.Error()},
		{"segment range", "segments: [{id: 16, file: x}]\nframes: [{stream: a.dl}]", "out of range"},
		{"segment twice", "segments: [{id: 1, file: x}, {id: 1, file: y}]\nframes: [{stream: a.dl}]", "bound twice"},
		{"segment file", "segments: [{id: 1}]\nframes: [{stream: a.dl}]", "no file"},
		{"both sources", "segments: [{id: 6, file: x}]\nframes: [{stream: a.dl, entry: 0x06000000}]", "exactly one"},
		{"no source", "frames: [{name: f}]", "exactly one"},
		{"unbound entry", "frames: [{entry: 0x05000000}]", "unbound segment 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseManifest([]byte(tt.src), ".")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

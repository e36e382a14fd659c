package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/segment"
)

const (
	manifestVersion = 1
	maxScale        = 16
	maxManifestSize = 1 << 20
)

// Manifest describes a display list capture: the segment images the lists
// read from and the top-level list of every frame.
type Manifest struct {
	Version  int            `yaml:"version"`
	Name     string         `yaml:"name"`
	BatchCap int            `yaml:"batch_cap"`
	Scale    int            `yaml:"scale"`
	Target   Target         `yaml:"target"`
	Segments []SegmentImage `yaml:"segments"`
	Frames   []Frame        `yaml:"frames"`

	// dir is the directory relative file names resolve against.
	dir string
}

// Target is the render target size of the GPU backend.
type Target struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SegmentImage binds the contents of File to segment ID.
type SegmentImage struct {
	ID   int    `yaml:"id"`
	File string `yaml:"file"`
}

// Frame is one replayed frame. The top-level list is read either from
// Stream or from the bound segments at segment address Entry.
type Frame struct {
	Name   string `yaml:"name"`
	Stream string `yaml:"stream"`
	Entry  uint32 `yaml:"entry"`
}

// loadManifest reads and normalizes the manifest at path.
func loadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return parseManifest(data, filepath.Dir(path))
}

func parseManifest(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	m.dir = dir
	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

var errNoFrames = errors.New("manifest has no frames")

// normalize applies defaults and validates the manifest.
func (m *Manifest) normalize() error {
	switch {
	case m.Version == 0:
		m.Version = manifestVersion
	case m.Version > manifestVersion:
		return fmt.Errorf("manifest version %d is newer than %d", m.Version, manifestVersion)
	}
	if m.BatchCap <= 0 {
		m.BatchCap = batch.DefaultCap
	}
	m.Scale = min(max(m.Scale, 1), maxScale)
	if m.Target.Width <= 0 || m.Target.Height <= 0 {
		m.Target = Target{Width: batch.DefaultScreenWidth, Height: batch.DefaultScreenHeight}
	}

	seen := make(map[int]bool, len(m.Segments))
	for _, s := range m.Segments {
		if s.ID < 0 || s.ID >= segment.Count {
			return fmt.Errorf("segment id %d out of range [0, %d)", s.ID, segment.Count)
		}
		if seen[s.ID] {
			return fmt.Errorf("segment %d bound twice", s.ID)
		}
		seen[s.ID] = true
		if s.File == "" {
			return fmt.Errorf("segment %d has no file", s.ID)
		}
	}

	if len(m.Frames) == 0 {
		return errNoFrames
	}
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Name == "" {
			f.Name = fmt.Sprintf("frame%03d", i)
		}
		if (f.Stream == "") == (f.Entry == 0) {
			return fmt.Errorf("frame %s: exactly one of stream and entry must be set", f.Name)
		}
		if f.Entry != 0 {
			if id, _ := segment.Split(f.Entry); !seen[int(id)] {
				return fmt.Errorf("frame %s: entry 0x%08x reads unbound segment %d", f.Name, f.Entry, id)
			}
		}
	}
	return nil
}

// path resolves a manifest-relative file name.
func (m *Manifest) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.dir, name)
}

// segments loads the segment images into a new table.
func (m *Manifest) segments() (*segment.Table, error) {
	t := segment.NewTable()
	for _, s := range m.Segments {
		data, err := os.ReadFile(m.path(s.File))
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", s.ID, err)
		}
		if err := t.Bind(segment.ID(s.ID), data); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// stream returns the top-level display list of f.
func (m *Manifest) stream(f Frame, segs *segment.Table) ([]byte, error) {
	if f.Stream != "" {
		data, err := os.ReadFile(m.path(f.Stream))
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", f.Name, err)
		}
		return data, nil
	}
	view, err := segs.Remaining(f.Entry)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", f.Name, err)
	}
	return view.Bytes(), nil
}

package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/texture"
)

// dumper writes decoded textures and read-back frames as PNG files.
type dumper struct {
	dir   string
	scale int
}

func newDumper(dir string, scale int) (*dumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dump directory: %w", err)
	}
	return &dumper{dir: dir, scale: max(scale, 1)}, nil
}

// textures writes every texture in c and returns the number written.
func (d *dumper) textures(c *texture.Cache) (int, error) {
	var (
		n   int
		err error
	)
	c.Range(func(k texture.Key, buf *texture.Buffer) bool {
		if buf == nil || buf.Width == 0 || buf.Height == 0 {
			return true
		}
		name := fmt.Sprintf("tex-%02d-%06x-%v-%dx%d.png", k.Segment, k.Offset, k.Format, k.Width, k.Height)
		if err = d.write(name, rgbaImage(buf.Pix, buf.Width, buf.Height)); err != nil {
			return false
		}
		n++
		return true
	})
	return n, err
}

// frame writes the pixels of f. Frames without pixels are skipped.
func (d *dumper) frame(name string, f *backend.Frame) (bool, error) {
	if f == nil || len(f.Pixels) < f.Width*f.Height*4 || f.Width == 0 {
		return false, nil
	}
	return true, d.write(name+".png", rgbaImage(f.Pixels, f.Width, f.Height))
}

func rgbaImage(pix []byte, w, h int) *image.RGBA {
	return &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

func (d *dumper) write(name string, src *image.RGBA) error {
	img := src
	if d.scale > 1 {
		b := src.Bounds()
		img = image.NewRGBA(image.Rect(0, 0, b.Dx()*d.scale, b.Dy()*d.scale))
		draw.NearestNeighbor.Scale(img, img.Bounds(), src, b, draw.Src, nil)
	}

	path := filepath.Join(d.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

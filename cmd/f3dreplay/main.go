// Command f3dreplay replays captured display lists through the translator
// and reports what each frame submitted.
//
// Usage:
//
//	f3dreplay -manifest capture.yaml [-gpu] [-cap N] [-dump dir] [-v]
//
// The manifest names the segment images and the top-level list of every
// frame:
//
//	version: 1
//	name: title screen
//	scale: 4
//	segments:
//	  - id: 4
//	    file: seg04.bin
//	  - id: 6
//	    file: seg06.bin
//	frames:
//	  - name: intro
//	    stream: intro.dl
//	  - entry: 0x06001000
//
// By default frames are recorded without a GPU. With -gpu they are drawn by
// the native wgpu backend and, with -dump, read back and written as PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/f3d"
	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/backend/native"
	"github.com/gogpu/f3d/backend/recording"
	"github.com/gogpu/f3d/shader"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

type replay struct {
	manifest string
	gpu      bool
	batchCap int
	dump     string
	verbose  bool

	stdout io.Writer
	stderr io.Writer

	// shaders overrides the translator's shader manager when set.
	shaders *shader.Manager
}

func (r *replay) parse(args []string) error {
	fs := flag.NewFlagSet("f3dreplay", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	fs.StringVar(&r.manifest, "manifest", "", "capture manifest (YAML)")
	fs.BoolVar(&r.gpu, "gpu", false, "draw with the native wgpu backend")
	fs.IntVar(&r.batchCap, "cap", 0, "triangles per batch (overrides the manifest)")
	fs.StringVar(&r.dump, "dump", "", "write textures and frames as PNG into `dir`")
	fs.BoolVar(&r.verbose, "v", false, "log batches and diagnostics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if r.manifest == "" {
		return errors.New("-manifest is required")
	}
	return nil
}

// totals accumulates statistics over all frames.
type totals struct {
	frames, failed                 int
	commands, triangles, batches   int
	diagnostics, textures, written int
}

func (r *replay) run(ctx context.Context) error {
	m, err := loadManifest(r.manifest)
	if err != nil {
		return err
	}
	if r.batchCap > 0 {
		m.BatchCap = r.batchCap
	}
	if r.verbose {
		f3d.SetLogger(slog.New(slog.NewTextHandler(r.stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer f3d.SetLogger(nil)
	}

	segs, err := m.segments()
	if err != nil {
		return err
	}
	renderer, err := r.renderer(m)
	if err != nil {
		return err
	}
	defer renderer.Close()

	opts := []f3d.Option{f3d.WithBatchCap(m.BatchCap)}
	if r.shaders != nil {
		opts = append(opts, f3d.WithShaderManager(r.shaders))
	}
	tr, err := f3d.New(renderer, opts...)
	if err != nil {
		return err
	}

	var dump *dumper
	if r.dump != "" {
		if dump, err = newDumper(r.dump, m.Scale); err != nil {
			return err
		}
	}

	p := message.NewPrinter(language.English)
	bar := r.progress(len(m.Frames), m.Name)
	var (
		sum  totals
		errs []error
	)
	for _, f := range m.Frames {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		stream, err := m.stream(f, segs)
		if err == nil {
			var report *f3d.FrameReport
			report, err = tr.RunFrame(ctx, stream, segs)
			if report != nil {
				r.printFrame(p, f.Name, report)
				sum.add(report)
				if dump != nil && err == nil {
					ok, derr := dump.frame(f.Name, report.Frame)
					if ok {
						sum.written++
					}
					err = derr
				}
			}
		}
		sum.frames++
		if err != nil {
			sum.failed++
			errs = append(errs, fmt.Errorf("frame %s: %w", f.Name, err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if dump != nil {
		n, err := dump.textures(tr.Textures())
		sum.textures = n
		if err != nil {
			errs = append(errs, err)
		}
	}
	r.printTotals(p, tr, &sum)
	return errors.Join(errs...)
}

func (r *replay) renderer(m *Manifest) (backend.Renderer, error) {
	if !r.gpu {
		return recording.New(), nil
	}
	nr, err := native.New(
		native.WithTarget(m.Target.Width, m.Target.Height),
		native.WithReadback(r.dump != ""),
	)
	if err != nil {
		return nil, err
	}
	return nr, nil
}

// progress returns a bar over n frames, hidden unless stderr is a terminal.
func (r *replay) progress(n int, title string) *progressbar.ProgressBar {
	visible := false
	if f, ok := r.stderr.(*os.File); ok {
		visible = term.IsTerminal(int(f.Fd()))
	}
	if title == "" {
		title = "replay"
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(r.stderr),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (t *totals) add(rep *f3d.FrameReport) {
	t.commands += rep.Commands
	t.triangles += rep.Triangles
	t.batches += rep.Batches
	t.diagnostics += len(rep.Diagnostics)
}

func (r *replay) printFrame(p *message.Printer, name string, rep *f3d.FrameReport) {
	p.Fprintf(r.stdout, "%s: %d commands, %d triangles in %d batches (%d dropped, %d culled), %d rects\n",
		name, rep.Commands, rep.Triangles, rep.Batches, rep.DroppedTriangles, rep.CulledTriangles, rep.Rects)
	for _, d := range rep.Diagnostics {
		p.Fprintf(r.stdout, "  %v\n", d)
	}
}

func (r *replay) printTotals(p *message.Printer, tr *f3d.Translator, t *totals) {
	p.Fprintf(r.stdout, "%d frames (%d failed): %d commands, %d triangles, %d batches, %d diagnostics\n",
		t.frames, t.failed, t.commands, t.triangles, t.batches, t.diagnostics)
	st := tr.Shaders().Stats()
	p.Fprintf(r.stdout, "shaders: %d programs, %d hits, %d misses\n", st.Programs, st.Hits, st.Misses)
	if r.dump != "" {
		p.Fprintf(r.stdout, "dumped %d textures and %d frames to %s\n", t.textures, t.written, r.dump)
	}
}

func main() {
	r := &replay{stdout: os.Stdout, stderr: os.Stderr}
	if err := r.parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "f3dreplay: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := r.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "f3dreplay: %v\n", err)
		os.Exit(1)
	}
}

package f3d

import (
	"log/slog"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/gbi"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/texture"
)

// Defaults for a Translator.
const (
	DefaultVertexSlots     = 32
	DefaultDiagnosticLimit = 256

	defaultTextureEntries = 64
)

// Option configures a Translator.
//
// Example:
//
//	tr, err := f3d.New(r,
//	    f3d.WithBatchCap(500),
//	    f3d.WithShaderManager(shared),
//	)
type Option func(*options)

type options struct {
	batchCap    int
	vertexSlots int
	maxDepth    int
	maxJumps    int
	diagLimit   int
	textures    *texture.Cache
	shaders     *shader.Manager
	pool        *batch.Pool
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		batchCap:    batch.DefaultCap,
		vertexSlots: DefaultVertexSlots,
		maxDepth:    gbi.DefaultMaxDepth,
		maxJumps:    gbi.DefaultMaxJumps,
		diagLimit:   DefaultDiagnosticLimit,
	}
}

// WithBatchCap sets the triangle limit per batch. Values <= 0 are ignored.
func WithBatchCap(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchCap = n
		}
	}
}

// WithVertexSlots sets the vertex cache capacity. Values <= 0 are ignored.
func WithVertexSlots(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.vertexSlots = n
		}
	}
}

// WithMaxCallDepth bounds nested display-list calls. Values <= 0 are
// ignored.
func WithMaxCallDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithMaxJumps bounds the display-list calls and branches followed in one
// frame. Values <= 0 are ignored.
func WithMaxJumps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxJumps = n
		}
	}
}

// WithDiagnosticLimit bounds the diagnostics kept per frame. Diagnostics
// past the limit are still counted. Values <= 0 are ignored.
func WithDiagnosticLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.diagLimit = n
		}
	}
}

// WithTextureCache shares a texture decode cache between translators.
func WithTextureCache(c *texture.Cache) Option {
	return func(o *options) {
		o.textures = c
	}
}

// WithShaderManager shares a program cache between translators.
func WithShaderManager(m *shader.Manager) Option {
	return func(o *options) {
		o.shaders = m
	}
}

// WithBatchPool sets the pool batches are allocated from.
func WithBatchPool(p *batch.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithLogger sets the logger for this translator's diagnostics. By default
// the package logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

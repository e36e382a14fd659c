package shader

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/f3d/internal/cache"
)

// ErrCompile is returned when neither a program nor its fallback compiles.
var ErrCompile = errors.New("shader: compilation failed")

// Program is a compiled shader for one key.
type Program struct {
	// Key is the key the program was compiled for. For a fallback program
	// this is the fallback key, and Requested holds the original.
	Key       Key
	Requested Key
	Variant   Variant
	WGSL      string
	SPIRV     []uint32

	// Fallback is set when the requested key could not be used.
	Fallback bool
}

// Stats holds program cache counters.
type Stats struct {
	Programs  int
	Hits      uint64
	Misses    uint64
	Fallbacks uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompiler replaces the naga compiler.
func WithCompiler(c Compiler) Option {
	return func(m *Manager) {
		if c != nil {
			m.compiler = c
		}
	}
}

// WithCapacity sets the number of programs kept per cache shard.
func WithCapacity(perShard int) Option {
	return func(m *Manager) {
		if perShard > 0 {
			m.perShard = perShard
		}
	}
}

// Manager generates, compiles and caches programs by key.
// It is safe for concurrent use.
type Manager struct {
	compiler Compiler
	perShard int
	programs *cache.Sharded[Key, *Program]

	// Fallback programs live in their own cache: they are built while a
	// programs shard lock is held.
	fallbackPrograms *cache.Sharded[Key, *Program]
	fallbacks        atomic.Uint64
}

// NewManager returns a manager using the naga compiler unless overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{compiler: NagaCompiler{}, perShard: 64}
	for _, opt := range opts {
		opt(m)
	}
	m.programs = cache.NewSharded[Key, *Program](m.perShard, hashKey)
	m.fallbackPrograms = cache.NewSharded[Key, *Program](m.perShard, hashKey)
	return m
}

// Get returns the program for key, compiling it on first use.
//
// Keys with unsupported inputs, and keys whose program fails to compile,
// resolve to the fallback program with Fallback set. ErrCompile is returned
// only when the fallback fails too.
func (m *Manager) Get(key Key) (*Program, error) {
	p, hit, err := m.programs.GetOrCreate(key, func() (*Program, error) {
		return m.build(key)
	})
	if err != nil {
		return nil, err
	}
	if !hit && p.Fallback {
		m.fallbacks.Add(1)
	}
	return p, nil
}

func (m *Manager) build(key Key) (*Program, error) {
	if key.Supported() {
		p, err := m.compile(key)
		if err == nil {
			slogger().Debug("shader compiled", "key", key.String(), "variant", p.Variant.String())
			return p, nil
		}
		slogger().Warn("shader compile failed, using fallback", "key", key.String(), "err", err)
	} else {
		slogger().Warn("unsupported combiner, using fallback", "key", key.String())
	}

	fb := Fallback(key)
	p, _, err := m.fallbackPrograms.GetOrCreate(fb, func() (*Program, error) {
		return m.compile(fb)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fallback %v: %w", ErrCompile, fb, err)
	}
	out := *p
	out.Requested = key
	out.Fallback = true
	return &out, nil
}

func (m *Manager) compile(key Key) (*Program, error) {
	src, err := GenerateWGSL(key)
	if err != nil {
		return nil, err
	}
	code, err := m.compiler.Compile(src)
	if err != nil {
		return nil, err
	}
	return &Program{Key: key, Requested: key, Variant: key.Variant(), WGSL: src, SPIRV: code}, nil
}

// Len returns the number of cached programs.
func (m *Manager) Len() int { return m.programs.Len() }

// Stats returns cache counters.
func (m *Manager) Stats() Stats {
	s := m.programs.Stats()
	return Stats{Programs: s.Len, Hits: s.Hits, Misses: s.Misses, Fallbacks: m.fallbacks.Load()}
}

// Range calls fn for every cached program until it returns false.
func (m *Manager) Range(fn func(*Program) bool) {
	m.programs.Range(func(_ Key, p *Program) bool { return fn(p) })
}

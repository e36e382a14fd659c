package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// Compiler turns WGSL source into SPIR-V words.
type Compiler interface {
	Compile(wgsl string) ([]uint32, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(wgsl string) ([]uint32, error)

// Compile calls f.
func (f CompilerFunc) Compile(wgsl string) ([]uint32, error) { return f(wgsl) }

// NagaCompiler compiles with the pure-Go naga toolchain.
type NagaCompiler struct{}

// Compile parses, validates and lowers wgsl to SPIR-V.
func (NagaCompiler) Compile(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("naga: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

package native

import "errors"

// Native renderer errors.
var (
	// ErrNoAdapter is returned when no HAL backend or adapter is available.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrProvider is returned when a device provider does not expose HAL
	// device and queue handles.
	ErrProvider = errors.New("native: provider does not expose HAL types")

	// ErrInvalidTarget is returned for a zero or oversized render target.
	ErrInvalidTarget = errors.New("native: invalid render target size")

	// ErrEmptyShader is returned when a program carries neither SPIR-V nor WGSL.
	ErrEmptyShader = errors.New("native: program has no shader code")
)

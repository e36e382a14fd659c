// Package shader turns color-combiner descriptors into GPU programs.
//
// A combiner descriptor holds raw selector codes for up to two (A-B)*C+D
// stages. Normalize maps the codes onto a closed set of Source values, folds
// formulas that reduce to a constant term and collapses an identity second
// stage, so that descriptors which compute the same color share one Key.
// The Manager generates WGSL for each key, compiles it with a Compiler
// (naga by default) and caches the result.
//
// Keys that read inputs the generator cannot express are replaced by the
// texture-modulate fallback, and the Program is marked as such.
package shader

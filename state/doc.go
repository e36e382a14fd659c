// Package state tracks the fixed-function render state that display-list
// commands mutate: geometry flags, the two-cycle color combiner, texture
// registers, matrices, lights, constant colors and the other-mode words.
//
// Tracker owns the one live state. Capture copies it into a RenderState value
// that batches keep for their lifetime, so later commands never alter
// geometry that was already accumulated.
package state
